package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/entitlement/internal/app/service/feature"
	"github.com/fatflowers/entitlement/internal/app/service/payment"
	"github.com/fatflowers/entitlement/pkg/response"
)

// @Summary      Scan orders
// @Description  Paginated/filterable order listing for admin pages.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body payment.ScanOrdersRequest true "Scan request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/orders/scan [post]
func ApiScanOrders(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payment.ScanOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := mgr.ScanOrders(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type AdminGrantRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	ItemID     string `json:"item_id" binding:"required"`
	OperatorID string `json:"operator_id"`
}

// @Summary      Admin grant
// @Description  Credits a shop item's entitlements to a user without a payment (internal gift).
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.AdminGrantRequest true "Grant request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/grant [post]
func ApiAdminGrant(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminGrantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		order, err := mgr.AdminGrant(c.Request.Context(), req.UserID, req.ItemID, req.OperatorID)
		if err != nil {
			if errors.Is(err, payment.ErrItemNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(order))
	}
}

type AdminExtendFeatureRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	RecordID   string `json:"record_id" binding:"required"`
	DurationMs int64  `json:"duration_ms" binding:"required,gte=0"`
}

// @Summary      Extend feature by id
// @Description  Adds a duration to a specific feature record's expiry, with no validity check (support/compensation tool).
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.AdminExtendFeatureRequest true "Extend request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/features/extend [post]
func ApiAdminExtendFeature(feat *feature.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdminExtendFeatureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		rec, err := feat.ExtendByID(c.Request.Context(), req.UserID, req.RecordID, durationMs(req.DurationMs))
		if err != nil {
			if errors.Is(err, feature.ErrRecordNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rec))
	}
}

func RegisterAdminRoutes(r gin.IRouter, mgr payment.Manager, feat *feature.Service) {
	r.POST("/orders/scan", ApiScanOrders(mgr))
	r.POST("/grant", ApiAdminGrant(mgr))
	r.POST("/features/extend", ApiAdminExtendFeature(feat))
}

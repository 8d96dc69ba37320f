package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/entitlement/internal/app/api/middleware"
	"github.com/fatflowers/entitlement/internal/app/service/payment"
	"github.com/fatflowers/entitlement/pkg/response"
	"github.com/fatflowers/entitlement/pkg/types"
)

type SubmitPaymentRequest struct {
	ItemID     string              `json:"item_id" binding:"required"`
	Method     types.PaymentMethod `json:"method" binding:"required"`
	DeviceType types.DeviceType    `json:"device_type"`
}

// @Summary      Submit payment
// @Description  Creates a payment order for a shop item and submits it to the gateway.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body handlers.SubmitPaymentRequest true "Payment submission request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payment/submit [post]
func ApiSubmitPayment(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing user"))
			return
		}

		var req SubmitPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := mgr.CreateOrder(c.Request.Context(), &payment.CreateOrderRequest{
			UserID:     userID,
			ItemID:     req.ItemID,
			Method:     req.Method,
			DeviceType: req.DeviceType,
		})
		if err != nil {
			if errors.Is(err, payment.ErrItemNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Payment callback
// @Description  Gateway notification endpoint. Verifies the callback signature and credits the order. Responds with the plain string "success" or "failure".
// @Tags         Payment
// @Accept       x-www-form-urlencoded
// @Produce      plain
// @Success      200  {string}  string  "success"
// @Router       /api/v1/payment/callback [post]
func ApiPaymentCallback(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.String(http.StatusOK, "failure")
			return
		}
		params := make(map[string]string, len(c.Request.PostForm))
		for k := range c.Request.PostForm {
			params[k] = c.Request.PostForm.Get(k)
		}

		if err := mgr.HandleCallback(c.Request.Context(), params); err != nil {
			c.String(http.StatusOK, "failure")
			return
		}
		c.String(http.StatusOK, "success")
	}
}

// @Summary      Query payment status
// @Description  Looks up one order by trade id (ours or the gateway's).
// @Tags         Payment
// @Produce      json
// @Param        trade_id query string true "Trade id"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payment/query [get]
func ApiQueryPayment(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Query("trade_id")
		if tradeID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing trade_id"))
			return
		}
		order, err := mgr.QueryOrder(c.Request.Context(), tradeID)
		if err != nil {
			if errors.Is(err, payment.ErrOrderNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeNotFound, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(order))
	}
}

// @Summary      List payments
// @Description  Lists the authenticated user's order history, newest first.
// @Tags         Payment
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payment/list [get]
func ApiListPayments(mgr payment.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing user"))
			return
		}
		orders, err := mgr.ListUserOrders(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(orders))
	}
}

// RegisterPaymentRoutes mounts the authenticated payment endpoints.
func RegisterPaymentRoutes(r gin.IRouter, mgr payment.Manager) {
	r.POST("/submit", ApiSubmitPayment(mgr))
	r.GET("/query", ApiQueryPayment(mgr))
	r.GET("/list", ApiListPayments(mgr))
}

// RegisterCallbackRoutes mounts the unauthenticated gateway callback.
func RegisterCallbackRoutes(r gin.IRouter, mgr payment.Manager) {
	r.POST("/callback", ApiPaymentCallback(mgr))
}

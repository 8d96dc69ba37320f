package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/fatflowers/entitlement/internal/app/api/middleware"
	"github.com/fatflowers/entitlement/internal/app/service/feature"
	"github.com/fatflowers/entitlement/internal/app/service/membership"
	"github.com/fatflowers/entitlement/internal/app/service/points"
	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/response"
)

type PointsBalanceResponse struct {
	Balance int64               `json:"balance"`
	Lots    []*models.PointsLot `json:"lots"`
}

// @Summary      Points balance
// @Description  Returns the sum of the user's non-expired points lots and the lots themselves, soonest-expiring first.
// @Tags         Assets
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/assets/points [get]
func ApiPointsBalance(pts *points.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		lots, err := pts.Lots(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		balance := lo.SumBy(lots, func(l *models.PointsLot) int64 { return l.Amount })
		c.JSON(http.StatusOK, response.OKT(PointsBalanceResponse{Balance: balance, Lots: lots}))
	}
}

type ConsumePointsRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// @Summary      Consume points
// @Description  Deducts points from the user's lots, soonest-expiring first.
// @Tags         Assets
// @Accept       json
// @Produce      json
// @Param        request body handlers.ConsumePointsRequest true "Consume request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/assets/points/consume [post]
func ApiConsumePoints(pts *points.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)

		var req ConsumePointsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		if err := pts.Consume(c.Request.Context(), userID, req.Amount); err != nil {
			if errors.Is(err, points.ErrInsufficientBalance) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type MembershipResponse struct {
	CurrentLevel int                        `json:"current_level"`
	Levels       []*models.MembershipRecord `json:"levels"`
}

// @Summary      Membership levels
// @Description  Returns the user's valid membership levels (latest-expiring first) and the highest valid level.
// @Tags         Assets
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/assets/membership [get]
func ApiMembership(mem *membership.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		levels, err := mem.ValidLevels(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		current := 0
		for _, r := range levels {
			if r.Level > current {
				current = r.Level
			}
		}
		c.JSON(http.StatusOK, response.OKT(MembershipResponse{CurrentLevel: current, Levels: levels}))
	}
}

// @Summary      Feature records
// @Description  Lists the user's premium feature records, latest-expiring first.
// @Tags         Assets
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/assets/features [get]
func ApiFeatures(feat *feature.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		records, err := feat.List(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(records))
	}
}

func RegisterAssetsRoutes(r gin.IRouter, pts *points.Service, mem *membership.Service, feat *feature.Service) {
	r.GET("/points", ApiPointsBalance(pts))
	r.POST("/points/consume", ApiConsumePoints(pts))
	r.GET("/membership", ApiMembership(mem))
	r.GET("/features", ApiFeatures(feat))
}

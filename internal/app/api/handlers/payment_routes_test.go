package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/entitlement/internal/app/service/payment"
	"github.com/fatflowers/entitlement/internal/models"
)

type stubPayMgr struct {
	callbackErr error
}

func (s *stubPayMgr) CreateOrder(_ context.Context, _ *payment.CreateOrderRequest) (*payment.CreateOrderResult, error) {
	panic("not used")
}

func (s *stubPayMgr) HandleCallback(_ context.Context, _ map[string]string) error {
	return s.callbackErr
}

func (s *stubPayMgr) QueryOrder(_ context.Context, tradeID string) (*models.PaymentOrder, error) {
	if tradeID == "t-1" {
		return &models.PaymentOrder{TradeID: "t-1", Status: models.OrderStatusCredited}, nil
	}
	return nil, payment.ErrOrderNotFound
}

func (s *stubPayMgr) ListUserOrders(_ context.Context, _ string) ([]*models.PaymentOrder, error) {
	panic("not used")
}

func (s *stubPayMgr) ScanOrders(_ context.Context, _ *payment.ScanOrdersRequest) (*payment.ScanOrdersResponse, error) {
	panic("not used")
}

func (s *stubPayMgr) AdminGrant(_ context.Context, _, _, _ string) (*models.PaymentOrder, error) {
	panic("not used")
}

func TestRegisterPaymentRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterPaymentRoutes(r.Group("/api/v1/payment"), &stubPayMgr{})
	RegisterCallbackRoutes(r.Group("/api/v1/payment"), &stubPayMgr{})

	routes := r.Routes()
	contains := func(target string) bool {
		for _, rt := range routes {
			if rt.Method+" "+rt.Path == target {
				return true
			}
		}
		return false
	}

	require.True(t, contains("POST /api/v1/payment/submit"))
	require.True(t, contains("GET /api/v1/payment/query"))
	require.True(t, contains("GET /api/v1/payment/list"))
	require.True(t, contains("POST /api/v1/payment/callback"))
}

func postCallback(t *testing.T, mgr payment.Manager, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/payment/callback", ApiPaymentCallback(mgr))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiPaymentCallback_PlainTextAnswers(t *testing.T) {
	form := url.Values{"out_trade_no": {"t-1"}, "sign": {"abc"}}

	w := postCallback(t, &stubPayMgr{}, form)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "success", w.Body.String())

	w = postCallback(t, &stubPayMgr{callbackErr: payment.ErrSignatureMismatch}, form)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "failure", w.Body.String())
}

func TestApiQueryPayment_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/v1/payment/query", ApiQueryPayment(&stubPayMgr{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payment/query?trade_id=missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "40400")
}

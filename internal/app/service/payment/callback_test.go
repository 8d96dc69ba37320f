package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fatflowers/entitlement/internal/models"
)

func TestCreditNeeded(t *testing.T) {
	paid := time.Now()

	tests := []struct {
		name  string
		order *models.PaymentOrder
		want  bool
	}{
		{name: "nil order", order: nil, want: false},
		{
			name:  "verified order awaiting crediting",
			order: &models.PaymentOrder{TradeID: "t-1", Status: models.OrderStatusVerified},
			want:  true,
		},
		{
			name: "credited order replayed",
			order: &models.PaymentOrder{
				TradeID: "t-1", Status: models.OrderStatusCredited,
				PaidAt: &paid, CreditingConfirmed: true,
			},
			want: false,
		},
		{
			name:  "credit_failed order retried",
			order: &models.PaymentOrder{TradeID: "t-1", Status: models.OrderStatusCreditFailed},
			want:  true,
		},
		{
			name: "confirmation wins over stale status",
			order: &models.PaymentOrder{
				TradeID: "t-1", Status: models.OrderStatusSubmitted, CreditingConfirmed: true,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, creditNeeded(tt.order))
		})
	}
}

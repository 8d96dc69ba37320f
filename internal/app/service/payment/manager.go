package payment

import (
	"context"

	"github.com/fatflowers/entitlement/internal/models"
)

// Manager is the payment reconciliation flow as seen by the HTTP layer.
type Manager interface {
	// Create an order for a shop item and submit it to the gateway.
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error)
	// Verify a gateway callback and credit the order exactly once.
	HandleCallback(ctx context.Context, params map[string]string) error
	// Look up one order by trade id.
	QueryOrder(ctx context.Context, tradeID string) (*models.PaymentOrder, error)
	// List a user's order history.
	ListUserOrders(ctx context.Context, userID string) ([]*models.PaymentOrder, error)
	// Scan orders (used by admin list pages).
	ScanOrders(ctx context.Context, req *ScanOrdersRequest) (*ScanOrdersResponse, error)
	// Credit an item without payment (internal gift).
	AdminGrant(ctx context.Context, userID, itemID, operatorID string) (*models.PaymentOrder, error)
}

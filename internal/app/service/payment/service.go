package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/entitlement/internal/app/service/feature"
	"github.com/fatflowers/entitlement/internal/app/service/membership"
	"github.com/fatflowers/entitlement/internal/app/service/points"
	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/internal/platform/gateway"
	"github.com/fatflowers/entitlement/pkg/config"
	"github.com/fatflowers/entitlement/pkg/logctx"
	"github.com/fatflowers/entitlement/pkg/metrics"
	"github.com/fatflowers/entitlement/pkg/tool"
	"github.com/fatflowers/entitlement/pkg/types"
)

var (
	ErrItemNotFound      = errors.New("shop item not found")
	ErrOrderNotFound     = errors.New("payment order not found")
	ErrSignatureMismatch = errors.New("callback signature mismatch")
	ErrDuplicateTrade    = errors.New("duplicate trade id")
	ErrCreditingFailed   = errors.New("entitlement crediting failed")
	ErrGatewayRejected   = errors.New("gateway rejected order")
)

// tradeNoMaxAttempts caps trade-number regeneration on collision. Collisions
// are astronomically rare; hitting the cap means something is wrong upstream.
const tradeNoMaxAttempts = 5

// Service drives a payment order from creation through gateway submission,
// callback verification and exactly-once crediting into the three engines.
type Service struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *gorm.DB
	gw  *gateway.Client

	points     *points.Service
	membership *membership.Service
	feature    *feature.Service
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, gw *gateway.Client,
	pts *points.Service, mem *membership.Service, feat *feature.Service) Manager {
	return &Service{cfg: cfg, log: log, db: db, gw: gw, points: pts, membership: mem, feature: feat}
}

type CreateOrderRequest struct {
	UserID     string              `json:"user_id"`
	ItemID     string              `json:"item_id"`
	Method     types.PaymentMethod `json:"method"`
	DeviceType types.DeviceType    `json:"device_type"`
}

type CreateOrderResult struct {
	Order  *models.PaymentOrder `json:"order"`
	QRCode string               `json:"qr_code,omitempty"`
}

// CreateOrder resolves the item into typed grants, persists the order with a
// verified-unique trade number, and submits it to the gateway. Everything the
// flow needs later is snapshotted on the order row; no request state is
// shared between in-flight orders.
func (s *Service) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error) {
	if req == nil || req.UserID == "" || req.ItemID == "" {
		return nil, fmt.Errorf("invalid create order request")
	}

	item := s.cfg.GetShopItemByID(req.ItemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	grants, err := ResolveGrants(item)
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		UserID:     req.UserID,
		ItemID:     item.ID,
		ItemName:   item.Name,
		Amount:     item.Price,
		Method:     req.Method,
		DeviceType: req.DeviceType,
		Status:     models.OrderStatusCreated,
	}
	order.ApplyGrants(grants)
	if err := s.createWithFreshTradeNo(ctx, s.db, order); err != nil {
		return nil, err
	}
	tradeID := order.TradeID

	// Submitted before the call: if the gateway answer is ambiguous the order
	// must stay queryable in this state, never assumed accepted.
	if err := s.updateOrder(ctx, tradeID, map[string]any{"status": models.OrderStatusSubmitted}); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusSubmitted

	params := s.outboundParams(order)
	params["sign"] = Sign(params, s.cfg.Gateway.Secret)

	res, err := s.gw.Submit(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("gateway submit for trade %s: %w", tradeID, err)
	}
	if !res.Accepted {
		logctx.FromCtx(ctx, s.log).Warnw("gateway_rejected", "trade_id", tradeID, "message", res.Message)
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, res.Message)
	}

	// The gateway-assigned reference supersedes ours for correlation.
	if err := s.updateOrder(ctx, tradeID, map[string]any{"gateway_trade_no": res.GatewayTradeNo}); err != nil {
		return nil, err
	}
	order.GatewayTradeNo = res.GatewayTradeNo

	logctx.FromCtx(ctx, s.log).Infow("order_submitted",
		"trade_id", tradeID, "gateway_trade_no", res.GatewayTradeNo, "user_id", req.UserID, "item_id", item.ID)
	return &CreateOrderResult{Order: order, QRCode: res.QRCode}, nil
}

func (s *Service) outboundParams(order *models.PaymentOrder) map[string]string {
	return map[string]string{
		"merchant_id":  s.cfg.Gateway.MerchantID,
		"out_trade_no": order.TradeID,
		"total_fee":    strconv.FormatInt(order.Amount, 10),
		"subject":      order.ItemName,
		"method":       string(order.Method),
		"device_type":  string(order.DeviceType),
		"notify_url":   s.cfg.Gateway.NotifyURL,
	}
}

// createWithFreshTradeNo inserts the order, regenerating the trade number
// whenever the primary key collides. The insert itself is the uniqueness
// check, so two concurrent creates can never both win the same number.
func (s *Service) createWithFreshTradeNo(ctx context.Context, db *gorm.DB, order *models.PaymentOrder) error {
	for attempt := 0; attempt < tradeNoMaxAttempts; attempt++ {
		order.TradeID = tool.GenerateTradeNo(time.Now())
		err := db.WithContext(ctx).Create(order).Error
		if err == nil {
			return nil
		}
		if isDuplicateKey(err) {
			continue
		}
		return fmt.Errorf("failed to create payment order: %w", err)
	}
	return ErrDuplicateTrade
}

// isDuplicateKey matches the unique violation translated by the driver.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// HandleCallback verifies a gateway callback and credits the order's
// entitlements exactly once.
func (s *Service) HandleCallback(ctx context.Context, params map[string]string) error {
	if !Verify(params, s.cfg.Gateway.Secret) {
		metrics.SignatureRejects.Inc()
		// security-relevant: a mismatch is a potential forgery, not user error
		logctx.FromCtx(ctx, s.log).Errorw("callback_signature_mismatch",
			"out_trade_no", params["out_trade_no"], "trade_no", params["trade_no"])
		return ErrSignatureMismatch
	}

	tradeID := params["out_trade_no"]
	if tradeID == "" {
		return ErrOrderNotFound
	}

	var order models.PaymentOrder
	if err := s.db.WithContext(ctx).Where("trade_id = ?", tradeID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to load order: %w", err)
	}

	if !creditNeeded(&order) {
		logctx.FromCtx(ctx, s.log).Infow("callback_duplicate", "trade_id", tradeID)
		return nil
	}

	// Record the verified state before crediting so a crash between the two
	// leaves the order truthful.
	if err := s.updateOrder(ctx, tradeID, map[string]any{"status": models.OrderStatusVerified}); err != nil {
		return err
	}

	paidAt := callbackPaidAt(params)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// re-read under lock: a concurrent duplicate callback must not credit twice
		var locked models.PaymentOrder
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("trade_id = ?", tradeID).
			First(&locked).Error; err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if !creditNeeded(&locked) {
			return nil
		}

		if err := s.creditTx(ctx, tx, &locked); err != nil {
			return err
		}

		updates := map[string]any{
			"status":              models.OrderStatusCredited,
			"paid_at":             paidAt,
			"crediting_confirmed": true,
		}
		if gwNo := params["trade_no"]; gwNo != "" {
			updates["gateway_trade_no"] = gwNo
		}
		if err := tx.WithContext(ctx).Model(&models.PaymentOrder{}).
			Where("trade_id = ?", tradeID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to confirm crediting: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.CreditFailures.Inc()
		// the rollback left crediting_confirmed=false; mark the order so it is
		// visibly failed and eligible for retry, never silently dropped
		if uerr := s.updateOrder(ctx, tradeID, map[string]any{"status": models.OrderStatusCreditFailed}); uerr != nil {
			logctx.FromCtx(ctx, s.log).Errorw("credit_failed_mark_error", "trade_id", tradeID, "error", uerr)
		}
		logctx.FromCtx(ctx, s.log).Errorw("crediting_failed", "trade_id", tradeID, "error", err)
		return fmt.Errorf("%w: %v", ErrCreditingFailed, err)
	}

	metrics.OrdersCredited.Inc()
	logctx.FromCtx(ctx, s.log).Infow("order_credited", "trade_id", tradeID, "user_id", order.UserID)
	return nil
}

// creditNeeded reports whether a verified callback still has crediting work
// to do. Confirmed orders are replay no-ops regardless of status; a
// credit_failed order is retried on the gateway's next attempt.
func creditNeeded(order *models.PaymentOrder) bool {
	return order != nil && !order.CreditingConfirmed
}

// creditTx applies every grant stored on the order within the caller's
// transaction. Any failure aborts the whole batch.
func (s *Service) creditTx(ctx context.Context, tx *gorm.DB, order *models.PaymentOrder) error {
	g := order.Grants()

	if g.Points > 0 {
		if _, err := s.points.GrantTx(ctx, tx, order.UserID, g.Points, g.PointsDuration()); err != nil {
			return fmt.Errorf("points grant: %w", err)
		}
	}
	if g.MembershipLevel > 0 {
		if _, err := s.membership.GrantTx(ctx, tx, order.UserID, g.MembershipLevel, g.MembershipDuration()); err != nil {
			return fmt.Errorf("membership grant: %w", err)
		}
	}
	for _, fg := range g.Features {
		if _, err := s.feature.GrantTx(ctx, tx, order.UserID, fg.Name, fg.Duration()); err != nil {
			return fmt.Errorf("feature grant %s: %w", fg.Name, err)
		}
	}
	return nil
}

// AdminGrant credits an item's entitlements without a payment, recorded as an
// inner-method order that is born credited.
func (s *Service) AdminGrant(ctx context.Context, userID, itemID, operatorID string) (*models.PaymentOrder, error) {
	if userID == "" || itemID == "" {
		return nil, fmt.Errorf("invalid params: userID and itemID required")
	}
	item := s.cfg.GetShopItemByID(itemID)
	if item == nil {
		return nil, ErrItemNotFound
	}
	grants, err := ResolveGrants(item)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	order := &models.PaymentOrder{
		UserID:             userID,
		ItemID:             item.ID,
		ItemName:           item.Name,
		Amount:             0,
		Method:             types.PaymentMethodInner,
		Status:             models.OrderStatusCredited,
		PaidAt:             &now,
		CreditingConfirmed: true,
	}
	order.ApplyGrants(grants)

	// A collided insert aborts the transaction, so the retry restarts it
	// whole rather than re-inserting inside the aborted one.
	for attempt := 0; attempt < tradeNoMaxAttempts; attempt++ {
		order.TradeID = tool.GenerateTradeNo(time.Now())
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.WithContext(ctx).Create(order).Error; err != nil {
				return fmt.Errorf("failed to create inner order: %w", err)
			}
			return s.creditTx(ctx, tx, order)
		})
		if !isDuplicateKey(err) {
			break
		}
	}
	if isDuplicateKey(err) {
		return nil, ErrDuplicateTrade
	}
	if err != nil {
		metrics.CreditFailures.Inc()
		return nil, fmt.Errorf("%w: %v", ErrCreditingFailed, err)
	}

	metrics.OrdersCredited.Inc()
	logctx.FromCtx(ctx, s.log).Infow("admin_grant",
		"trade_id", order.TradeID, "user_id", userID, "item_id", itemID, "operator_id", operatorID)
	return order, nil
}

// QueryOrder looks an order up by our trade id, falling back to the
// gateway-assigned reference. Not state-changing.
func (s *Service) QueryOrder(ctx context.Context, tradeID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := s.db.WithContext(ctx).
		Where("trade_id = ? OR gateway_trade_no = ?", tradeID, tradeID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return &order, nil
}

// ListUserOrders returns the user's order history, newest first.
func (s *Service) ListUserOrders(ctx context.Context, userID string) ([]*models.PaymentOrder, error) {
	var orders []*models.PaymentOrder
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *Service) updateOrder(ctx context.Context, tradeID string, updates map[string]any) error {
	if err := s.db.WithContext(ctx).Model(&models.PaymentOrder{}).
		Where("trade_id = ?", tradeID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update order %s: %w", tradeID, err)
	}
	return nil
}

// callbackPaidAt parses the gateway's payment timestamp, defaulting to now.
func callbackPaidAt(params map[string]string) *time.Time {
	now := time.Now()
	if v := params["time_end"]; v != "" {
		if t, err := time.ParseInLocation("20060102150405", v, time.Local); err == nil {
			return &t
		}
	}
	return &now
}

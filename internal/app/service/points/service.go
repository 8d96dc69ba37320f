package points

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/entitlement/internal/app/service/assets"
	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/logctx"
	"github.com/fatflowers/entitlement/pkg/metrics"
	"github.com/fatflowers/entitlement/pkg/tool"
	"github.com/fatflowers/entitlement/pkg/types"
)

// ErrInsufficientBalance is returned when a consume exceeds the sum of the
// user's non-expired lots. No writes happen in that case.
var ErrInsufficientBalance = errors.New("insufficient points balance")

// Service is the points ledger engine: expiry-ordered lots, FIFO depletion.
type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db}
}

// Grant creates one new lot expiring at now+duration. Lots are never merged;
// each grant keeps its own clock.
func (s *Service) Grant(ctx context.Context, userID string, amount int64, duration time.Duration) (*models.PointsLot, error) {
	var lot *models.PointsLot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		lot, err = s.GrantTx(ctx, tx, userID, amount, duration)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// GrantTx is Grant running inside an existing transaction, used by the
// payment crediting flow to keep the whole batch atomic.
func (s *Service) GrantTx(ctx context.Context, tx *gorm.DB, userID string, amount int64, duration time.Duration) (*models.PointsLot, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user id")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("invalid points grant amount: %d", amount)
	}
	if err := assets.EnsureTx(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user assets: %w", err)
	}

	now := time.Now()
	lot := &models.PointsLot{
		ID:       tool.GenerateUUIDV7(),
		UserID:   userID,
		Amount:   amount,
		ExpireAt: types.ClampExpire(now, duration),
	}
	if err := tx.WithContext(ctx).Create(lot).Error; err != nil {
		return nil, fmt.Errorf("failed to create points lot: %w", err)
	}
	return lot, nil
}

// Consume deducts amount from the user's lots, draining the soonest-expiring
// lots first. Fails with ErrInsufficientBalance and performs no writes if the
// non-expired total is short.
func (s *Service) Consume(ctx context.Context, userID string, amount int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.ConsumeTx(ctx, tx, userID, amount)
	})
}

func (s *Service) ConsumeTx(ctx context.Context, tx *gorm.DB, userID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("invalid consume amount: %d", amount)
	}

	now := time.Now()
	var lots []*models.PointsLot
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND expire_at > ?", userID, now).
		Order("expire_at asc").
		Find(&lots).Error; err != nil {
		return fmt.Errorf("failed to load points lots: %w", err)
	}

	plan, err := planConsume(lots, amount)
	if err != nil {
		return err
	}

	if len(plan.drainedIDs) > 0 {
		if err := tx.WithContext(ctx).Where("id IN ?", plan.drainedIDs).Delete(&models.PointsLot{}).Error; err != nil {
			return fmt.Errorf("failed to delete drained lots: %w", err)
		}
	}
	if plan.partialID != "" {
		if err := tx.WithContext(ctx).Model(&models.PointsLot{}).
			Where("id = ?", plan.partialID).
			Update("amount", plan.partialRemaining).Error; err != nil {
			return fmt.Errorf("failed to update partial lot: %w", err)
		}
	}

	logctx.FromCtx(ctx, s.log).Infow("points_consumed", "user_id", userID, "amount", amount)
	metrics.PointsConsumed.Add(float64(amount))
	return nil
}

// Balance returns the sum of non-expired lot amounts. The same "now" is used
// for filtering and summing so boundary-instant lots cannot be half-counted.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	now := time.Now()
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.PointsLot{}).
		Where("user_id = ? AND expire_at > ?", userID, now).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}
	return total, nil
}

// Lots lists the user's non-expired lots, soonest-expiring first.
func (s *Service) Lots(ctx context.Context, userID string) ([]*models.PointsLot, error) {
	var lots []*models.PointsLot
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND expire_at > ?", userID, time.Now()).
		Order("expire_at asc").
		Find(&lots).Error; err != nil {
		return nil, fmt.Errorf("failed to list points lots: %w", err)
	}
	return lots, nil
}

// Sweep removes lots that are already unusable. Idempotent; safe alongside
// concurrent grants and consumes because it only touches expired rows.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expire_at <= ?", time.Now()).Delete(&models.PointsLot{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep points lots: %w", res.Error)
	}
	metrics.SweptRows.WithLabelValues("points").Add(float64(res.RowsAffected))
	return res.RowsAffected, nil
}

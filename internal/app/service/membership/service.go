package membership

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
	"github.com/fatflowers/entitlement/pkg/config"
	"github.com/fatflowers/entitlement/pkg/logctx"
	"github.com/fatflowers/entitlement/pkg/metrics"
	"github.com/fatflowers/entitlement/pkg/tool"
)

// Service is the membership stacking engine: one record per (user, level),
// grants only ever extend, higher-tier grants optionally drag still-valid
// lower tiers forward by the same duration.
type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB

	// stackLowerTiers isolates the cross-level extension rule so product can
	// toggle it without touching the rest of the engine.
	stackLowerTiers bool
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db, stackLowerTiers: cfg.Membership.StackLowerTiers}
}

// Grant extends (or creates) the record for level by duration.
func (s *Service) Grant(ctx context.Context, userID string, level int, duration time.Duration) (*models.MembershipRecord, error) {
	var rec *models.MembershipRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.GrantTx(ctx, tx, userID, level, duration)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GrantTx(ctx context.Context, tx *gorm.DB, userID string, level int, duration time.Duration) (*models.MembershipRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("missing user id")
	}
	if level < 1 {
		return nil, fmt.Errorf("invalid membership level: %d", level)
	}
	if err := assets.EnsureTx(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user assets: %w", err)
	}

	now := time.Now()

	// Lock every membership row of the user: the grant reads the level's
	// current expiry and possibly rewrites lower tiers, so two concurrent
	// grants must serialize here.
	var records []*models.MembershipRecord
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load membership records: %w", err)
	}

	var existing *models.MembershipRecord
	for _, r := range records {
		if r.Level == level {
			existing = r
			break
		}
	}

	var existingExpire *time.Time
	if existing != nil {
		existingExpire = &existing.ExpireAt
	}
	newExpire := nextExpiry(existingExpire, now, duration)

	var rec *models.MembershipRecord
	if existing != nil {
		if err := tx.WithContext(ctx).Model(&models.MembershipRecord{}).
			Where("id = ?", existing.ID).
			Update("expire_at", newExpire).Error; err != nil {
			return nil, fmt.Errorf("failed to extend membership record: %w", err)
		}
		existing.ExpireAt = newExpire
		rec = existing
	} else {
		rec = &models.MembershipRecord{
			ID:       tool.GenerateUUIDV7(),
			UserID:   userID,
			Level:    level,
			ExpireAt: newExpire,
		}
		if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
			return nil, fmt.Errorf("failed to create membership record: %w", err)
		}
	}

	if s.stackLowerTiers {
		for id, expireAt := range lowerTierExtensions(records, level, duration, now) {
			if err := tx.WithContext(ctx).Model(&models.MembershipRecord{}).
				Where("id = ?", id).
				Update("expire_at", expireAt).Error; err != nil {
				return nil, fmt.Errorf("failed to extend lower tier: %w", err)
			}
		}
	}

	logctx.FromCtx(ctx, s.log).Infow("membership_granted",
		"user_id", userID, "level", level, "expire_at", rec.ExpireAt)
	return rec, nil
}

// ValidLevels lists the user's non-expired records, latest-expiring first.
func (s *Service) ValidLevels(ctx context.Context, userID string) ([]*models.MembershipRecord, error) {
	var records []*models.MembershipRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND expire_at > ?", userID, time.Now()).
		Order("expire_at desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list membership records: %w", err)
	}
	return records, nil
}

// CurrentLevel returns the highest valid level, or 0 if none.
func (s *Service) CurrentLevel(ctx context.Context, userID string) (int, error) {
	records, err := s.ValidLevels(ctx, userID)
	if err != nil {
		return 0, err
	}
	return highestLevel(records), nil
}

// Record looks up one record by (user, level).
func (s *Service) Record(ctx context.Context, userID string, level int) (*models.MembershipRecord, error) {
	var rec models.MembershipRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND level = ?", userID, level).
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load membership record: %w", err)
	}
	return &rec, nil
}

// Sweep deletes fully expired records.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expire_at <= ?", time.Now()).Delete(&models.MembershipRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep membership records: %w", res.Error)
	}
	metrics.SweptRows.WithLabelValues("membership").Add(float64(res.RowsAffected))
	return res.RowsAffected, nil
}

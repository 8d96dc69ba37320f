package feature

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
)

// ErrRecordNotFound is returned when an id/user pair does not resolve.
var ErrRecordNotFound = errors.New("feature record not found")

// Service is the premium feature engine: named entitlements whose grants
// extend the most-recently-expiring record for the name.
type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db}
}

// Grant extends the feature's newest record when one exists, or inserts a
// fresh record expiring at now+duration.
func (s *Service) Grant(ctx context.Context, userID, featureName string, duration time.Duration) (*models.FeatureRecord, error) {
	var rec *models.FeatureRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.GrantTx(ctx, tx, userID, featureName, duration)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) GrantTx(ctx context.Context, tx *gorm.DB, userID, featureName string, duration time.Duration) (*models.FeatureRecord, error) {
	if userID == "" || featureName == "" {
		return nil, fmt.Errorf("missing user id or feature name")
	}
	if err := assets.EnsureTx(ctx, tx, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user assets: %w", err)
	}

	now := time.Now()

	// featureName carries no uniqueness constraint, so target the record that
	// expires last.
	var found []*models.FeatureRecord
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND feature_name = ?", userID, featureName).
		Order("expire_at desc").
		Limit(1).
		Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to load feature record: %w", err)
	}

	var existing *models.FeatureRecord
	if len(found) > 0 {
		existing = found[0]
	}
	newExpire := resolveExpiry(existing, now, duration)

	if existing != nil {
		if err := tx.WithContext(ctx).Model(&models.FeatureRecord{}).
			Where("id = ?", existing.ID).
			Update("expire_at", newExpire).Error; err != nil {
			return nil, fmt.Errorf("failed to extend feature record: %w", err)
		}
		existing.ExpireAt = newExpire
		logctx.FromCtx(ctx, s.log).Infow("feature_extended",
			"user_id", userID, "feature", featureName, "expire_at", newExpire)
		return existing, nil
	}

	rec := &models.FeatureRecord{
		ID:          tool.GenerateUUIDV7(),
		UserID:      userID,
		FeatureName: featureName,
		ExpireAt:    newExpire,
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to create feature record: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("feature_granted",
		"user_id", userID, "feature", featureName, "expire_at", newExpire)
	return rec, nil
}

// ExtendByID adds duration to a specific record's expiry, with no validity
// check. ErrRecordNotFound when the id does not belong to the user.
func (s *Service) ExtendByID(ctx context.Context, userID, recordID string, duration time.Duration) (*models.FeatureRecord, error) {
	var rec models.FeatureRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", recordID, userID).
			First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to load feature record: %w", err)
		}
		rec.ExpireAt = resolveExtendBy(rec.ExpireAt, duration)
		if err := tx.WithContext(ctx).Model(&models.FeatureRecord{}).
			Where("id = ?", rec.ID).
			Update("expire_at", rec.ExpireAt).Error; err != nil {
			return fmt.Errorf("failed to extend feature record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all of the user's feature records, latest-expiring first.
func (s *Service) List(ctx context.Context, userID string) ([]*models.FeatureRecord, error) {
	var records []*models.FeatureRecord
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expire_at desc").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list feature records: %w", err)
	}
	return records, nil
}

// Sweep deletes expired records.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expire_at <= ?", time.Now()).Delete(&models.FeatureRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to sweep feature records: %w", res.Error)
	}
	metrics.SweptRows.WithLabelValues("feature").Add(float64(res.RowsAffected))
	return res.RowsAffected, nil
}

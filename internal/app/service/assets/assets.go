package assets

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/entitlement/internal/models"
	"github.com/fatflowers/entitlement/pkg/tool"
)

// EnsureTx creates the user's aggregate root row on first grant. Safe under
// concurrency: the unique user_id index plus ON CONFLICT DO NOTHING makes the
// lazy creation race-free.
func EnsureTx(ctx context.Context, tx *gorm.DB, userID string) error {
	ua := &models.UserAssets{ID: tool.GenerateUUIDV7(), UserID: userID}
	return tx.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(ua).Error
}

package points

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/entitlement/internal/models"
)

func lot(id string, amount int64, expireAt time.Time) *models.PointsLot {
	return &models.PointsLot{ID: id, UserID: "u1", Amount: amount, ExpireAt: expireAt}
}

func TestPlanConsume(t *testing.T) {
	now := time.Now()
	soon := now.Add(1 * time.Hour)
	later := now.Add(24 * time.Hour)

	tests := []struct {
		name          string
		lots          []*models.PointsLot
		amount        int64
		wantErr       error
		wantDrained   []string
		wantPartialID string
		wantRemaining int64
	}{
		{
			name:    "insufficient balance",
			lots:    []*models.PointsLot{lot("a", 50, soon)},
			amount:  60,
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "no lots at all",
			lots:    nil,
			amount:  1,
			wantErr: ErrInsufficientBalance,
		},
		{
			name:          "partial drain of soonest lot",
			lots:          []*models.PointsLot{lot("a", 50, soon), lot("b", 50, later)},
			amount:        30,
			wantPartialID: "a",
			wantRemaining: 20,
		},
		{
			name:        "exact drain of one lot",
			lots:        []*models.PointsLot{lot("a", 50, soon), lot("b", 50, later)},
			amount:      50,
			wantDrained: []string{"a"},
		},
		{
			name:          "spans lots, soonest first",
			lots:          []*models.PointsLot{lot("a", 50, soon), lot("b", 50, later)},
			amount:        70,
			wantDrained:   []string{"a"},
			wantPartialID: "b",
			wantRemaining: 30,
		},
		{
			name:        "drains everything",
			lots:        []*models.PointsLot{lot("a", 50, soon), lot("b", 50, later)},
			amount:      100,
			wantDrained: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planConsume(tt.lots, tt.amount)
			if tt.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDrained, plan.drainedIDs)
			assert.Equal(t, tt.wantPartialID, plan.partialID)
			if tt.wantPartialID != "" {
				assert.Equal(t, tt.wantRemaining, plan.partialRemaining)
			}
		})
	}
}

func TestPlanConsume_DoesNotMutateSnapshot(t *testing.T) {
	now := time.Now()
	lots := []*models.PointsLot{lot("a", 50, now.Add(time.Hour)), lot("b", 50, now.Add(24*time.Hour))}

	_, err := planConsume(lots, 30)
	require.NoError(t, err)

	assert.Equal(t, int64(50), lots[0].Amount)
	assert.Equal(t, int64(50), lots[1].Amount)
}

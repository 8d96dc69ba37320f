package points

import (
	"github.com/samber/lo"

	"github.com/fatflowers/entitlement/internal/models"
)

// consumePlan is the write set computed from a locked lot snapshot: lots to
// delete outright and at most one lot left partially drained.
type consumePlan struct {
	drainedIDs       []string
	partialID        string
	partialRemaining int64
}

// planConsume walks lots in the order given (callers load them soonest-expiring
// first) and deducts until amount is exhausted. Pure over the snapshot.
func planConsume(lots []*models.PointsLot, amount int64) (*consumePlan, error) {
	total := lo.SumBy(lots, func(l *models.PointsLot) int64 { return l.Amount })
	if total < amount {
		return nil, ErrInsufficientBalance
	}

	plan := &consumePlan{}
	remaining := amount
	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		if lot.Amount <= remaining {
			plan.drainedIDs = append(plan.drainedIDs, lot.ID)
			remaining -= lot.Amount
			continue
		}
		plan.partialID = lot.ID
		plan.partialRemaining = lot.Amount - remaining
		remaining = 0
	}
	return plan, nil
}

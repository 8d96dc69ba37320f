package sweeper

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/entitlement/internal/app/service/feature"
	"github.com/fatflowers/entitlement/internal/app/service/membership"
	"github.com/fatflowers/entitlement/internal/app/service/points"
	"github.com/fatflowers/entitlement/pkg/config"
)

// Sweeper periodically removes expired lots and records. Each engine's sweep
// only deletes rows already unusable at the moment of the delete, so running
// alongside grants and consumes is safe.
type Sweeper struct {
	log      *zap.SugaredLogger
	interval time.Duration

	points     *points.Service
	membership *membership.Service
	feature    *feature.Service

	stop chan struct{}
	done chan struct{}
}

func New(cfg *config.Config, log *zap.SugaredLogger, pts *points.Service, mem *membership.Service, feat *feature.Service) *Sweeper {
	return &Sweeper{
		log:        log,
		interval:   cfg.Sweep.Interval(),
		points:     pts,
		membership: mem,
		feature:    feat,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (s *Sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.SweepOnce(context.Background())
		case <-s.stop:
			return
		}
	}
}

// SweepOnce runs all three sweeps, logging counts. Errors are logged and do
// not abort the remaining sweeps.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	if n, err := s.points.Sweep(ctx); err != nil {
		s.log.Errorw("points_sweep_failed", "error", err)
	} else if n > 0 {
		s.log.Infow("points_sweep", "removed", n)
	}
	if n, err := s.membership.Sweep(ctx); err != nil {
		s.log.Errorw("membership_sweep_failed", "error", err)
	} else if n > 0 {
		s.log.Infow("membership_sweep", "removed", n)
	}
	if n, err := s.feature.Sweep(ctx); err != nil {
		s.log.Errorw("feature_sweep_failed", "error", err)
	} else if n > 0 {
		s.log.Infow("feature_sweep", "removed", n)
	}
}

func register(lc fx.Lifecycle, s *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Infow("starting sweeper", "interval", s.interval)
			go s.run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(s.stop)
			select {
			case <-s.done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)

package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/entitlement/internal/app/api/server"
	"github.com/fatflowers/entitlement/internal/app/service/feature"
	"github.com/fatflowers/entitlement/internal/app/service/membership"
	"github.com/fatflowers/entitlement/internal/app/service/payment"
	"github.com/fatflowers/entitlement/internal/app/service/points"
	"github.com/fatflowers/entitlement/internal/app/service/sweeper"
	"github.com/fatflowers/entitlement/internal/platform/db"
	"github.com/fatflowers/entitlement/internal/platform/gateway"
	"github.com/fatflowers/entitlement/pkg/config"
	"github.com/fatflowers/entitlement/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	gateway.Module,
	server.Module,
	points.Module,
	membership.Module,
	feature.Module,
	payment.Module,
	sweeper.Module,
)

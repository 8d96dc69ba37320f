package points

import "go.uber.org/fx"

// Module exposes the points ledger engine via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)

package feature

import "go.uber.org/fx"

// Module exposes the premium feature engine via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)

package payment

import "go.uber.org/fx"

// Module exposes the payment reconciliation flow via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)

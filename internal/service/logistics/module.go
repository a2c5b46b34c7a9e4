package logistics

import "go.uber.org/fx"

// Module provides the logistics service to Fx.
var Module = fx.Provide(NewService)

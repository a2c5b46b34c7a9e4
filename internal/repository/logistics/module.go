package logistics

import "go.uber.org/fx"

// Module provides the logistics repository to Fx.
var Module = fx.Provide(NewRepository)

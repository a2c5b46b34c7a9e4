package http

import (
	"go.uber.org/fx"

	logisticstransport "github.com/Additional-Code/logistics/internal/transport/http/logistics"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	logisticstransport.Module,
)

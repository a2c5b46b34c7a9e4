package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/logistics/internal/cache"
	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database"
	"github.com/Additional-Code/logistics/internal/logger"
	"github.com/Additional-Code/logistics/internal/messaging"
	"github.com/Additional-Code/logistics/internal/observability"
	repository "github.com/Additional-Code/logistics/internal/repository/logistics"
	"github.com/Additional-Code/logistics/internal/schema"
	grpcserver "github.com/Additional-Code/logistics/internal/server/grpc"
	httpserver "github.com/Additional-Code/logistics/internal/server/http"
	service "github.com/Additional-Code/logistics/internal/service/logistics"
	transporthttp "github.com/Additional-Code/logistics/internal/transport/http"
	"github.com/Additional-Code/logistics/internal/worker"
	workerlogistics "github.com/Additional-Code/logistics/internal/worker/logistics"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	database.Module,
	schema.Module,
	cache.Module,
	messaging.Module,
	repository.Module,
	service.Module,
)

// HTTP wires the HTTP transport and the optional gRPC health endpoint on top
// of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background processing of created events.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerlogistics.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP

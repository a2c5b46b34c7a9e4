package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database"
	"github.com/Additional-Code/logistics/internal/logger"
	"github.com/Additional-Code/logistics/internal/observability"
	"github.com/Additional-Code/logistics/internal/presentation/http/response"
	"github.com/Additional-Code/logistics/pkg/errorbank"
)

const healthTimeout = 2 * time.Second

// Module exposes the HTTP server lifecycle to Fx.
var Module = fx.Module("http_server",
	fx.Provide(NewEcho),
	fx.Invoke(Run),
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Params groups NewEcho dependencies.
type Params struct {
	fx.In

	Config        config.Config
	Observability *observability.Manager
	Database      *database.Connections
	Logger        *zap.Logger
}

// NewEcho configures the Echo router with tracing, metrics and health routes.
func NewEcho(p Params) (*echo.Echo, error) {
	return newEcho(p.Config, p.Observability, p.Database, p.Logger)
}

func newEcho(cfg config.Config, obs *observability.Manager, db Pinger, log *zap.Logger) (*echo.Echo, error) {
	log = logger.Component(log, "http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	if obs.TracingEnabled() {
		e.Use(otelecho.Middleware(cfg.Observability.ServiceName))
	}

	metrics, err := observability.NewHTTPMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	e.Use(recordMetrics(metrics))

	e.GET("/health", health(db))

	if obs.MetricsEnabled() && obs.MetricsHandler() != nil {
		e.GET(obs.PrometheusPath(), echo.WrapHandler(obs.MetricsHandler()))
	}
	return e, nil
}

// errorHandler renders router and middleware errors in the same envelope as
// handler errors.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		b := response.New(c)
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			log.Debug("http request rejected", zap.String("path", c.Request().URL.Path), zap.Int("status", httpErr.Code))
			b.WithStatus(httpErr.Code).WithError(errorbank.FromStatus(httpErr.Code, fmt.Sprint(httpErr.Message), errorbank.WithCause(err)))
		} else {
			log.Error("http request failed", zap.String("path", c.Request().URL.Path), zap.Error(err))
			b.WithError(err)
		}
		if buildErr := b.Build(); buildErr != nil {
			log.Error("write error response", zap.Error(buildErr))
		}
	}
}

func recordMetrics(metrics *observability.HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Render now so the recorded status is the one sent. The error
				// handler skips committed responses when echo calls it again.
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.Record(c.Request().Context(), c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

func health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Run starts the HTTP server and ties it to the Fx lifecycle.
func Run(lc fx.Lifecycle, cfg config.Config, e *echo.Echo, log *zap.Logger) {
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting HTTP server", zap.String("addr", addr))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return server.Shutdown(ctx)
		},
	})
}

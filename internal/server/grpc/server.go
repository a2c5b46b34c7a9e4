package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Additional-Code/logistics/internal/config"
	"github.com/Additional-Code/logistics/internal/database"
	"github.com/Additional-Code/logistics/internal/logger"
)

// Module exposes the gRPC server and lifecycle hooks to Fx. The listener only
// opens when GRPC_ENABLED is set.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer),
	fx.Invoke(Run),
)

// NewServer builds a gRPC server with logging interceptors, the standard
// health service backed by a database ping, and reflection.
func NewServer(conns *database.Connections, log *zap.Logger) *grpc.Server {
	return newServer(conns, logger.Component(log, "grpc"))
}

func newServer(db Pinger, log *zap.Logger) *grpc.Server {
	unary := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(log, "grpc unary call finished", info.FullMethod, time.Since(start), err)
		return resp, err
	}
	stream := func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(log, "grpc stream call finished", info.FullMethod, time.Since(start), err)
		return err
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary),
		grpc.ChainStreamInterceptor(stream),
	)
	grpc_health_v1.RegisterHealthServer(server, NewHealthServer(db, log))
	reflection.Register(server)
	return server
}

func logCall(log *zap.Logger, msg, method string, elapsed time.Duration, err error) {
	fields := []zap.Field{zap.String("method", method), zap.Duration("duration", elapsed)}
	if err != nil {
		log.Warn(msg, append(fields, zap.Error(err))...)
		return
	}
	log.Debug(msg, fields...)
}

// Run binds the gRPC server to the configured host/port when enabled.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, log *zap.Logger) {
	if !cfg.GRPC.Enabled {
		log.Debug("gRPC server disabled")
		return
	}
	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			log.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(ln); err != nil {
					log.Error("grpc server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping gRPC server")
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}

package grpc

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer answers grpc.health.v1 checks from the database state.
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	db  Pinger
	log *zap.Logger
}

// NewHealthServer creates a health server over db.
func NewHealthServer(db Pinger, log *zap.Logger) *HealthServer {
	return &HealthServer{db: db, log: log}
}

// Check reports SERVING while the database answers pings.
func (h *HealthServer) Check(ctx context.Context, _ *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: h.status(ctx)}, nil
}

// Watch sends the current status once.
func (h *HealthServer) Watch(_ *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	return stream.Send(&grpc_health_v1.HealthCheckResponse{Status: h.status(stream.Context())})
}

func (h *HealthServer) status(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if h.db == nil {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database health check failed", zap.Error(err))
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_SERVING
}

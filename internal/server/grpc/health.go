package grpcserver

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fundacionmisionvida7/Pagina/internal/runtime"
	logpkg "github.com/fundacionmisionvida7/Pagina/pkg/log"
)

// ServiceName is the health service name reported alongside the overall "".
const ServiceName = "palabra.Push"

// healthSvc answers grpc.health.v1 with the runtime's storage health. Check
// probes on every call; Watch streams the status refreshed by probe.
type healthSvc struct {
	*health.Server
	rt     *runtime.Runtime
	logger logpkg.Logger
}

func newHealthSvc(rt *runtime.Runtime, logger logpkg.Logger) *healthSvc {
	h := &healthSvc{Server: health.NewServer(), rt: rt, logger: logger}
	h.refresh(context.Background())
	return h
}

func (h *healthSvc) refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.rt.CheckHealth(ctx); err != nil {
		h.logger.Warn("health check failed", logpkg.Err(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(ServiceName, status)
	return status
}

func (h *healthSvc) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	h.refresh(ctx)
	return h.Server.Check(ctx, req)
}

func (h *healthSvc) probe(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.refresh(ctx)
		}
	}
}

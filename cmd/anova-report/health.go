package main

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/anova.report/internal/monitoring"
)

// pinger is satisfied by *db.DB.
type pinger interface {
	PingContext(ctx context.Context) error
}

// newHealthServer returns a health service reporting the current database
// status for the overall ("") service.
func newHealthServer(p pinger) *health.Server {
	hs := health.NewServer()
	updateHealth(context.Background(), hs, p)
	return hs
}

// updateHealth sets SERVING while the database answers a ping.
func updateHealth(ctx context.Context, hs *health.Server, p pinger) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := p.PingContext(ctx); err != nil {
		monitoring.Logf("health: database ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
}

// watchHealth refreshes the status every interval until ctx is done.
func watchHealth(ctx context.Context, hs *health.Server, p pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateHealth(ctx, hs, p)
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/anova.report/internal/api"
	"github.com/banshee-data/anova.report/internal/config"
	"github.com/banshee-data/anova.report/internal/db"
	"github.com/banshee-data/anova.report/internal/monitoring"
	"github.com/banshee-data/anova.report/internal/version"
)

// healthInterval is how often the gRPC health status is refreshed.
const healthInterval = 10 * time.Second

type serveOptions struct {
	Listen     string
	GRPCListen string
	DBPath     string
	ConfigPath string
}

// loadConfig reads the optional config file. An empty path yields the
// defaults.
func loadConfig(path string) (*config.ServerConfig, error) {
	if path == "" {
		return config.EmptyServerConfig(), nil
	}
	cfg, err := config.LoadServerConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, o serveOptions) error {
	if o.Listen == "" {
		return fmt.Errorf("%w: listen address is required", errUsage)
	}
	cfg, err := loadConfig(o.ConfigPath)
	if err != nil {
		return err
	}

	store, err := db.NewDB(o.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	srv, err := api.NewServer(store, cfg)
	if err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	mux := srv.ServeMux()
	if err := store.AttachAdminRoutes(mux); err != nil {
		return fmt.Errorf("failed to attach admin routes: %w", err)
	}

	server := &http.Server{
		Addr:              o.Listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	var stopGRPC func()

	if o.GRPCListen != "" {
		lis, err := net.Listen("tcp", o.GRPCListen)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", o.GRPCListen, err)
		}
		gs := grpc.NewServer()
		hs := newHealthServer(store)
		healthpb.RegisterHealthServer(gs, hs)

		wg.Add(1)
		go func() {
			defer wg.Done()
			watchHealth(ctx, hs, store, healthInterval)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("gRPC health service listening on %s", lis.Addr())
			if err := gs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
		stopGRPC = func() {
			hs.Shutdown()
			gs.GracefulStop()
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("%s listening on %s", version.Current(), o.Listen)
		monitoring.Debugf("significance=%v homogeneity=%s max_upload_bytes=%d",
			cfg.GetSignificance(), cfg.GetHomogeneityMode(), cfg.GetMaxUploadBytes())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Printf("shutting down")
	case runErr = <-errCh:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	cancel()
	if stopGRPC != nil {
		stopGRPC()
	}
	wg.Wait()
	return runErr
}

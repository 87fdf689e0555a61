package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"casefile/internal/casefile/handler"
	casemetrics "casefile/internal/casefile/metrics"
	"casefile/internal/casefile/service"
	"casefile/internal/platform/config"
	"casefile/internal/platform/httpserver"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/metrics"
	"casefile/pkg/platform/httputil"
)

const healthCheckTimeout = 2 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.Store.Driver, err)
	}
	defer b.Close(context.Background())

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(casemetrics.New()),
		service.WithTx(b.tx),
	}
	victimService := service.NewVictimService(b.victims, b.cases, opts...)
	caseService := service.NewCaseService(b.victims, b.cases, opts...)

	router := chi.NewRouter()
	router.Get("/health", healthHandler(b.checks))
	router.Handle("/metrics", promhttp.Handler())
	handler.New(victimService, caseService, log, metrics.New(), cfg.RequestTimeout).Register(router)

	srv := httpserver.New(cfg.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting casefile", "addr", cfg.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// healthHandler pings every configured backend concurrently.
func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		var mu sync.Mutex
		status := map[string]string{}
		// plain group: one failed component must not cancel the others
		var g errgroup.Group
		for name, check := range checks {
			g.Go(func() error {
				err := check(ctx)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					status[name] = err.Error()
					return err
				}
				status[name] = "ok"
				return nil
			})
		}

		code := http.StatusOK
		overall := "ok"
		if err := g.Wait(); err != nil {
			code = http.StatusServiceUnavailable
			overall = "unavailable"
		}
		httputil.WriteJSON(w, code, map[string]any{
			"status":     overall,
			"components": status,
		})
	}
}

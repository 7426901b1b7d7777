// Command harness runs the mock-bridge server standalone so the harness UI
// can be driven interactively while debugging test scenarios.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cocobolo/uitest/internal/bridge"
	"github.com/cocobolo/uitest/internal/config"
	"github.com/cocobolo/uitest/internal/harness"
	"github.com/cocobolo/uitest/internal/obs"
	"github.com/cocobolo/uitest/internal/ratelimit"
	"github.com/cocobolo/uitest/internal/web"
)

func main() {
	obs.Init()
	log := obs.Pkg("harness")

	cfg := config.ParseFlags()

	renderer, err := web.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		log.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	dispatcher := bridge.New()
	if cfg.ProfilePath != "" {
		profile, err := config.LoadProfile(cfg.ProfilePath)
		if err != nil {
			log.Error("failed to load profile", "error", err, "path", cfg.ProfilePath)
			os.Exit(1)
		}
		if err := profile.Apply(dispatcher); err != nil {
			log.Error("failed to apply profile", "error", err, "path", cfg.ProfilePath)
			os.Exit(1)
		}
		log.Info("applied fixture profile", "path", cfg.ProfilePath)
	}

	limiter := ratelimit.NewRateLimiter(cfg.RateLimit)
	defer limiter.Stop()

	mux := http.NewServeMux()
	srv := harness.New(dispatcher, renderer, limiter, cfg.StaticDir)
	srv.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("harness listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
	log.Info("harness stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"nodewarden/internal/config"
	"nodewarden/internal/health"
	"nodewarden/internal/middleware"
	"nodewarden/internal/observers"
	"nodewarden/internal/routes"
	"nodewarden/internal/runner"
	"nodewarden/internal/services"
)

func main() {
	configPath := flag.String("config", "nodewarden.json", "path to the config file")
	issueToken := flag.Bool("issue-token", false, "print an API token and exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zap.S().Fatalf("config: %v", err)
		}
		zap.S().Infof("config %s not found, running on defaults", *configPath)
		cfg = config.Default()
		if err := cfg.Validate(); err != nil {
			zap.S().Fatalf("config: %v", err)
		}
	}

	services.InitAuthService(cfg.JWTSecret, 24*time.Hour)

	if *issueToken {
		token, err := services.GenerateToken(cfg.NodeName)
		if err != nil {
			zap.S().Fatalf("issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	store := services.InitReportStore(cfg.NodeName)
	services.InitWebSocketHub(store)

	run := runner.New(buildObservers(cfg, store)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runnerDone := make(chan error, 1)
	go func() {
		runnerDone <- run.Run(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter()))
	r.Use(middleware.AuthMiddleware())

	routes.RegisterHealthRoutes(r)
	routes.RegisterMonitorRoutes(r)
	r.GET("/prometheus", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	go func() {
		zap.S().Infof("listening on %s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Errorf("server: %v", err)
			stop()
		}
	}()

	var exitCode int
	select {
	case err := <-runnerDone:
		if err != nil {
			zap.S().Errorf("runner: %v", err)
			exitCode = 1
		}
		stop()
	case <-ctx.Done():
		zap.S().Info("shutting down")
		if err := <-runnerDone; err != nil {
			zap.S().Errorf("runner: %v", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Warnf("shutdown: %v", err)
	}
	services.GetWebSocketHub().Stop()

	os.Exit(exitCode)
}

// buildObservers wires up every observer section enabled in the config.
func buildObservers(cfg *config.Config, sink health.Sink) []observers.Observer {
	var obs []observers.Observer
	w := cfg.Observers

	if w.CPU.Enabled {
		obs = append(obs, observers.NewCPUObserver(w.CPU, sink))
	}
	if w.Memory.Enabled {
		obs = append(obs, observers.NewMemoryObserver(w.Memory, sink))
	}
	if w.Disk.Enabled {
		obs = append(obs, observers.NewDiskObserver(w.Disk, sink))
	}
	if w.Network.Enabled {
		obs = append(obs, observers.NewNetworkObserver(w.Network, sink))
	}
	if w.Ports.Enabled {
		obs = append(obs, observers.NewPortsObserver(w.Ports, sink))
	}
	if w.FDs.Enabled {
		obs = append(obs, observers.NewFDObserver(w.FDs, sink))
	}
	if w.Certificates.Enabled {
		obs = append(obs, observers.NewCertificateObserver(w.Certificates, sink))
	}
	if w.Containers.Enabled {
		obs = append(obs, observers.NewContainersObserver(w.Containers, sink))
	}
	if w.OSInfo.Enabled {
		obs = append(obs, observers.NewOSInfoObserver(w.OSInfo, sink))
	}

	return obs
}

// API server entry point for HexaTopo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/HexaTopo/internal/bootstrap"
	"github.com/turtacn/HexaTopo/internal/config"
	"github.com/turtacn/HexaTopo/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/HexaTopo/internal/interfaces/http"
	"github.com/turtacn/HexaTopo/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, falling back to environment configuration\n", err)
		cfg, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting HexaTopo API server",
		logging.String("version", config.Version),
		logging.Int("port", cfg.Server.Port),
		logging.String("resolver_backend", cfg.Resolver.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, statErr := os.Stat(*configPath); statErr == nil {
		stopWatch, watchErr := config.Watch(*configPath, logger, func(next *config.Config) {
			logger.Warn("configuration file changed; connection settings take effect on restart",
				logging.String("path", *configPath),
				logging.String("log_level", next.Log.Level))
		})
		if watchErr != nil {
			logger.Warn("config watcher unavailable", logging.Err(watchErr))
		} else {
			defer func() { _ = stopWatch() }()
		}
	}

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", logging.Err(err))
		os.Exit(1)
	}
	defer app.Close()

	router := httpserver.NewRouter(httpserver.RouterConfig{
		TopologyHandler:  handlers.NewTopologyHandler(app.Service, logger),
		HealthHandler:    handlers.NewHealthHandler(config.Version, healthCheckers(app)...),
		Logger:           logger,
		Metrics:          app.Metrics,
		MetricsCollector: app.Collector,
		Mode:             cfg.Server.Mode,
	})
	srv := httpserver.NewServer(&cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logging.Int("port", cfg.Server.Port))
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server error", logging.Err(err))
		}
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
}

// healthCheckers builds the readiness probes for every backend the
// bootstrap actually wired.
func healthCheckers(app *bootstrap.App) []handlers.HealthChecker {
	checkers := []handlers.HealthChecker{
		handlers.CheckerFunc{
			ComponentName: "postgres",
			Fn:            func(ctx context.Context) error { return app.Pool.Ping(ctx) },
		},
	}
	if app.Cache != nil {
		checkers = append(checkers, handlers.CheckerFunc{
			ComponentName: "redis",
			Fn:            app.Cache.Ping,
		})
	}
	return checkers
}

// loadConfig reads the YAML file at path; a missing file is an error so the
// caller can fall back to environment configuration.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return config.Load(path)
}

// Command apiserver runs the structure viewer: the HTTP API and static
// frontend, the gRPC viewer service and the metrics endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/irisuniflora/VF/internal/app"
	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: VF_* environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.GRPC.Port = *grpcPort
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting structure viewer",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.Bool("grpc", cfg.GRPC.Enabled),
		logging.Int("grpc_port", cfg.GRPC.Port))

	a, err := app.New(cfg, logger, version)
	if err != nil {
		logger.Fatal("failed to assemble server", logging.Err(err))
	}
	defer a.Close()

	if *configPath != "" {
		if err := a.WatchConfig(*configPath); err != nil {
			logger.Warn("config watch unavailable", logging.Err(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("server exited with error", logging.Err(err))
		a.Close()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

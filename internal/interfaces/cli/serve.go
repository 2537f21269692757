package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/irisuniflora/VF/internal/app"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

func newServeCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the viewer HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd, cliCtx, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "reload log level and viewer settings when the config file changes")
	return cmd
}

func runServe(cmd *cobra.Command, cliCtx *CLIContext, watch bool) error {
	logger := cliCtx.Logger

	a, err := app.New(cliCtx.Config, logger, Version)
	if err != nil {
		return err
	}
	defer a.Close()

	if watch && cliCtx.ConfigPath != "" {
		if err := a.WatchConfig(cliCtx.ConfigPath); err != nil {
			logger.Warn("config watch unavailable", logging.Err(err))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting viewer server",
		logging.String("version", Version),
		logging.Int("http_port", cliCtx.Config.Server.Port),
		logging.Bool("grpc", cliCtx.Config.GRPC.Enabled),
		logging.Int("grpc_port", cliCtx.Config.GRPC.Port))
	return a.Run(ctx)
}

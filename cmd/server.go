package cmd

import (
	"github.com/spf13/cobra"
	"github.com/viktsys/varbreach/api"
	"go.uber.org/zap"
)

var serverAddr string

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  `Start the HTTP API server that runs the backtest on request and serves the summary and the VaR series as JSON.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := setup()
		if err != nil {
			fatal(logger, "failed to start", err)
		}
		defer logger.Sync()

		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serverAddr
		}

		params, err := paramsFromConfig(cfg)
		if err != nil {
			fatal(logger, "invalid backtest parameters", err)
		}

		src, closeSrc, err := openSource(cfg, logger)
		if err != nil {
			fatal(logger, "failed to open price source", err)
		}
		defer closeSrc()

		r := api.SetupRoutes(api.NewHandler(src, params, logger))

		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := r.Run(cfg.Server.Addr); err != nil {
			fatal(logger, "failed to start server", err)
		}
	},
}

func init() {
	serverCMD.Flags().StringVar(&serverAddr, "addr", ":8080", "listen address")
}

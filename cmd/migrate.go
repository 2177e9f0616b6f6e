package cmd

import (
	"github.com/spf13/cobra"
	"github.com/viktsys/varbreach/database"
	"go.uber.org/zap"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "Create the price table and the series view",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := setup()
		if err != nil {
			fatal(logger, "failed to start", err)
		}
		defer logger.Sync()

		db, err := openDB(cfg, logger)
		if err != nil {
			fatal(logger, "failed to initialize database", err)
		}
		defer database.Close(db)

		if err := database.Migrate(db, seriesQuery(cfg)); err != nil {
			fatal(logger, "failed to migrate database", err)
		}
		logger.Info("migration completed", zap.String("view", cfg.Series.View))
	},
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viktsys/varbreach/database"
	"github.com/viktsys/varbreach/ingest"
	"go.uber.org/zap"
)

var ingestCMD = &cobra.Command{
	Use:   "ingest [csv-file]",
	Short: "Load daily closing prices from a CSV file into the database",
	Long:  `Parse a trade_date;close_price CSV file and upsert every row into the daily_prices table, creating the table and the series view first.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

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

		loader := ingest.NewLoader(db, csvOptions(cfg), logger)

		logger.Info("starting ingestion", zap.String("file", path))
		n, err := loader.LoadFile(context.Background(), path)
		if err != nil {
			fatal(logger, "failed to ingest prices", err)
		}

		fmt.Printf("Ingested %d rows from %s\n", n, path)
	},
}

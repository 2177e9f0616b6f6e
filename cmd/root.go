package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viktsys/varbreach/config"
	"github.com/viktsys/varbreach/database"
	"github.com/viktsys/varbreach/ingest"
	"github.com/viktsys/varbreach/logging"
	"github.com/viktsys/varbreach/risk"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var configPath string

var rootCMD = &cobra.Command{
	Use:   "varbreach",
	Short: "Rolling historical VaR backtest",
	Long: `A CLI application that reads a daily price series from a relational view,
computes a rolling historical Value-at-Risk, flags the days where the realized
return broke through it and renders the results as charts.`,
	SilenceUsage: true,
}

func Execute() {
	err := rootCMD.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	rootCMD.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML config file")

	rootCMD.AddCommand(backtestCMD, ingestCMD, migrateCMD, serverCMD)
}

// setup loads the configuration and builds the logger every command starts from.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("config validation: %w", err)
	}
	return cfg, logger, nil
}

func seriesQuery(cfg *config.Config) database.SeriesQuery {
	return database.SeriesQuery{
		View:        cfg.Series.View,
		DateColumn:  cfg.Series.DateColumn,
		PriceColumn: cfg.Series.PriceColumn,
	}
}

func csvOptions(cfg *config.Config) ingest.Options {
	opts := ingest.DefaultOptions()
	opts.Separator = []rune(cfg.Series.CSVSeparator)[0]
	return opts
}

func paramsFromConfig(cfg *config.Config) (risk.Params, error) {
	kind, err := risk.ParseReturnKind(cfg.VaR.Returns)
	if err != nil {
		return risk.Params{}, err
	}
	p := risk.Params{
		Window:         cfg.VaR.Window,
		Confidence:     cfg.VaR.Confidence,
		Returns:        kind,
		IncludeCurrent: *cfg.VaR.IncludeCurrent,
		VolWindow:      cfg.VaR.VolWindow,
	}
	return p, p.Validate()
}

// openDB connects to the relational database named by the config. File
// sources are ignored here so the credentials are always checked.
func openDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	if !cfg.UsesDatabase() {
		dbCfg := *cfg
		dbCfg.Series.CSVPath = ""
		dbCfg.Database.SQLitePath = ""
		if err := dbCfg.Validate(); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("view", cfg.Series.View))
	return db, nil
}

// openSource picks the price source: a CSV file, a SQLite file or the
// relational database, in that order. The returned func releases it.
func openSource(cfg *config.Config, logger *zap.Logger) (database.Source, func(), error) {
	switch {
	case cfg.Series.CSVPath != "":
		logger.Info("reading prices from csv", zap.String("path", cfg.Series.CSVPath))
		return ingest.NewCSVSource(cfg.Series.CSVPath, csvOptions(cfg)), func() {}, nil

	case cfg.Database.SQLitePath != "":
		src, err := database.OpenSQLiteSource(cfg.Database.SQLitePath, seriesQuery(cfg))
		if err != nil {
			return nil, nil, err
		}
		logger.Info("reading prices from sqlite", zap.String("path", cfg.Database.SQLitePath))
		return src, func() { src.Close() }, nil
	}

	db, err := openDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := database.Close(db); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
	return database.NewGormSource(db, seriesQuery(cfg)), closeFn, nil
}

func fatal(logger *zap.Logger, msg string, err error) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
	logger.Fatal(msg, zap.Error(err))
}

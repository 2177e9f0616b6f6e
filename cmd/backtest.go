package cmd

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/viktsys/varbreach/chart"
	"github.com/viktsys/varbreach/report"
	"github.com/viktsys/varbreach/risk"
	"go.uber.org/zap"
)

var backtestFlags struct {
	window         int
	confidence     float64
	returns        string
	includeCurrent bool
	out            string
	xlsx           string
	noCharts       bool
}

var backtestCMD = &cobra.Command{
	Use:   "backtest",
	Short: "Run the rolling VaR backtest and render the charts",
	Long: `Load the price series, compute daily returns and the rolling historical VaR,
flag the breach days and print the summary. Charts are written as PNG files
and the results can optionally be saved to an xlsx workbook.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logger, err := setup()
		if err != nil {
			fatal(logger, "failed to start", err)
		}
		defer logger.Sync()

		flags := cmd.Flags()
		if flags.Changed("window") {
			cfg.VaR.Window = backtestFlags.window
		}
		if flags.Changed("confidence") {
			cfg.VaR.Confidence = backtestFlags.confidence
		}
		if flags.Changed("returns") {
			cfg.VaR.Returns = backtestFlags.returns
		}
		if flags.Changed("include-current") {
			cfg.VaR.IncludeCurrent = &backtestFlags.includeCurrent
		}
		if flags.Changed("out") {
			cfg.Output.ChartsDir = backtestFlags.out
		}
		if flags.Changed("xlsx") {
			cfg.Output.Workbook = backtestFlags.xlsx
		}

		params, err := paramsFromConfig(cfg)
		if err != nil {
			fatal(logger, "invalid backtest parameters", err)
		}

		logger = logger.With(zap.String("run_id", uuid.New().String()))
		logger.Info("starting backtest",
			zap.Int("window", params.Window),
			zap.Float64("confidence", params.Confidence),
			zap.String("returns", string(params.Returns)),
			zap.Bool("include_current", params.IncludeCurrent))

		src, closeSrc, err := openSource(cfg, logger)
		if err != nil {
			fatal(logger, "failed to open price source", err)
		}
		defer closeSrc()

		prices, err := src.LoadPrices(context.Background())
		if err != nil {
			fatal(logger, "failed to load prices", err)
		}

		res, err := risk.Run(prices, params)
		if err != nil {
			fatal(logger, "backtest failed", err)
		}
		if res.Insufficient() {
			logger.Warn("not enough returns for a single VaR estimate",
				zap.Int("returns", len(res.Returns)),
				zap.Int("window", params.Window))
		}

		if !backtestFlags.noCharts {
			paths, err := chart.NewRenderer(cfg.Output.ChartsDir, logger).RenderAll(res)
			if err != nil {
				fatal(logger, "failed to render charts", err)
			}
			logger.Info("charts written", zap.String("dir", cfg.Output.ChartsDir), zap.Strings("files", paths))
		}

		if cfg.Output.Workbook != "" {
			if err := report.WriteWorkbook(cfg.Output.Workbook, res); err != nil {
				fatal(logger, "failed to write workbook", err)
			}
			logger.Info("workbook written", zap.String("path", cfg.Output.Workbook))
		}

		if err := report.PrintSummary(os.Stdout, res); err != nil {
			fatal(logger, "failed to print summary", err)
		}
	},
}

func init() {
	f := backtestCMD.Flags()
	f.IntVar(&backtestFlags.window, "window", risk.DefaultWindow, "rolling window length in trading days")
	f.Float64Var(&backtestFlags.confidence, "confidence", risk.DefaultConfidence, "VaR confidence level")
	f.StringVar(&backtestFlags.returns, "returns", string(risk.SimpleReturns), "return definition: simple or log")
	f.BoolVar(&backtestFlags.includeCurrent, "include-current", true, "include the tested day in its own window")
	f.StringVar(&backtestFlags.out, "out", "charts", "directory for the PNG charts")
	f.StringVar(&backtestFlags.xlsx, "xlsx", "", "optional path of an xlsx workbook with the results")
	f.BoolVar(&backtestFlags.noCharts, "no-charts", false, "skip chart rendering")
}

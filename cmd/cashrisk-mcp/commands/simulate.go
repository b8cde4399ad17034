package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"cashrisk-mcp/internal/ingest"
	"cashrisk-mcp/internal/report"
	"cashrisk-mcp/internal/risk"
	"cashrisk-mcp/internal/simulation"
	"cashrisk-mcp/internal/stats"
)

var simulateFlags struct {
	dataPath         string
	days             int
	paths            int
	variationInflow  float64
	variationOutflow float64
	initialBalance   float64
	seed             int64
	meanRedraw       string
	outPath          string
	open             bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a Monte Carlo cash flow forecast and print a Markdown report",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataPath := simulateFlags.dataPath
		if dataPath == "" {
			dataPath = cfg.DataPath
		}
		series, err := ingest.ReadFile(dataPath)
		if err != nil {
			return err
		}

		hist, err := stats.Summarize(series)
		if err != nil {
			return err
		}

		req := simulation.ScenarioRequest{
			VariationInflow:  simulateFlags.variationInflow,
			VariationOutflow: simulateFlags.variationOutflow,
			Days:             simulateFlags.days,
			Paths:            simulateFlags.paths,
			MeanRedraw:       simulateFlags.meanRedraw,
			FallbackNoiseStd: cfg.FallbackNoiseStd,
		}
		if req.Days == 0 {
			req.Days = cfg.DefaultDays
		}
		if req.Paths == 0 {
			req.Paths = cfg.DefaultPaths
		}
		if cmd.Flags().Changed("initial-balance") {
			v := simulateFlags.initialBalance
			req.InitialBalance = &v
		}
		if cmd.Flags().Changed("seed") {
			v := simulateFlags.seed
			req.Seed = &v
		}

		params, err := simulation.BuildScenario(hist, req)
		if err != nil {
			return err
		}

		forecast, err := simulation.NewEngine(params).Run(context.Background())
		if err != nil {
			return err
		}
		summary, err := simulation.Analyze(forecast)
		if err != nil {
			return err
		}

		points := make([]risk.ForecastPoint, len(forecast.Days))
		for i, d := range forecast.Days {
			points[i] = risk.ForecastPoint{Date: d.Date, Balance: d.Mean}
		}
		analyzer := risk.NewAnalyzer(cfg.Thresholds)
		alerts := analyzer.DetectRisks(points, params.InitialBalance)

		md := report.RenderMarkdown(&report.Report{
			GeneratedAt: time.Now(),
			Series:      &series,
			Historical:  hist,
			Scenario:    &params,
			Forecast:    forecast,
			Summary:     &summary,
			Alerts:      alerts,
		})

		return writeReport(md, simulateFlags.outPath, simulateFlags.open)
	},
}

// writeReport sends the Markdown to stdout, a file, or the browser.
func writeReport(md, outPath string, open bool) error {
	if outPath != "" {
		if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Info().Str("path", outPath).Msg("Report written")
		if open {
			return browser.OpenFile(outPath)
		}
		return nil
	}
	if open {
		tmp := filepath.Join(os.TempDir(), fmt.Sprintf("cashrisk-report-%d.md", time.Now().Unix()))
		if err := os.WriteFile(tmp, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return browser.OpenFile(tmp)
	}
	fmt.Print(md)
	return nil
}

func init() {
	simulateCmd.Flags().StringVar(&simulateFlags.dataPath, "data", "", "path to the transactions CSV (defaults to DATA_PATH)")
	simulateCmd.Flags().IntVar(&simulateFlags.days, "days", 0, "forecast horizon in days")
	simulateCmd.Flags().IntVar(&simulateFlags.paths, "paths", 0, "number of Monte Carlo paths")
	simulateCmd.Flags().Float64Var(&simulateFlags.variationInflow, "variation-inflow", 0.1, "relative inflow mean uncertainty [0,1]")
	simulateCmd.Flags().Float64Var(&simulateFlags.variationOutflow, "variation-outflow", 0.1, "relative outflow mean uncertainty [0,1]")
	simulateCmd.Flags().Float64Var(&simulateFlags.initialBalance, "initial-balance", 0, "starting balance (defaults to last historical balance)")
	simulateCmd.Flags().Int64Var(&simulateFlags.seed, "seed", 0, "RNG seed for reproducible runs")
	simulateCmd.Flags().StringVar(&simulateFlags.meanRedraw, "mean-redraw", "", "mean redraw mode: daily or per_path")
	simulateCmd.Flags().StringVarP(&simulateFlags.outPath, "out", "o", "", "write the report to this file instead of stdout")
	simulateCmd.Flags().BoolVar(&simulateFlags.open, "open", false, "open the report in the default browser")
	rootCmd.AddCommand(simulateCmd)
}

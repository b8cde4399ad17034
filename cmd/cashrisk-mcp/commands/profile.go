package commands

import (
	"time"

	"github.com/spf13/cobra"

	"cashrisk-mcp/internal/ingest"
	"cashrisk-mcp/internal/report"
	"cashrisk-mcp/internal/risk"
	"cashrisk-mcp/internal/stats"
)

var profileFlags struct {
	dataPath string
	outPath  string
	open     bool
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile the historical series and print recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataPath := profileFlags.dataPath
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

		analyzer := risk.NewAnalyzer(cfg.Thresholds)
		profile, err := analyzer.ProfileHistory(series)
		if err != nil {
			return err
		}
		recs := analyzer.Recommend(nil, profile)

		md := report.RenderMarkdown(&report.Report{
			GeneratedAt:     time.Now(),
			Series:          &series,
			Historical:      hist,
			Profile:         profile,
			Recommendations: recs,
		})
		return writeReport(md, profileFlags.outPath, profileFlags.open)
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileFlags.dataPath, "data", "", "path to the transactions CSV (defaults to DATA_PATH)")
	profileCmd.Flags().StringVarP(&profileFlags.outPath, "out", "o", "", "write the report to this file instead of stdout")
	profileCmd.Flags().BoolVar(&profileFlags.open, "open", false, "open the report in the default browser")
	rootCmd.AddCommand(profileCmd)
}

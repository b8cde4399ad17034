// Package report renders analysis results as Markdown for the CLI surface.
package report

import (
	"fmt"
	"strings"
	"time"

	"cashrisk-mcp/internal/ledger"
	"cashrisk-mcp/internal/risk"
	"cashrisk-mcp/internal/simulation"
	"cashrisk-mcp/internal/stats"
	"cashrisk-mcp/internal/visuals"
)

const dateLayout = "2006-01-02"

// Report bundles everything a single analysis run produced. Sections are
// optional; nil sections are omitted from the output.
type Report struct {
	GeneratedAt     time.Time
	Series          *ledger.Series
	Historical      *stats.Historical
	Scenario        *simulation.Parameters
	Forecast        *simulation.Forecast
	Summary         *simulation.Summary
	Alerts          []risk.Alert
	Profile         *risk.Profile
	Recommendations []risk.Recommendation
}

// RenderMarkdown renders the report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Cash Flow Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	if r.Historical != nil {
		writeHistorical(&sb, r.Historical)
	}
	if r.Series != nil {
		if chart := visuals.BalanceChart(*r.Series); chart != "" {
			sb.WriteString(chart + "\n\n")
		}
	}
	if r.Scenario != nil {
		writeScenario(&sb, r.Scenario)
	}
	if r.Summary != nil {
		writeSummary(&sb, r.Summary)
	}
	if r.Forecast != nil {
		writeForecast(&sb, r.Forecast)
	}
	writeAlerts(&sb, r.Alerts)
	if r.Profile != nil {
		writeProfile(&sb, r.Profile)
	}
	writeRecommendations(&sb, r.Recommendations)

	return sb.String()
}

func writeHistorical(sb *strings.Builder, h *stats.Historical) {
	sb.WriteString("## Historical Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Period | %s to %s |\n", h.FirstDate.Format(dateLayout), h.LastDate.Format(dateLayout)))
	sb.WriteString(fmt.Sprintf("| Days | %d |\n", h.DayCount))
	if h.Inflow != nil {
		sb.WriteString(fmt.Sprintf("| Inflow mean / std | %.2f / %.2f |\n", h.Inflow.Mean, h.Inflow.Std))
	}
	if h.Outflow != nil {
		sb.WriteString(fmt.Sprintf("| Outflow mean / std | %.2f / %.2f |\n", h.Outflow.Mean, h.Outflow.Std))
	}
	sb.WriteString(fmt.Sprintf("| Net flow mean / std | %.2f / %.2f |\n", h.NetFlow.Mean, h.NetFlow.Std))
	if h.LastBalance != nil {
		sb.WriteString(fmt.Sprintf("| Last balance | %.2f |\n", *h.LastBalance))
	}
	sb.WriteString("\n")
}

func writeScenario(sb *strings.Builder, p *simulation.Parameters) {
	sb.WriteString("## Scenario\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Horizon (days) | %d |\n", p.Days))
	sb.WriteString(fmt.Sprintf("| Paths | %d |\n", p.Paths))
	sb.WriteString(fmt.Sprintf("| Initial balance | %.2f |\n", p.InitialBalance))
	if p.Inflow != nil {
		sb.WriteString(fmt.Sprintf("| Inflow mean band | [%.2f, %.2f] |\n", p.Inflow.MeanMin, p.Inflow.MeanMax))
	}
	if p.Outflow != nil {
		sb.WriteString(fmt.Sprintf("| Outflow mean band | [%.2f, %.2f] |\n", p.Outflow.MeanMin, p.Outflow.MeanMax))
	}
	if p.NetFlow != nil {
		sb.WriteString(fmt.Sprintf("| Net flow mean band | [%.2f, %.2f] |\n", p.NetFlow.MeanMin, p.NetFlow.MeanMax))
	}
	if p.Seed != nil {
		sb.WriteString(fmt.Sprintf("| Seed | %d |\n", *p.Seed))
	}
	sb.WriteString("\n")
}

func writeSummary(sb *strings.Builder, s *simulation.Summary) {
	sb.WriteString("## Forecast Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| P(final balance < 0) | %.1f%% |\n", s.ProbNegativeFinal*100))
	sb.WriteString(fmt.Sprintf("| P(negative on any day) | %.1f%% |\n", s.ProbNegativeAny*100))
	sb.WriteString(fmt.Sprintf("| Riskiest day | %s |\n", s.DayOfMaxProbNegative.Format(dateLayout)))
	sb.WriteString(fmt.Sprintf("| Final balance P5 / P50 / P95 | %.2f / %.2f / %.2f |\n", s.P5Final, s.P50Final, s.P95Final))
	sb.WriteString("\n")
}

func writeForecast(sb *strings.Builder, f *simulation.Forecast) {
	sb.WriteString("## Daily Forecast\n\n")
	if len(f.Days) == 0 {
		sb.WriteString("No forecast days available.\n\n")
		return
	}
	sb.WriteString("| Date | P5 | P25 | P50 | P75 | P95 | P(<0) |\n")
	sb.WriteString("|------|----|----|-----|-----|-----|-------|\n")
	for _, d := range f.Days {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f | %.2f | %.1f%% |\n",
			d.Date.Format(dateLayout), d.P5, d.P25, d.P50, d.P75, d.P95, d.ProbNegative*100))
	}
	sb.WriteString("\n")
	if chart := visuals.ForecastChart(f.Days); chart != "" {
		sb.WriteString(chart + "\n\n")
	}
}

func writeAlerts(sb *strings.Builder, alerts []risk.Alert) {
	sb.WriteString("## Alerts\n\n")
	if len(alerts) == 0 {
		sb.WriteString("No alerts detected.\n\n")
		return
	}
	sb.WriteString("| Severity | Type | Date | Message |\n")
	sb.WriteString("|----------|------|------|--------|\n")
	for _, a := range alerts {
		date := ""
		if !a.Date.IsZero() {
			date = a.Date.Format(dateLayout)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", a.Severity, a.Type, date, a.Message))
	}
	sb.WriteString("\n")
}

func writeProfile(sb *strings.Builder, p *risk.Profile) {
	sb.WriteString("## Historical Risk Profile\n\n")
	sb.WriteString(fmt.Sprintf("Risk score: **%.0f / 100**\n\n", p.Score))
	sb.WriteString("| Dimension | Classification |\n")
	sb.WriteString("|-----------|----------------|\n")
	sb.WriteString(fmt.Sprintf("| Volatility | %s |\n", p.Volatility.Class))
	sb.WriteString(fmt.Sprintf("| Stress | %.1f%% of days below threshold |\n", p.Stress.PctInStress))
	if p.Concentration.Clients != nil {
		sb.WriteString(fmt.Sprintf("| Client concentration | %s (top1 %.1f%%) |\n",
			p.Concentration.Clients.Risk, p.Concentration.Clients.Top1Share*100))
	}
	sb.WriteString(fmt.Sprintf("| Liquidity | %s |\n", p.Liquidity.Class))
	sb.WriteString("\n")
}

func writeRecommendations(sb *strings.Builder, recs []risk.Recommendation) {
	if len(recs) == 0 {
		return
	}
	sb.WriteString("## Recommendations\n\n")
	for _, r := range recs {
		sb.WriteString(fmt.Sprintf("### %s (%s)\n\n", r.Title, r.Priority))
		sb.WriteString(r.Description + "\n\n")
		for _, a := range r.Actions {
			sb.WriteString(fmt.Sprintf("- %s\n", a))
		}
		sb.WriteString("\n")
	}
}

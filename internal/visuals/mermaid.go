// Package visuals renders Mermaid charts for embedding in Markdown reports.
package visuals

import (
	"fmt"
	"math"
	"strings"

	"cashrisk-mcp/internal/ledger"
	"cashrisk-mcp/internal/simulation"
)

const maxChartPoints = 60

// ForecastChart creates a Mermaid xychart-beta of the forecast band: the p5,
// p50 and p95 balance lines over the horizon.
func ForecastChart(days []simulation.DayForecast) string {
	if len(days) == 0 {
		return ""
	}
	days = thinForecast(days)

	var labels, p5s, p50s, p95s []string
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, d := range days {
		labels = append(labels, d.Date.Format("01-02"))
		p5s = append(p5s, fmt.Sprintf("%.0f", d.P5))
		p50s = append(p50s, fmt.Sprintf("%.0f", d.P50))
		p95s = append(p95s, fmt.Sprintf("%.0f", d.P95))
		lo = math.Min(lo, d.P5)
		hi = math.Max(hi, d.P95)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Forecast Balance Band (p5 / p50 / p95)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Balance\" %d --> %d\n", axisFloor(lo), axisCeil(hi)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p5s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p50s, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(p95s, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// BalanceChart creates a Mermaid xychart-beta of the historical balance track.
func BalanceChart(series ledger.Series) string {
	if series.Empty() || !series.HasBalance {
		return ""
	}
	rows := thinRows(series.Rows)

	var labels, values []string
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range rows {
		labels = append(labels, r.Date.Format("01-02"))
		values = append(values, fmt.Sprintf("%.0f", r.Balance))
		lo = math.Min(lo, r.Balance)
		hi = math.Max(hi, r.Balance)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Historical Balance\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Balance\" %d --> %d\n", axisFloor(lo), axisCeil(hi)))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// thinForecast keeps charts readable by sampling long horizons down to
// maxChartPoints, always retaining the last day.
func thinForecast(days []simulation.DayForecast) []simulation.DayForecast {
	if len(days) <= maxChartPoints {
		return days
	}
	step := (len(days) + maxChartPoints - 1) / maxChartPoints
	var out []simulation.DayForecast
	for i := 0; i < len(days); i += step {
		out = append(out, days[i])
	}
	if !out[len(out)-1].Date.Equal(days[len(days)-1].Date) {
		out = append(out, days[len(days)-1])
	}
	return out
}

func thinRows(rows []ledger.Transaction) []ledger.Transaction {
	if len(rows) <= maxChartPoints {
		return rows
	}
	step := (len(rows) + maxChartPoints - 1) / maxChartPoints
	var out []ledger.Transaction
	for i := 0; i < len(rows); i += step {
		out = append(out, rows[i])
	}
	if !out[len(out)-1].Date.Equal(rows[len(rows)-1].Date) {
		out = append(out, rows[len(rows)-1])
	}
	return out
}

func axisFloor(v float64) int {
	if v > 0 {
		return 0
	}
	return int(math.Floor(v * 1.1))
}

func axisCeil(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Ceil(v * 1.1))
}

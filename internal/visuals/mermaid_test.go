package visuals

import (
	"strings"
	"testing"
	"time"

	"cashrisk-mcp/internal/ledger"
	"cashrisk-mcp/internal/simulation"
)

func TestForecastChart(t *testing.T) {
	days := []simulation.DayForecast{
		{Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), P5: 900, P50: 1000, P95: 1100},
		{Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), P5: 850, P50: 1010, P95: 1200},
	}

	chart := ForecastChart(days)
	if !strings.HasPrefix(chart, "```mermaid\nxychart-beta") {
		t.Fatalf("unexpected chart prefix: %q", chart[:40])
	}
	if strings.Count(chart, "line [") != 3 {
		t.Errorf("expected 3 line series, got:\n%s", chart)
	}
	if !strings.Contains(chart, "04-01") || !strings.Contains(chart, "04-02") {
		t.Error("expected date labels on the x-axis")
	}
}

func TestForecastChart_Empty(t *testing.T) {
	if chart := ForecastChart(nil); chart != "" {
		t.Errorf("expected empty chart, got %q", chart)
	}
}

func TestForecastChart_ThinsLongHorizons(t *testing.T) {
	days := make([]simulation.DayForecast, 365)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range days {
		days[i] = simulation.DayForecast{Date: start.AddDate(0, 0, i), P50: float64(i)}
	}

	chart := ForecastChart(days)
	labels := strings.Count(strings.Split(chart, "\n")[3], ",") + 1
	if labels > maxChartPoints+1 {
		t.Errorf("chart has %d labels, want at most %d", labels, maxChartPoints+1)
	}
	if !strings.Contains(chart, "12-31") {
		t.Error("thinning must retain the final day")
	}
}

func TestBalanceChart_RequiresBalanceTrack(t *testing.T) {
	series := ledger.NewSeries([]ledger.Transaction{
		{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), NetFlow: 10},
	}, false, false)
	if chart := BalanceChart(series); chart != "" {
		t.Errorf("expected empty chart without balances, got %q", chart)
	}
}

func TestBalanceChart(t *testing.T) {
	series := ledger.NewSeries([]ledger.Transaction{
		{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Balance: -100},
		{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Balance: 500},
	}, false, true)

	chart := BalanceChart(series)
	if !strings.Contains(chart, "Historical Balance") {
		t.Error("expected chart title")
	}
	if !strings.Contains(chart, "-110") {
		t.Error("y-axis floor should extend below the minimum balance")
	}
}

package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashrisk-mcp/internal/config"
	"cashrisk-mcp/internal/risk"
	"cashrisk-mcp/internal/simulation"
)

const testCSV = `date,inflow,outflow,balance,client_id,due_date,invoice_amount
2025-01-01,1000,800,1200,CL-001,2025-01-15,1000
2025-01-02,1100,900,1400,CL-002,2025-01-16,1100
2025-01-03,900,850,1450,CL-001,2025-01-17,900
2025-01-04,1200,800,1850,CL-003,2025-01-18,1200
2025-01-05,1000,900,1950,CL-001,2025-01-19,1000
`

func testServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tx.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))

	return NewServer(config.AppConfig{
		DataPath:         path,
		Thresholds:       risk.DefaultThresholds(),
		FallbackNoiseStd: 100,
		DefaultDays:      10,
		DefaultPaths:     50,
	})
}

func TestLoadSeries_CachesByPath(t *testing.T) {
	s := testServer(t)

	first, err := s.loadSeries("")
	require.NoError(t, err)
	require.Len(t, first.Rows, 5)

	// A second load for the same path hits the cache even if the file vanishes.
	require.NoError(t, os.Remove(s.cfg.DataPath))
	second, err := s.loadSeries("")
	require.NoError(t, err)
	assert.Equal(t, first.Rows, second.Rows)
}

func TestLoadSeries_NoPathConfigured(t *testing.T) {
	s := NewServer(config.AppConfig{})
	_, err := s.loadSeries("")
	require.Error(t, err)
}

func TestHandleHistoricalStats(t *testing.T) {
	s := testServer(t)

	_, hist, err := s.handleHistoricalStats(context.Background(), nil, dataInput{})
	require.NoError(t, err)
	require.NotNil(t, hist)
	assert.Equal(t, 1040.0, hist.Inflow.Mean)
	require.NotNil(t, hist.LastBalance)
	assert.Equal(t, 1950.0, *hist.LastBalance)
}

func TestHandleBuildScenario_Defaults(t *testing.T) {
	s := testServer(t)

	_, params, err := s.handleBuildScenario(context.Background(), nil, scenarioInput{
		VariationInflow:  0.1,
		VariationOutflow: 0.1,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, params.Days, "horizon falls back to the configured default")
	assert.Equal(t, 50, params.Paths)
	assert.Equal(t, 1950.0, params.InitialBalance)
	require.NotNil(t, params.Inflow)
	assert.Equal(t, simulation.MeanRedrawDaily, params.MeanRedraw)
}

func TestHandleRunSimulation_Deterministic(t *testing.T) {
	s := testServer(t)
	seed := int64(42)
	in := scenarioInput{VariationInflow: 0.1, VariationOutflow: 0.1, Days: 5, Paths: 40, Seed: &seed}

	_, out1, err := s.handleRunSimulation(context.Background(), nil, in)
	require.NoError(t, err)
	_, out2, err := s.handleRunSimulation(context.Background(), nil, in)
	require.NoError(t, err)

	require.Len(t, out1.Forecast, 5)
	assert.Equal(t, out1.Forecast, out2.Forecast)
	assert.Equal(t, out1.Summary, out2.Summary)
	assert.Equal(t, out1.Forecast[4].P5, out1.Summary.P5Final)
}

func TestHandleDetectRisks(t *testing.T) {
	s := testServer(t)
	seed := int64(7)

	_, out, err := s.handleDetectRisks(context.Background(), nil, scenarioInput{
		VariationInflow:  0.1,
		VariationOutflow: 0.1,
		Days:             10,
		Paths:            50,
		Seed:             &seed,
	})
	require.NoError(t, err)
	assert.Equal(t, len(out.Alerts), out.Total)
}

func TestHandleProfileHistory(t *testing.T) {
	s := testServer(t)

	_, profile, err := s.handleProfileHistory(context.Background(), nil, dataInput{})
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.GreaterOrEqual(t, profile.Score, 0.0)
	assert.LessOrEqual(t, profile.Score, 100.0)
	require.NotNil(t, profile.Concentration.Clients)
	assert.Equal(t, 3, profile.Concentration.Clients.Total)
}

func TestHandleDelinquency(t *testing.T) {
	s := testServer(t)

	_, report, err := s.handleDelinquency(context.Background(), nil, delinquencyInput{
		ReferenceDate: "2025-03-01",
	})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 3, report.ClientsInArrears, "all invoices unpaid and past due")

	_, _, err = s.handleDelinquency(context.Background(), nil, delinquencyInput{ReferenceDate: "01/03/2025"})
	require.Error(t, err, "reference date must be ISO formatted")
}

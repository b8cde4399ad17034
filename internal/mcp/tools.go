package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"cashrisk-mcp/internal/ledger"
	"cashrisk-mcp/internal/risk"
	"cashrisk-mcp/internal/simulation"
	"cashrisk-mcp/internal/stats"
)

// dataInput selects the transaction series a tool operates on.
type dataInput struct {
	DataPath string `json:"data_path,omitempty" jsonschema:"Optional path to a canonical transactions CSV. Defaults to the configured DATA_PATH."`
}

// scenarioInput carries the simulation knobs shared by the forecasting tools.
type scenarioInput struct {
	DataPath         string   `json:"data_path,omitempty" jsonschema:"Optional path to a canonical transactions CSV. Defaults to the configured DATA_PATH."`
	VariationInflow  float64  `json:"variation_inflow" jsonschema:"Relative uncertainty of the inflow mean, between 0 and 1 (e.g. 0.2 for +/-20%)."`
	VariationOutflow float64  `json:"variation_outflow" jsonschema:"Relative uncertainty of the outflow mean, between 0 and 1."`
	Days             int      `json:"days,omitempty" jsonschema:"Forecast horizon in days. Defaults to the configured horizon (30)."`
	Paths            int      `json:"num_paths,omitempty" jsonschema:"Number of Monte Carlo paths. Defaults to the configured count (1000)."`
	InitialBalance   *float64 `json:"initial_balance,omitempty" jsonschema:"Starting balance. Defaults to the last historical balance."`
	Seed             *int64   `json:"seed,omitempty" jsonschema:"RNG seed for reproducible runs. Same seed and parameters give identical results."`
	MeanRedraw       string   `json:"mean_redraw,omitempty" jsonschema:"When the scenario mean is redrawn: 'daily' (default) or 'per_path'."`
}

type delinquencyInput struct {
	DataPath      string `json:"data_path,omitempty" jsonschema:"Optional path to a canonical transactions CSV. Defaults to the configured DATA_PATH."`
	ReferenceDate string `json:"reference_date,omitempty" jsonschema:"Reference date (YYYY-MM-DD) for overdue-day counting. Defaults to today."`
}

type simulationOutput struct {
	Scenario simulation.Parameters    `json:"scenario"`
	Forecast []simulation.DayForecast `json:"forecast"`
	Summary  simulation.Summary       `json:"summary"`
}

type alertsOutput struct {
	Alerts []risk.Alert `json:"alertas"`
	Total  int          `json:"total"`
}

type recommendationsOutput struct {
	Recommendations []risk.Recommendation `json:"recomendacoes"`
}

func (s *Server) registerTools(srv *sdk.Server) error {
	scenarioSchema, err := jsonschema.For[scenarioInput](nil)
	if err != nil {
		return fmt.Errorf("build scenario input schema: %w", err)
	}
	scenarioSchema.Properties["mean_redraw"].Enum = []any{simulation.MeanRedrawDaily, simulation.MeanRedrawPerPath}

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "extract_historical_stats",
		Description: "Summarize the historical cash flow series: mean, std, min and max of inflows, outflows and net flows, plus the covered period and the last known balance.",
	}, s.handleHistoricalStats)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "build_scenario",
		Description: "Translate historical statistics and relative variation knobs into bounded simulation parameters without running the simulation. Use it to inspect the scenario an agent is about to simulate.",
		InputSchema: scenarioSchema,
	}, s.handleBuildScenario)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "run_simulation",
		Description: "Run a Monte Carlo cash flow simulation and return the daily percentile bands (p5..p95), the probability of a negative balance per day, and the final-day summary. Pass a seed for reproducible results.",
		InputSchema: scenarioSchema,
	}, s.handleRunSimulation)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "analyze_forecast",
		Description: "Run the simulation and return only the decision summary: probability of ending negative, probability of going negative on any day, the riskiest day, and the final-day p5/p50/p95.",
		InputSchema: scenarioSchema,
	}, s.handleAnalyzeForecast)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "detect_risks",
		Description: "Simulate the horizon and scan the expected balance trajectory for risk conditions: negative balance, low balance, sharp drops, high volatility and sustained negative trend. Alerts come back ordered by severity.",
		InputSchema: scenarioSchema,
	}, s.handleDetectRisks)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "profile_history",
		Description: "Score the historical series on volatility, stress episodes, revenue concentration and liquidity, aggregated into a 0-100 risk score.",
	}, s.handleProfileHistory)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "recommend",
		Description: "Combine detected risk alerts with the historical risk profile into prioritized, actionable recommendations.",
		InputSchema: scenarioSchema,
	}, s.handleRecommend)

	sdk.AddTool(srv, &sdk.Tool{
		Name:        "analyze_delinquency",
		Description: "Analyze overdue invoices per client: totals, days late, per-client risk classification and the top high-risk clients. Requires invoice columns in the data.",
	}, s.handleDelinquency)

	return nil
}

func (s *Server) handleHistoricalStats(ctx context.Context, req *sdk.CallToolRequest, in dataInput) (*sdk.CallToolResult, *stats.Historical, error) {
	series, err := s.loadSeries(in.DataPath)
	if err != nil {
		return nil, nil, err
	}
	hist, err := stats.Summarize(series)
	if err != nil {
		return nil, nil, err
	}
	return nil, hist, nil
}

func (s *Server) handleBuildScenario(ctx context.Context, req *sdk.CallToolRequest, in scenarioInput) (*sdk.CallToolResult, simulation.Parameters, error) {
	_, params, err := s.buildScenario(in)
	return nil, params, err
}

func (s *Server) handleRunSimulation(ctx context.Context, req *sdk.CallToolRequest, in scenarioInput) (*sdk.CallToolResult, simulationOutput, error) {
	params, forecast, err := s.simulate(ctx, in)
	if err != nil {
		return nil, simulationOutput{}, err
	}
	summary, err := simulation.Analyze(forecast)
	if err != nil {
		return nil, simulationOutput{}, err
	}
	return nil, simulationOutput{Scenario: params, Forecast: forecast.Days, Summary: summary}, nil
}

func (s *Server) handleAnalyzeForecast(ctx context.Context, req *sdk.CallToolRequest, in scenarioInput) (*sdk.CallToolResult, simulation.Summary, error) {
	_, forecast, err := s.simulate(ctx, in)
	if err != nil {
		return nil, simulation.Summary{}, err
	}
	summary, err := simulation.Analyze(forecast)
	return nil, summary, err
}

func (s *Server) handleDetectRisks(ctx context.Context, req *sdk.CallToolRequest, in scenarioInput) (*sdk.CallToolResult, alertsOutput, error) {
	alerts, _, err := s.detect(ctx, in)
	if err != nil {
		return nil, alertsOutput{}, err
	}
	return nil, alertsOutput{Alerts: alerts, Total: len(alerts)}, nil
}

func (s *Server) handleProfileHistory(ctx context.Context, req *sdk.CallToolRequest, in dataInput) (*sdk.CallToolResult, *risk.Profile, error) {
	series, err := s.loadSeries(in.DataPath)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.analyzer.ProfileHistory(series)
	if err != nil {
		return nil, nil, err
	}
	return nil, profile, nil
}

func (s *Server) handleRecommend(ctx context.Context, req *sdk.CallToolRequest, in scenarioInput) (*sdk.CallToolResult, recommendationsOutput, error) {
	alerts, series, err := s.detect(ctx, in)
	if err != nil {
		return nil, recommendationsOutput{}, err
	}
	profile, err := s.analyzer.ProfileHistory(series)
	if err != nil {
		return nil, recommendationsOutput{}, err
	}
	recs := s.analyzer.Recommend(alerts, profile)
	return nil, recommendationsOutput{Recommendations: recs}, nil
}

func (s *Server) handleDelinquency(ctx context.Context, req *sdk.CallToolRequest, in delinquencyInput) (*sdk.CallToolResult, *risk.DelinquencyReport, error) {
	series, err := s.loadSeries(in.DataPath)
	if err != nil {
		return nil, nil, err
	}
	refDate := time.Now()
	if in.ReferenceDate != "" {
		refDate, err = time.Parse("2006-01-02", in.ReferenceDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid reference_date: %w", err)
		}
	}
	report, err := risk.AnalyzeDelinquency(series, refDate)
	if err != nil {
		return nil, nil, err
	}
	return nil, report, nil
}

// buildScenario resolves defaults and produces the simulation parameters for a
// tool request.
func (s *Server) buildScenario(in scenarioInput) (ledger.Series, simulation.Parameters, error) {
	series, err := s.loadSeries(in.DataPath)
	if err != nil {
		return ledger.Series{}, simulation.Parameters{}, err
	}
	hist, err := stats.Summarize(series)
	if err != nil {
		return ledger.Series{}, simulation.Parameters{}, err
	}

	reqParams := simulation.ScenarioRequest{
		VariationInflow:  in.VariationInflow,
		VariationOutflow: in.VariationOutflow,
		Days:             in.Days,
		Paths:            in.Paths,
		InitialBalance:   in.InitialBalance,
		Seed:             in.Seed,
		MeanRedraw:       in.MeanRedraw,
		FallbackNoiseStd: s.cfg.FallbackNoiseStd,
	}
	if reqParams.Days == 0 {
		reqParams.Days = s.cfg.DefaultDays
	}
	if reqParams.Paths == 0 {
		reqParams.Paths = s.cfg.DefaultPaths
	}

	params, err := simulation.BuildScenario(hist, reqParams)
	return series, params, err
}

func (s *Server) simulate(ctx context.Context, in scenarioInput) (simulation.Parameters, *simulation.Forecast, error) {
	_, params, err := s.buildScenario(in)
	if err != nil {
		return simulation.Parameters{}, nil, err
	}
	forecast, err := simulation.NewEngine(params).Run(ctx)
	if err != nil {
		return simulation.Parameters{}, nil, err
	}
	return params, forecast, nil
}

// detect runs the simulation and scans the expected balance trajectory.
func (s *Server) detect(ctx context.Context, in scenarioInput) ([]risk.Alert, ledger.Series, error) {
	series, params, err := s.buildScenario(in)
	if err != nil {
		return nil, ledger.Series{}, err
	}
	forecast, err := simulation.NewEngine(params).Run(ctx)
	if err != nil {
		return nil, ledger.Series{}, err
	}

	points := make([]risk.ForecastPoint, len(forecast.Days))
	for i, d := range forecast.Days {
		points[i] = risk.ForecastPoint{Date: d.Date, Balance: d.Mean}
	}
	return s.analyzer.DetectRisks(points, params.InitialBalance), series, nil
}

package simulation

import (
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"cashrisk-mcp/internal/ledger"
	"cashrisk-mcp/internal/stats"
)

// Mean redraw modes. The original engine resamples the scenario mean for every
// (path, day) pair, which widens the variance versus a textbook Monte Carlo where
// the scenario is fixed per path. Both behaviors are kept selectable.
const (
	MeanRedrawDaily   = "daily"
	MeanRedrawPerPath = "per_path"
)

// DefaultFallbackNoiseStd is the width of the zero-mean noise distribution used
// when the history provides no distributional basis at all. It is a degenerate
// fallback, not a tuned parameter.
const DefaultFallbackNoiseStd = 100.0

// minStdShare floors the standard deviation at 5% of the absolute mean so a
// near-constant history still produces a non-degenerate simulation.
const minStdShare = 0.05

// Distribution describes one simulated flow: the scenario mean is drawn uniformly
// from [MeanMin, MeanMax], daily values normally around it with StdFloor.
type Distribution struct {
	MeanMin  float64 `json:"mean_min"`
	MeanMax  float64 `json:"mean_max"`
	StdFloor float64 `json:"std_floor"`
}

// Parameters is a fully resolved simulation scenario. Either the Inflow/Outflow
// pair or NetFlow is set, never both.
type Parameters struct {
	Days           int           `json:"days"`
	Paths          int           `json:"num_paths"`
	InitialBalance float64       `json:"initial_balance"`
	StartDate      time.Time     `json:"start_date"`
	Inflow         *Distribution `json:"inflow,omitempty"`
	Outflow        *Distribution `json:"outflow,omitempty"`
	NetFlow        *Distribution `json:"net_flow,omitempty"`
	Seed           *int64        `json:"seed,omitempty"`
	MeanRedraw     string        `json:"mean_redraw"`
}

// ScenarioRequest carries the user knobs for BuildScenario. Field names are part
// of the external contract.
type ScenarioRequest struct {
	VariationInflow  float64  `json:"variation_inflow"`
	VariationOutflow float64  `json:"variation_outflow"`
	Days             int      `json:"days"`
	Paths            int      `json:"num_paths"`
	InitialBalance   *float64 `json:"initial_balance,omitempty"`
	Seed             *int64   `json:"seed,omitempty"`
	MeanRedraw       string   `json:"mean_redraw,omitempty"`
	FallbackNoiseStd float64  `json:"fallback_noise_std,omitempty"`
}

// BuildScenario converts historical statistics and user variation knobs into
// bounded simulation parameters. Degenerate history (zero std, or no flow basis
// at all) is absorbed here via the documented floors and fallbacks and never
// surfaced as an error.
func BuildScenario(hist *stats.Historical, req ScenarioRequest) (Parameters, error) {
	if hist == nil {
		return Parameters{}, ledger.NewValidationError("stats", "historical statistics are required")
	}
	if req.Days <= 0 {
		return Parameters{}, ledger.NewValidationError("days", "must be positive")
	}
	if req.Paths <= 0 {
		return Parameters{}, ledger.NewValidationError("num_paths", "must be positive")
	}
	if req.VariationInflow < 0 || req.VariationInflow > 1 {
		return Parameters{}, ledger.NewValidationError("variation_inflow", "must be in [0, 1]")
	}
	if req.VariationOutflow < 0 || req.VariationOutflow > 1 {
		return Parameters{}, ledger.NewValidationError("variation_outflow", "must be in [0, 1]")
	}

	redraw := req.MeanRedraw
	switch redraw {
	case "":
		redraw = MeanRedrawDaily
	case MeanRedrawDaily, MeanRedrawPerPath:
	default:
		return Parameters{}, ledger.NewValidationError("mean_redraw", "must be daily or per_path")
	}

	p := Parameters{
		Days:       req.Days,
		Paths:      req.Paths,
		StartDate:  hist.LastDate.AddDate(0, 0, 1),
		Seed:       req.Seed,
		MeanRedraw: redraw,
	}

	switch {
	case req.InitialBalance != nil:
		p.InitialBalance = *req.InitialBalance
	case hist.LastBalance != nil:
		p.InitialBalance = *hist.LastBalance
	}

	switch {
	case hist.Inflow != nil && hist.Outflow != nil:
		p.Inflow = boundedDistribution(*hist.Inflow, req.VariationInflow)
		p.Outflow = boundedDistribution(*hist.Outflow, req.VariationOutflow)
	case hist.NetFlow.Mean != 0 || hist.NetFlow.Std > 0:
		// Net-flow history only: variation_inflow doubles as the shared knob.
		p.NetFlow = boundedDistribution(hist.NetFlow, req.VariationInflow)
	default:
		noise := req.FallbackNoiseStd
		if noise <= 0 {
			noise = DefaultFallbackNoiseStd
		}
		p.NetFlow = &Distribution{StdFloor: noise}
		log.Warn().
			Float64("noise_std", noise).
			Msg("No distributional basis in history; simulating zero-mean noise")
	}

	return p, nil
}

func boundedDistribution(fs stats.FlowStats, variation float64) *Distribution {
	lo := fs.Mean * (1 - variation)
	hi := fs.Mean * (1 + variation)
	// A negative mean flips the band.
	if lo > hi {
		lo, hi = hi, lo
	}
	return &Distribution{
		MeanMin:  lo,
		MeanMax:  hi,
		StdFloor: math.Max(fs.Std, math.Abs(fs.Mean)*minStdShare),
	}
}

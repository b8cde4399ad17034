package simulation

import (
	"time"

	"cashrisk-mcp/internal/ledger"
)

// Summary reduces an aggregated forecast to its scalar risk indicators. Field
// names are part of the external contract.
type Summary struct {
	ProbNegativeFinal    float64   `json:"prob_negative_final"`
	ProbNegativeAny      float64   `json:"prob_negative_any"`
	DayOfMaxProbNegative time.Time `json:"day_of_max_prob_negative"`
	P5Final              float64   `json:"p5_final"`
	P50Final             float64   `json:"p50_final"`
	P95Final             float64   `json:"p95_final"`
}

// Analyze is a pure reduction over the forecast: no randomness, no failure modes
// beyond empty input.
func Analyze(forecast *Forecast) (Summary, error) {
	if forecast == nil || len(forecast.Days) == 0 {
		return Summary{}, ledger.NewValidationError("forecast", "at least one forecast day is required")
	}

	final := forecast.Days[len(forecast.Days)-1]
	s := Summary{
		ProbNegativeFinal: final.ProbNegative,
		P5Final:           final.P5,
		P50Final:          final.P50,
		P95Final:          final.P95,
	}

	// First occurrence wins on ties.
	for _, d := range forecast.Days {
		if d.ProbNegative > s.ProbNegativeAny {
			s.ProbNegativeAny = d.ProbNegative
			s.DayOfMaxProbNegative = d.Date
		}
	}
	if s.DayOfMaxProbNegative.IsZero() {
		s.DayOfMaxProbNegative = forecast.Days[0].Date
	}

	return s, nil
}

package risk

// Severity levels, ordered from most to least urgent. Values are part of the
// external contract.
const (
	SeverityCritical = "critica"
	SeverityHigh     = "alta"
	SeverityMedium   = "media"
	SeverityLow      = "baixa"
)

var severityRank = map[string]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Thresholds are the tunable limits for threshold detection and historical
// profiling. Zero values are replaced by the defaults in NewAnalyzer.
type Thresholds struct {
	CriticalBalance     float64 // balance below this is a critical stress day
	AlertBalance        float64 // balance below this is a low-balance stress day
	HighVolatilityCV    float64 // coefficient of variation above this fires the volatility rule
	ClientConcentration float64 // top-3 inflow share above this is high concentration
	MaxZeroInflowDays   int     // zero-inflow run longer than this is low liquidity
	DrawdownShare       float64 // initial-to-final drop share above this fires the drawdown rule
	SteepSlopePerDay    float64 // negative trend steeper than this per day escalates to high
}

// DefaultThresholds returns the reference limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalBalance:     0,
		AlertBalance:        1000,
		HighVolatilityCV:    2.0,
		ClientConcentration: 0.7,
		MaxZeroInflowDays:   7,
		DrawdownShare:       0.3,
		SteepSlopePerDay:    100,
	}
}

// Analyzer evaluates forecast series and transaction histories against the
// configured thresholds. It is stateless apart from the thresholds themselves.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer creates an Analyzer, filling unset thresholds with defaults.
func NewAnalyzer(t Thresholds) *Analyzer {
	def := DefaultThresholds()
	if t.AlertBalance == 0 {
		t.AlertBalance = def.AlertBalance
	}
	if t.HighVolatilityCV == 0 {
		t.HighVolatilityCV = def.HighVolatilityCV
	}
	if t.ClientConcentration == 0 {
		t.ClientConcentration = def.ClientConcentration
	}
	if t.MaxZeroInflowDays == 0 {
		t.MaxZeroInflowDays = def.MaxZeroInflowDays
	}
	if t.DrawdownShare == 0 {
		t.DrawdownShare = def.DrawdownShare
	}
	if t.SteepSlopePerDay == 0 {
		t.SteepSlopePerDay = def.SteepSlopePerDay
	}
	return &Analyzer{thresholds: t}
}

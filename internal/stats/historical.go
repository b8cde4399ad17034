package stats

import (
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"cashrisk-mcp/internal/ledger"
)

// FlowStats holds the distributional summary of one daily flow track.
// Std is the sample standard deviation; it is 0 when fewer than 2 points exist.
type FlowStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Historical summarizes a transaction series for scenario building. Inflow and
// Outflow are nil when the source carried only a net-flow column; downstream
// components branch on their presence.
type Historical struct {
	Inflow      *FlowStats `json:"inflow,omitempty"`
	Outflow     *FlowStats `json:"outflow,omitempty"`
	NetFlow     FlowStats  `json:"net_flow"`
	LastBalance *float64   `json:"last_balance,omitempty"`
	FirstDate   time.Time  `json:"first_date"`
	LastDate    time.Time  `json:"last_date"`
	DayCount    int        `json:"day_count"`
}

// Summarize derives Historical from a cleaned series. An empty series is a
// validation failure: there is no distributional basis to extract.
func Summarize(series ledger.Series) (*Historical, error) {
	if series.Empty() {
		return nil, ledger.NewValidationError("series", "at least one transaction is required")
	}

	h := &Historical{
		NetFlow:   summarizeTrack(series.NetFlows()),
		FirstDate: series.Rows[0].Date,
		LastDate:  series.Last().Date,
	}
	h.DayCount = int(h.LastDate.Sub(h.FirstDate).Hours()/24) + 1

	if series.HasFlows {
		inflows := make([]float64, len(series.Rows))
		outflows := make([]float64, len(series.Rows))
		for i, r := range series.Rows {
			inflows[i] = r.Inflow
			outflows[i] = r.Outflow
		}
		in := summarizeTrack(inflows)
		out := summarizeTrack(outflows)
		h.Inflow = &in
		h.Outflow = &out
	}

	if series.HasBalance {
		last := series.Last().Balance
		h.LastBalance = &last
	}

	log.Debug().
		Int("rows", len(series.Rows)).
		Int("day_count", h.DayCount).
		Bool("has_flows", series.HasFlows).
		Msg("Summarized historical series")

	return h, nil
}

func summarizeTrack(values []float64) FlowStats {
	fs := FlowStats{
		Mean: stat.Mean(values, nil),
		Min:  values[0],
		Max:  values[0],
	}
	if len(values) >= 2 {
		fs.Std = stat.StdDev(values, nil)
	}
	for _, v := range values {
		if v < fs.Min {
			fs.Min = v
		}
		if v > fs.Max {
			fs.Max = v
		}
	}
	return fs
}

package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"cashrisk-mcp/internal/ledger"
)

// Engine performs the Monte-Carlo balance simulation.
type Engine struct {
	params  Parameters
	workers int
}

// DayForecast is the per-day aggregation across all simulated paths.
type DayForecast struct {
	Date         time.Time `json:"date"`
	P5           float64   `json:"p5"`
	P10          float64   `json:"p10"`
	P25          float64   `json:"p25"`
	P50          float64   `json:"p50"`
	P75          float64   `json:"p75"`
	P90          float64   `json:"p90"`
	P95          float64   `json:"p95"`
	Mean         float64   `json:"mean"`
	Min          float64   `json:"min"`
	Max          float64   `json:"max"`
	ProbNegative float64   `json:"prob_negative"`
}

// Forecast holds the aggregated simulation output. Paths keeps the raw P×D
// balance matrix for auditability; it is not serialized.
type Forecast struct {
	Days  []DayForecast `json:"days"`
	Paths [][]float64   `json:"-"`
}

// NewEngine creates an engine for the given parameters.
func NewEngine(p Parameters) *Engine {
	return &Engine{params: p, workers: runtime.NumCPU()}
}

// Run simulates all paths and aggregates them per day. The simulation is
// embarrassingly parallel: paths are partitioned disjointly across workers, each
// path owning its own accumulator and RNG, so identical seed and parameters give
// bit-for-bit identical output regardless of scheduling. Cancellation is checked
// cooperatively between paths.
func (e *Engine) Run(ctx context.Context) (*Forecast, error) {
	p := e.params
	if p.Days <= 0 {
		return nil, ledger.NewValidationError("days", "must be positive")
	}
	if p.Paths <= 0 {
		return nil, ledger.NewValidationError("num_paths", "must be positive")
	}
	if p.NetFlow == nil && (p.Inflow == nil || p.Outflow == nil) {
		return nil, ledger.NewValidationError("parameters", "either inflow/outflow or net_flow distribution is required")
	}

	baseSeed := time.Now().UnixNano()
	if p.Seed != nil {
		baseSeed = *p.Seed
	}

	started := time.Now()
	matrix := make([][]float64, p.Paths)

	workers := e.workers
	if workers < 1 {
		workers = 1
	}
	chunk := (p.Paths + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < p.Paths; start += chunk {
		end := start + chunk
		if end > p.Paths {
			end = p.Paths
		}
		g.Go(func() error {
			for path := start; path < end; path++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rng := rand.New(rand.NewSource(pathSeed(baseSeed, path)))
				matrix[path] = e.simulatePath(rng)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for path := range matrix {
		for day, v := range matrix[path] {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, ledger.NewComputationError("monte_carlo", fmt.Errorf("non-finite balance at path %d day %d", path, day))
			}
		}
	}

	forecast := e.aggregate(matrix)

	log.Debug().
		Int("paths", p.Paths).
		Int("days", p.Days).
		Str("mean_redraw", p.MeanRedraw).
		Dur("elapsed", time.Since(started)).
		Msg("Monte Carlo simulation complete")

	return forecast, nil
}

// simulatePath walks one balance trajectory. Inflow and outflow draws are clamped
// to zero before netting; the balance itself is never clamped.
func (e *Engine) simulatePath(rng *rand.Rand) []float64 {
	p := e.params
	row := make([]float64, p.Days)
	balance := p.InitialBalance

	// In per_path mode the scenario means are fixed for the whole trajectory.
	var meanIn, meanOut, meanNet float64
	if p.MeanRedraw == MeanRedrawPerPath {
		if p.NetFlow != nil {
			meanNet = uniform(rng, p.NetFlow.MeanMin, p.NetFlow.MeanMax)
		} else {
			meanIn = uniform(rng, p.Inflow.MeanMin, p.Inflow.MeanMax)
			meanOut = uniform(rng, p.Outflow.MeanMin, p.Outflow.MeanMax)
		}
	}

	for day := 0; day < p.Days; day++ {
		var net float64
		if p.NetFlow != nil {
			m := meanNet
			if p.MeanRedraw == MeanRedrawDaily {
				m = uniform(rng, p.NetFlow.MeanMin, p.NetFlow.MeanMax)
			}
			net = m + p.NetFlow.StdFloor*rng.NormFloat64()
		} else {
			mi, mo := meanIn, meanOut
			if p.MeanRedraw == MeanRedrawDaily {
				mi = uniform(rng, p.Inflow.MeanMin, p.Inflow.MeanMax)
				mo = uniform(rng, p.Outflow.MeanMin, p.Outflow.MeanMax)
			}
			inflow := math.Max(0, mi+p.Inflow.StdFloor*rng.NormFloat64())
			outflow := math.Max(0, mo+p.Outflow.StdFloor*rng.NormFloat64())
			net = inflow - outflow
		}
		balance += net
		row[day] = balance
	}
	return row
}

func (e *Engine) aggregate(matrix [][]float64) *Forecast {
	p := e.params
	days := make([]DayForecast, p.Days)
	column := make([]float64, p.Paths)

	for day := 0; day < p.Days; day++ {
		negatives := 0
		for path := 0; path < p.Paths; path++ {
			column[path] = matrix[path][day]
			if column[path] < 0 {
				negatives++
			}
		}
		mean := stat.Mean(column, nil)
		sort.Float64s(column)

		days[day] = DayForecast{
			Date:         p.StartDate.AddDate(0, 0, day),
			P5:           stat.Quantile(0.05, stat.LinInterp, column, nil),
			P10:          stat.Quantile(0.10, stat.LinInterp, column, nil),
			P25:          stat.Quantile(0.25, stat.LinInterp, column, nil),
			P50:          stat.Quantile(0.50, stat.LinInterp, column, nil),
			P75:          stat.Quantile(0.75, stat.LinInterp, column, nil),
			P90:          stat.Quantile(0.90, stat.LinInterp, column, nil),
			P95:          stat.Quantile(0.95, stat.LinInterp, column, nil),
			Mean:         mean,
			Min:          column[0],
			Max:          column[len(column)-1],
			ProbNegative: float64(negatives) / float64(p.Paths),
		}
	}

	return &Forecast{Days: days, Paths: matrix}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// pathSeed derives a per-path seed from the base seed via a splitmix64 step so
// neighboring paths do not produce correlated streams.
func pathSeed(base int64, path int) int64 {
	z := uint64(base) + uint64(path+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

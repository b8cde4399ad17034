package risk

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"cashrisk-mcp/internal/ledger"
)

// Volatility classifications, from the coefficient of variation of net flow.
const (
	VolatilityLow       = "baixa"
	VolatilityModerate  = "moderada"
	VolatilityHigh      = "alta"
	VolatilityVeryHigh  = "muito_alta"
	VolatilityUndefined = "indefinida" // zero mean flow, CV undefined
)

// Liquidity classifications.
const (
	LiquidityLow      = "baixa"
	LiquidityModerate = "moderada"
	LiquidityHigh     = "alta"
)

// Concentration risk levels.
const (
	ConcentrationHigh = "alto"
	ConcentrationLow  = "baixo"
)

// unboundedLiquidityRatio stands in for an infinite inflow/outflow ratio (no
// recent outflows); JSON cannot carry Inf.
const unboundedLiquidityRatio = 9999.0

// Profile is the historical risk assessment of a transaction series.
type Profile struct {
	Period        Period        `json:"periodo_analise"`
	Volatility    Volatility    `json:"volatilidade"`
	Stress        Stress        `json:"estresse"`
	Concentration Concentration `json:"concentracao"`
	Liquidity     Liquidity     `json:"liquidez"`
	Score         float64       `json:"score_risco"`
}

// Period is the analyzed date range.
type Period struct {
	Start time.Time `json:"data_inicio"`
	End   time.Time `json:"data_fim"`
	Days  int       `json:"dias_total"`
}

// Volatility holds dispersion metrics of the daily flows.
type Volatility struct {
	StdInflow    float64 `json:"desvio_padrao_entrada"`
	StdOutflow   float64 `json:"desvio_padrao_saida"`
	StdNetFlow   float64 `json:"desvio_padrao_fluxo"`
	CVInflow     float64 `json:"coeficiente_variacao_entrada"`
	CVOutflow    float64 `json:"coeficiente_variacao_saida"`
	BalanceStd   float64 `json:"volatilidade_saldo"`
	BalanceRange float64 `json:"range_saldo"`
	Class        string  `json:"classificacao"`
}

// Stress summarizes runs of consecutive days below the alert threshold.
type Stress struct {
	NegativeDays     int       `json:"total_dias_negativos"`
	LowDays          int       `json:"total_dias_baixos"`
	PctInStress      float64   `json:"percentual_tempo_estresse"`
	WorstBalance     float64   `json:"pior_saldo"`
	WorstBalanceDate time.Time `json:"data_pior_saldo"`
	Runs             int       `json:"num_periodos_estresse"`
	LongestRun       int       `json:"periodo_estresse_mais_longo"`
	MeanRecoveryDays float64   `json:"recuperacao_media"`
}

// Concentration holds revenue-source concentration, when attribution exists.
type Concentration struct {
	Clients    *ClientConcentration   `json:"clientes,omitempty"`
	Categories *CategoryConcentration `json:"categorias,omitempty"`
}

// ClientConcentration measures how much inflow depends on the largest clients.
type ClientConcentration struct {
	Total      int     `json:"total_clientes"`
	Top1Share  float64 `json:"concentracao_top1"`
	Top3Share  float64 `json:"concentracao_top3"`
	Herfindahl float64 `json:"indice_herfindahl"`
	Risk       string  `json:"risco_concentracao"`
}

// CategoryConcentration reports the dominant inflow category.
type CategoryConcentration struct {
	Leading      string  `json:"principal_categoria"`
	LeadingShare float64 `json:"concentracao_principal"`
	Count        int     `json:"num_categorias"`
}

// Liquidity holds short-horizon cash sufficiency indicators.
type Liquidity struct {
	Ratio7d           float64 `json:"indice_liquidez_7dias"`
	MaxZeroInflowDays int     `json:"max_dias_sem_entrada"`
	Class             string  `json:"classificacao_liquidez"`
	BufferDays        float64 `json:"buffer_dias"`
}

// ProfileHistory scores volatility, stress, concentration and liquidity from the
// historical series and aggregates them into a 0-100 risk score.
func (a *Analyzer) ProfileHistory(series ledger.Series) (*Profile, error) {
	if series.Empty() {
		return nil, ledger.NewValidationError("series", "at least one transaction is required")
	}

	p := &Profile{
		Period: Period{
			Start: series.Rows[0].Date,
			End:   series.Last().Date,
			Days:  len(series.Rows),
		},
		Volatility:    a.profileVolatility(series),
		Stress:        a.profileStress(series),
		Concentration: a.profileConcentration(series),
		Liquidity:     a.profileLiquidity(series),
	}
	p.Score = a.scoreProfile(p)

	log.Info().
		Float64("score", p.Score).
		Str("volatility", p.Volatility.Class).
		Str("liquidity", p.Liquidity.Class).
		Msg("Historical risk profile complete")

	return p, nil
}

func (a *Analyzer) profileVolatility(series ledger.Series) Volatility {
	flows := series.NetFlows()
	v := Volatility{
		StdNetFlow: sampleStd(flows),
	}
	v.Class = classifyVolatility(v.StdNetFlow, stat.Mean(flows, nil))

	if series.HasFlows {
		inflows := make([]float64, len(series.Rows))
		outflows := make([]float64, len(series.Rows))
		for i, r := range series.Rows {
			inflows[i] = r.Inflow
			outflows[i] = r.Outflow
		}
		v.StdInflow = sampleStd(inflows)
		v.StdOutflow = sampleStd(outflows)
		if m := stat.Mean(inflows, nil); m > 0 {
			v.CVInflow = v.StdInflow / m
		}
		if m := stat.Mean(outflows, nil); m > 0 {
			v.CVOutflow = v.StdOutflow / m
		}
	}

	if series.HasBalance {
		balances := series.Balances()
		min, max := balances[0], balances[0]
		diffs := make([]float64, 0, len(balances)-1)
		for i, b := range balances {
			if b < min {
				min = b
			}
			if b > max {
				max = b
			}
			if i > 0 {
				diffs = append(diffs, b-balances[i-1])
			}
		}
		v.BalanceStd = sampleStd(diffs)
		v.BalanceRange = max - min
	}

	return v
}

func classifyVolatility(std, mean float64) string {
	if mean == 0 {
		return VolatilityUndefined
	}
	cv := math.Abs(std / mean)
	switch {
	case cv < 0.5:
		return VolatilityLow
	case cv < 1.0:
		return VolatilityModerate
	case cv < 2.0:
		return VolatilityHigh
	default:
		return VolatilityVeryHigh
	}
}

// profileStress run-length-encodes the days below the alert threshold. A series
// without a balance column carries no stress signal.
func (a *Analyzer) profileStress(series ledger.Series) Stress {
	s := Stress{}
	if !series.HasBalance {
		return s
	}

	rows := series.Rows
	s.WorstBalance = rows[0].Balance
	s.WorstBalanceDate = rows[0].Date

	inStress := false
	runLength := 0
	var runStart time.Time
	var recoveries []float64
	stressDays := 0

	for _, r := range rows {
		if r.Balance < s.WorstBalance {
			s.WorstBalance = r.Balance
			s.WorstBalanceDate = r.Date
		}
		if r.Balance < 0 {
			s.NegativeDays++
		} else if r.Balance < a.thresholds.AlertBalance {
			s.LowDays++
		}

		stressed := r.Balance < a.thresholds.AlertBalance
		switch {
		case stressed && !inStress:
			inStress = true
			runStart = r.Date
			runLength = 1
			s.Runs++
		case stressed:
			runLength++
		case !stressed && inStress:
			inStress = false
			recoveries = append(recoveries, r.Date.Sub(runStart).Hours()/24)
			if runLength > s.LongestRun {
				s.LongestRun = runLength
			}
			runLength = 0
		}
		if stressed {
			stressDays++
		}
	}
	if inStress && runLength > s.LongestRun {
		s.LongestRun = runLength
	}

	s.PctInStress = float64(stressDays) / float64(len(rows)) * 100
	if len(recoveries) > 0 {
		s.MeanRecoveryDays = stat.Mean(recoveries, nil)
	}
	return s
}

func (a *Analyzer) profileConcentration(series ledger.Series) Concentration {
	c := Concentration{}
	if !series.HasFlows {
		return c
	}

	if series.HasClients {
		c.Clients = a.clientConcentration(series)
	}
	if series.HasCategories {
		c.Categories = categoryConcentration(series)
	}
	return c
}

func (a *Analyzer) clientConcentration(series ledger.Series) *ClientConcentration {
	byClient := make(map[string]float64)
	total := 0.0
	for _, r := range series.Rows {
		if r.ClientID == "" {
			continue
		}
		byClient[r.ClientID] += r.Inflow
		total += r.Inflow
	}
	if total <= 0 || len(byClient) == 0 {
		return nil
	}

	shares := make([]float64, 0, len(byClient))
	hhi := 0.0
	for _, inflow := range byClient {
		share := inflow / total
		shares = append(shares, share)
		hhi += share * share
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(shares)))

	top3 := 0.0
	for i := 0; i < len(shares) && i < 3; i++ {
		top3 += shares[i]
	}

	cc := &ClientConcentration{
		Total:      len(byClient),
		Top1Share:  shares[0],
		Top3Share:  top3,
		Herfindahl: hhi,
		Risk:       ConcentrationLow,
	}
	if top3 > a.thresholds.ClientConcentration {
		cc.Risk = ConcentrationHigh
	}
	return cc
}

func categoryConcentration(series ledger.Series) *CategoryConcentration {
	byCategory := make(map[string]float64)
	total := 0.0
	for _, r := range series.Rows {
		if r.Category == "" {
			continue
		}
		byCategory[r.Category] += r.Inflow
		total += r.Inflow
	}
	if total <= 0 || len(byCategory) == 0 {
		return nil
	}

	leading := ""
	leadingInflow := 0.0
	for cat, inflow := range byCategory {
		if inflow > leadingInflow || (inflow == leadingInflow && (leading == "" || cat < leading)) {
			leading = cat
			leadingInflow = inflow
		}
	}
	return &CategoryConcentration{
		Leading:      leading,
		LeadingShare: leadingInflow / total,
		Count:        len(byCategory),
	}
}

func (a *Analyzer) profileLiquidity(series ledger.Series) Liquidity {
	l := Liquidity{}
	if !series.HasFlows {
		return l
	}

	rows := series.Rows

	// Longest run of consecutive zero-inflow days.
	run := 0
	for _, r := range rows {
		if r.Inflow == 0 {
			run++
			if run > l.MaxZeroInflowDays {
				l.MaxZeroInflowDays = run
			}
		} else {
			run = 0
		}
	}

	// 7-day trailing inflow/outflow ratio.
	in7, out7 := 0.0, 0.0
	for i := len(rows) - 1; i >= 0 && i >= len(rows)-7; i-- {
		in7 += rows[i].Inflow
		out7 += rows[i].Outflow
	}
	ratio := unboundedLiquidityRatio
	if out7 > 0 {
		ratio = in7 / out7
	}
	l.Ratio7d = ratio

	switch {
	case l.MaxZeroInflowDays > a.thresholds.MaxZeroInflowDays:
		l.Class = LiquidityLow
	case ratio < 0.8:
		l.Class = LiquidityLow
	case ratio < 1.2:
		l.Class = LiquidityModerate
	default:
		l.Class = LiquidityHigh
	}

	// Buffer days: how long the current balance sustains the 30-day mean outflow.
	if series.HasBalance {
		out30 := 0.0
		n := 0
		for i := len(rows) - 1; i >= 0 && i >= len(rows)-30; i-- {
			out30 += rows[i].Outflow
			n++
		}
		lastBalance := series.Last().Balance
		if n > 0 && out30 > 0 && lastBalance > 0 {
			l.BufferDays = lastBalance / (out30 / float64(n))
		}
	}

	return l
}

// scoreProfile aggregates the component assessments into a 0-100 score, higher
// meaning riskier. Weights: volatility up to 30, stress up to 25, concentration
// up to 20, liquidity up to 25.
func (a *Analyzer) scoreProfile(p *Profile) float64 {
	score := 0.0

	switch p.Volatility.Class {
	case VolatilityVeryHigh:
		score += 30
	case VolatilityHigh:
		score += 20
	case VolatilityModerate:
		score += 10
	}

	score += math.Min(25, p.Stress.PctInStress*0.5)

	if c := p.Concentration.Clients; c != nil {
		if c.Risk == ConcentrationHigh {
			score += 20
		} else if c.Top1Share > 0.5 {
			score += 10
		}
	}

	switch p.Liquidity.Class {
	case LiquidityLow:
		score += 25
	case LiquidityModerate:
		score += 10
	}

	return math.Min(100, score)
}

// sampleStd is the n-1 standard deviation, 0 for fewer than 2 points.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

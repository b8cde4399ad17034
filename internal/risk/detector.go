package risk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// ForecastPoint is one day of any balance forecast: the aggregated Monte Carlo
// median track or an external deterministic prediction.
type ForecastPoint struct {
	Date    time.Time `json:"date"`
	Balance float64   `json:"balance"`
}

// Alert is a prioritized risk finding. Wire keys keep the original contract.
type Alert struct {
	Type            string    `json:"tipo"`
	Severity        string    `json:"severidade"`
	Date            time.Time `json:"data_ocorrencia"`
	Value           float64   `json:"valor"`
	Message         string    `json:"mensagem"`
	Recommendation  string    `json:"recomendacao"`
	FinancialImpact float64   `json:"impacto_financeiro"`
}

// Alert type tags.
const (
	AlertNegativeBalance         = "saldo_negativo"
	AlertCriticalNegativeBalance = "saldo_critico_negativo"
	AlertLowBalance              = "saldo_baixo"
	AlertSharpDrawdown           = "queda_acentuada"
	AlertHighVolatility          = "alta_volatilidade"
	AlertNegativeTrend           = "tendencia_negativa"
)

const (
	volatilityWindow = 7 // rolling std window for the volatility rule
	trendMinPoints   = 5
	trendPValueMax   = 0.05
	trendMinAbsCorr  = 0.7
)

// DetectRisks scans a forecast series against the fixed risk rules. All
// applicable rules fire independently; the result is deduplicated by
// (date, type) and ordered by severity, ties broken by date.
func (a *Analyzer) DetectRisks(series []ForecastPoint, initialBalance float64) []Alert {
	alerts := make([]Alert, 0)
	if len(series) == 0 {
		return alerts
	}

	alerts = append(alerts, a.detectNegativeBalance(series)...)
	alerts = append(alerts, a.detectLowBalance(series)...)
	alerts = append(alerts, a.detectDrawdown(series, initialBalance)...)
	alerts = append(alerts, a.detectHighVolatility(series)...)
	alerts = append(alerts, a.detectNegativeTrend(series)...)

	alerts = dedupeAlerts(alerts)
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank[alerts[i].Severity], severityRank[alerts[j].Severity]
		if ri != rj {
			return ri < rj
		}
		return alerts[i].Date.Before(alerts[j].Date)
	})

	log.Info().Int("alerts", len(alerts)).Msg("Risk detection complete")
	return alerts
}

// detectNegativeBalance flags the first below-zero day, plus the minimum point
// when it is at least twice as deep as the first crossing.
func (a *Analyzer) detectNegativeBalance(series []ForecastPoint) []Alert {
	var alerts []Alert
	firstIdx := -1
	minIdx := -1
	for i, p := range series {
		if p.Balance < 0 {
			if firstIdx == -1 {
				firstIdx = i
			}
			if minIdx == -1 || p.Balance < series[minIdx].Balance {
				minIdx = i
			}
		}
	}
	if firstIdx == -1 {
		return nil
	}

	first := series[firstIdx]
	alerts = append(alerts, Alert{
		Type:            AlertNegativeBalance,
		Severity:        SeverityCritical,
		Date:            first.Date,
		Value:           first.Balance,
		Message:         fmt.Sprintf("Saldo ficará negativo em %s (R$ %.2f)", first.Date.Format("02/01/2006"), first.Balance),
		Recommendation:  "Revisar fluxo de caixa imediatamente e considerar medidas de contenção de despesas ou aumento de receitas",
		FinancialImpact: math.Abs(first.Balance),
	})

	min := series[minIdx]
	if min.Balance < first.Balance*2 {
		alerts = append(alerts, Alert{
			Type:            AlertCriticalNegativeBalance,
			Severity:        SeverityCritical,
			Date:            min.Date,
			Value:           min.Balance,
			Message:         fmt.Sprintf("Saldo atingirá valor crítico de R$ %.2f", min.Balance),
			Recommendation:  "Situação crítica - considerar empréstimos emergenciais ou venda de ativos",
			FinancialImpact: math.Abs(min.Balance),
		})
	}
	return alerts
}

// detectLowBalance flags the first day inside the warning band [critical, alert).
func (a *Analyzer) detectLowBalance(series []ForecastPoint) []Alert {
	for _, p := range series {
		if p.Balance >= a.thresholds.CriticalBalance && p.Balance < a.thresholds.AlertBalance {
			return []Alert{{
				Type:            AlertLowBalance,
				Severity:        SeverityHigh,
				Date:            p.Date,
				Value:           p.Balance,
				Message:         fmt.Sprintf("Saldo baixo previsto: R$ %.2f em %s", p.Balance, p.Date.Format("02/01/2006")),
				Recommendation:  "Monitorar fluxo de caixa de perto e preparar plano de contingência",
				FinancialImpact: a.thresholds.AlertBalance - p.Balance,
			}}
		}
	}
	return nil
}

func (a *Analyzer) detectDrawdown(series []ForecastPoint, initialBalance float64) []Alert {
	if initialBalance <= 0 {
		return nil
	}
	last := series[len(series)-1]
	drop := (initialBalance - last.Balance) / initialBalance
	if drop <= a.thresholds.DrawdownShare {
		return nil
	}

	severity := SeverityHigh
	if drop > 0.5 {
		severity = SeverityCritical
	}
	return []Alert{{
		Type:            AlertSharpDrawdown,
		Severity:        severity,
		Date:            last.Date,
		Value:           last.Balance,
		Message:         fmt.Sprintf("Queda acentuada de %.1f%% no saldo prevista até %s", drop*100, last.Date.Format("02/01/2006")),
		Recommendation:  "Analisar causas da queda e implementar medidas corretivas urgentes",
		FinancialImpact: initialBalance - last.Balance,
	}}
}

// detectHighVolatility fires when the mean rolling 7-day std divided by the mean
// balance exceeds the CV threshold. Skipped below 7 points.
func (a *Analyzer) detectHighVolatility(series []ForecastPoint) []Alert {
	if len(series) < volatilityWindow {
		return nil
	}

	balances := make([]float64, len(series))
	for i, p := range series {
		balances[i] = p.Balance
	}

	rollingStds := make([]float64, 0, len(balances)-volatilityWindow+1)
	for i := volatilityWindow - 1; i < len(balances); i++ {
		rollingStds = append(rollingStds, stat.StdDev(balances[i-volatilityWindow+1:i+1], nil))
	}

	meanVolatility := stat.Mean(rollingStds, nil)
	meanBalance := stat.Mean(balances, nil)
	if meanBalance <= 0 {
		return nil
	}

	cv := meanVolatility / meanBalance
	if cv <= a.thresholds.HighVolatilityCV {
		return nil
	}

	last := series[len(series)-1]
	return []Alert{{
		Type:            AlertHighVolatility,
		Severity:        SeverityMedium,
		Date:            last.Date,
		Value:           cv,
		Message:         fmt.Sprintf("Alta volatilidade detectada no fluxo de caixa (CV: %.2f)", cv),
		Recommendation:  "Considerar estratégias de estabilização do fluxo de caixa",
		FinancialImpact: meanVolatility,
	}}
}

// detectNegativeTrend fires on a statistically significant negative slope of the
// balance against the day index. Skipped below 5 points.
func (a *Analyzer) detectNegativeTrend(series []ForecastPoint) []Alert {
	if len(series) < trendMinPoints {
		return nil
	}

	balances := make([]float64, len(series))
	for i, p := range series {
		balances[i] = p.Balance
	}
	trend := linearTrend(balances)

	if trend.Slope >= 0 || trend.PValue >= trendPValueMax || math.Abs(trend.Correlation) <= trendMinAbsCorr {
		return nil
	}

	severity := SeverityMedium
	if trend.Slope < -a.thresholds.SteepSlopePerDay {
		severity = SeverityHigh
	}
	projection30 := trend.Slope * 30

	last := series[len(series)-1]
	return []Alert{{
		Type:            AlertNegativeTrend,
		Severity:        severity,
		Date:            last.Date,
		Value:           trend.Slope,
		Message:         fmt.Sprintf("Tendência negativa detectada: queda de R$ %.2f por dia", math.Abs(trend.Slope)),
		Recommendation:  "Investigar causas da tendência negativa e implementar ações corretivas",
		FinancialImpact: math.Abs(projection30),
	}}
}

func dedupeAlerts(alerts []Alert) []Alert {
	type key struct {
		date time.Time
		typ  string
	}
	seen := make(map[key]bool, len(alerts))
	out := alerts[:0]
	for _, a := range alerts {
		k := key{a.Date, a.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out
}

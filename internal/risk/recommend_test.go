package risk

import "testing"

func hasRecType(recs []Recommendation, typ string) bool {
	for _, r := range recs {
		if r.Type == typ {
			return true
		}
	}
	return false
}

func TestRecommend_NoFindings(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	recs := a.Recommend(nil, &Profile{
		Volatility: Volatility{Class: VolatilityLow},
		Liquidity:  Liquidity{Class: LiquidityHigh},
		Score:      10,
	})
	if len(recs) != 0 {
		t.Errorf("got %d recommendations for a clean picture, want 0", len(recs))
	}
}

func TestRecommend_CriticalAlertTriggersImmediateAction(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	alerts := []Alert{{Type: AlertNegativeBalance, Severity: SeverityCritical}}

	recs := a.Recommend(alerts, nil)
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if recs[0].Type != "acao_imediata" {
		t.Errorf("Type = %q, want acao_imediata", recs[0].Type)
	}
	if recs[0].Priority != PriorityHigh {
		t.Errorf("Priority = %q, want %q", recs[0].Priority, PriorityHigh)
	}
	if len(recs[0].Actions) == 0 {
		t.Error("expected concrete actions")
	}
}

func TestRecommend_NonCriticalAlertsDoNotTrigger(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	alerts := []Alert{{Type: AlertLowBalance, Severity: SeverityHigh}}
	if recs := a.Recommend(alerts, nil); len(recs) != 0 {
		t.Errorf("got %d recommendations, want 0", len(recs))
	}
}

func TestRecommend_ProfileDriven(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	profile := &Profile{
		Score: 80,
		Concentration: Concentration{
			Clients: &ClientConcentration{Risk: ConcentrationHigh, Top1Share: 0.9},
		},
		Liquidity: Liquidity{Class: LiquidityLow},
	}

	recs := a.Recommend(nil, profile)
	if len(recs) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(recs))
	}
	for _, typ := range []string{"gestao_risco", "diversificacao", "liquidez"} {
		if !hasRecType(recs, typ) {
			t.Errorf("missing %q recommendation", typ)
		}
	}
	// High-priority items come first.
	if recs[0].Type != "gestao_risco" {
		t.Errorf("first recommendation = %q, want gestao_risco", recs[0].Type)
	}
}

func TestRecommend_ScoreBoundaryNotInclusive(t *testing.T) {
	a := NewAnalyzer(DefaultThresholds())
	profile := &Profile{Score: 70, Liquidity: Liquidity{Class: LiquidityHigh}}
	if recs := a.Recommend(nil, profile); hasRecType(recs, "gestao_risco") {
		t.Error("score of exactly 70 must not trigger gestao_risco")
	}
}

package risk

// Recommendation priorities.
const (
	PriorityHigh   = "alta"
	PriorityMedium = "media"
	PriorityLow    = "baixa"
)

// Recommendation is an actionable response to detected risks. Wire keys keep the
// original contract.
type Recommendation struct {
	Type        string   `json:"tipo"`
	Priority    string   `json:"prioridade"`
	Title       string   `json:"titulo"`
	Description string   `json:"descricao"`
	Actions     []string `json:"acoes"`
}

// Recommend maps alerts and the historical profile to prioritized action items.
// The mapping is deterministic and ordered by urgency.
func (a *Analyzer) Recommend(alerts []Alert, profile *Profile) []Recommendation {
	recs := make([]Recommendation, 0, 4)

	hasCritical := false
	for _, al := range alerts {
		if al.Severity == SeverityCritical {
			hasCritical = true
			break
		}
	}
	if hasCritical {
		recs = append(recs, Recommendation{
			Type:        "acao_imediata",
			Priority:    PriorityHigh,
			Title:       "Ação Imediata Necessária",
			Description: "Foram identificados riscos críticos que requerem atenção imediata.",
			Actions: []string{
				"Revisar todas as contas a receber e acelerar cobranças",
				"Negociar prazos de pagamento com fornecedores",
				"Considerar linhas de crédito emergenciais",
				"Reduzir despesas não essenciais imediatamente",
			},
		})
	}

	if profile == nil {
		return recs
	}

	if profile.Score > 70 {
		recs = append(recs, Recommendation{
			Type:        "gestao_risco",
			Priority:    PriorityHigh,
			Title:       "Implementar Gestão de Riscos",
			Description: "Score de risco elevado indica necessidade de melhor gestão.",
			Actions: []string{
				"Implementar controles de fluxo de caixa diários",
				"Diversificar base de clientes e receitas",
				"Criar reserva de emergência",
				"Estabelecer limites de gastos por categoria",
			},
		})
	}

	if c := profile.Concentration.Clients; c != nil && c.Risk == ConcentrationHigh {
		recs = append(recs, Recommendation{
			Type:        "diversificacao",
			Priority:    PriorityMedium,
			Title:       "Diversificar Base de Clientes",
			Description: "Alta concentração de receitas em poucos clientes.",
			Actions: []string{
				"Desenvolver estratégias de aquisição de novos clientes",
				"Reduzir dependência dos principais clientes",
				"Criar contratos com múltiplos clientes menores",
				"Implementar programa de fidelização",
			},
		})
	}

	if profile.Liquidity.Class == LiquidityLow {
		recs = append(recs, Recommendation{
			Type:        "liquidez",
			Priority:    PriorityMedium,
			Title:       "Melhorar Liquidez",
			Description: "Indicadores de liquidez estão abaixo do ideal.",
			Actions: []string{
				"Acelerar processo de cobrança",
				"Revisar prazos de pagamento a clientes",
				"Manter reserva mínima de caixa",
				"Considerar factoring para recebíveis",
			},
		})
	}

	return recs
}

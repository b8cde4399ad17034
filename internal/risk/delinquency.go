package risk

import (
	"sort"
	"time"

	"cashrisk-mcp/internal/ledger"
)

// Invoice payment statuses.
const (
	InvoicePaidOnTime = "Pago em Dia"
	InvoicePaidLate   = "Pago com Atraso"
	InvoiceOverdue    = "Em Atraso"
	InvoiceUpcoming   = "A Vencer"
	InvoiceUnknown    = "Indefinido"
)

// Client delinquency risk levels.
const (
	DelinquencyHigh   = "Alto"
	DelinquencyMedium = "Médio"
	DelinquencyLow    = "Baixo"
)

// Delinquency segmentation limits.
const (
	delinquencyHighDays    = 60
	delinquencyMediumDays  = 30
	delinquencyHighAmount  = 2000.0
	delinquencyMediumFloor = 500.0
)

// InvoiceStanding is the assessed state of one invoice row.
type InvoiceStanding struct {
	ClientID string  `json:"id_cliente"`
	Status   string  `json:"status_pagamento"`
	DaysLate int     `json:"dias_atraso"`
	Amount   float64 `json:"valor_fatura"`
}

// ClientDelinquency aggregates a client's currently overdue invoices.
type ClientDelinquency struct {
	ClientID     string  `json:"id_cliente"`
	TotalOverdue float64 `json:"total_devido_atraso"`
	MaxDaysLate  int     `json:"max_dias_atraso"`
	OpenInvoices int     `json:"num_faturas_atraso"`
	Risk         string  `json:"risco_inadimplencia"`
}

// DelinquencyReport is the summarized receivables risk picture.
type DelinquencyReport struct {
	ClientsInArrears int                 `json:"total_clientes_com_faturas_em_atraso"`
	TotalOverdue     float64             `json:"valor_total_em_atraso"`
	RiskDistribution map[string]int      `json:"distribuicao_risco"`
	TopHighRisk      []ClientDelinquency `json:"top_5_clientes_alto_risco"`
	Clients          []ClientDelinquency `json:"clientes"`
}

// AnalyzeDelinquency assesses overdue invoices as of refDate and segments
// clients by delinquency risk. Requires invoice attribution (due_date) on the
// series.
func AnalyzeDelinquency(series ledger.Series, refDate time.Time) (*DelinquencyReport, error) {
	if series.Empty() {
		return nil, ledger.NewValidationError("series", "at least one transaction is required")
	}
	if !series.HasInvoices {
		return nil, ledger.NewValidationError("due_date", "invoice due dates are required for delinquency analysis")
	}
	if refDate.IsZero() {
		refDate = time.Now()
	}

	byClient := make(map[string]*ClientDelinquency)
	for _, r := range series.Rows {
		standing := assessInvoice(r, refDate)
		if standing.Status != InvoiceOverdue {
			continue
		}
		cd, ok := byClient[standing.ClientID]
		if !ok {
			cd = &ClientDelinquency{ClientID: standing.ClientID}
			byClient[standing.ClientID] = cd
		}
		cd.TotalOverdue += standing.Amount
		cd.OpenInvoices++
		if standing.DaysLate > cd.MaxDaysLate {
			cd.MaxDaysLate = standing.DaysLate
		}
	}

	report := &DelinquencyReport{
		RiskDistribution: map[string]int{DelinquencyHigh: 0, DelinquencyMedium: 0, DelinquencyLow: 0},
	}
	for _, cd := range byClient {
		cd.Risk = classifyDelinquency(cd.MaxDaysLate, cd.TotalOverdue)
		report.Clients = append(report.Clients, *cd)
		report.TotalOverdue += cd.TotalOverdue
		report.RiskDistribution[cd.Risk]++
	}
	report.ClientsInArrears = len(report.Clients)

	sort.Slice(report.Clients, func(i, j int) bool {
		if report.Clients[i].TotalOverdue != report.Clients[j].TotalOverdue {
			return report.Clients[i].TotalOverdue > report.Clients[j].TotalOverdue
		}
		return report.Clients[i].ClientID < report.Clients[j].ClientID
	})

	for _, cd := range report.Clients {
		if cd.Risk == DelinquencyHigh && len(report.TopHighRisk) < 5 {
			report.TopHighRisk = append(report.TopHighRisk, cd)
		}
	}

	return report, nil
}

func assessInvoice(r ledger.Transaction, refDate time.Time) InvoiceStanding {
	s := InvoiceStanding{ClientID: r.ClientID, Amount: r.InvoiceAmount, Status: InvoiceUnknown}
	if r.DueDate == nil {
		return s
	}

	switch {
	case r.PaidDate != nil && !r.PaidDate.After(*r.DueDate):
		s.Status = InvoicePaidOnTime
	case r.PaidDate != nil:
		s.Status = InvoicePaidLate
		s.DaysLate = daysBetween(*r.DueDate, *r.PaidDate)
	case r.DueDate.Before(refDate):
		s.Status = InvoiceOverdue
		s.DaysLate = daysBetween(*r.DueDate, refDate)
	default:
		s.Status = InvoiceUpcoming
	}
	return s
}

func classifyDelinquency(maxDaysLate int, totalOverdue float64) string {
	switch {
	case maxDaysLate > delinquencyHighDays || totalOverdue > delinquencyHighAmount:
		return DelinquencyHigh
	case maxDaysLate > delinquencyMediumDays,
		totalOverdue >= delinquencyMediumFloor && totalOverdue <= delinquencyHighAmount:
		return DelinquencyMedium
	default:
		return DelinquencyLow
	}
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

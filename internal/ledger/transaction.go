package ledger

import (
	"sort"
	"time"
)

// Transaction is one day of cash movement, already cleaned and aggregated by the
// ingestion layer. Inflow and Outflow are never negative; NetFlow is Inflow-Outflow
// when both sides are known, or the raw net movement otherwise.
type Transaction struct {
	Date          time.Time  `json:"date"`
	Inflow        float64    `json:"inflow"`
	Outflow       float64    `json:"outflow"`
	NetFlow       float64    `json:"net_flow"`
	Balance       float64    `json:"balance"`
	ClientID      string     `json:"client_id,omitempty"`
	Category      string     `json:"category,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	InvoiceAmount float64    `json:"invoice_amount,omitempty"`
}

// Series is a chronologically ordered transaction history. Which optional columns
// were present in the source is resolved exactly once at ingestion and carried here
// as flags; the analytics core never guesses at schemas.
type Series struct {
	Rows          []Transaction `json:"rows"`
	HasFlows      bool          `json:"has_flows"`
	HasBalance    bool          `json:"has_balance"`
	HasClients    bool          `json:"has_clients"`
	HasCategories bool          `json:"has_categories"`
	HasInvoices   bool          `json:"has_invoices"`
}

// NewSeries builds a Series from rows, sorting by date and filling NetFlow from
// the inflow/outflow pair when flows are present.
func NewSeries(rows []Transaction, hasFlows, hasBalance bool) Series {
	sorted := make([]Transaction, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	hasClients := false
	hasCategories := false
	hasInvoices := false
	for i := range sorted {
		if hasFlows {
			sorted[i].NetFlow = sorted[i].Inflow - sorted[i].Outflow
		}
		if sorted[i].ClientID != "" {
			hasClients = true
		}
		if sorted[i].Category != "" {
			hasCategories = true
		}
		if sorted[i].DueDate != nil {
			hasInvoices = true
		}
	}

	return Series{
		Rows:          sorted,
		HasFlows:      hasFlows,
		HasBalance:    hasBalance,
		HasClients:    hasClients,
		HasCategories: hasCategories,
		HasInvoices:   hasInvoices,
	}
}

// Empty reports whether the series has no rows.
func (s Series) Empty() bool {
	return len(s.Rows) == 0
}

// Last returns the most recent transaction. Callers must check Empty first.
func (s Series) Last() Transaction {
	return s.Rows[len(s.Rows)-1]
}

// Balances returns the running balance track in date order.
func (s Series) Balances() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Balance
	}
	return out
}

// NetFlows returns the daily net flow track in date order.
func (s Series) NetFlows() []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.NetFlow
	}
	return out
}

package risk

import (
	"testing"
	"time"

	"cashrisk-mcp/internal/ledger"
)

func datePtr(t time.Time) *time.Time { return &t }

func invoiceRow(client string, amount float64, due time.Time, paid *time.Time) ledger.Transaction {
	return ledger.Transaction{
		Date:          due.AddDate(0, 0, -14),
		ClientID:      client,
		InvoiceAmount: amount,
		DueDate:       datePtr(due),
		PaidDate:      paid,
	}
}

func TestAnalyzeDelinquency_RequiresInvoices(t *testing.T) {
	series := ledger.NewSeries([]ledger.Transaction{{Date: histDay(0), Inflow: 100}}, true, false)
	if _, err := AnalyzeDelinquency(series, histDay(10)); err == nil || !ledger.IsValidation(err) {
		t.Errorf("expected validation error without due dates, got %v", err)
	}
	if _, err := AnalyzeDelinquency(ledger.Series{}, histDay(10)); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestAnalyzeDelinquency_Classification(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []ledger.Transaction{
		// 90 days overdue and above the high amount: high risk.
		invoiceRow("CL-A", 3000, ref.AddDate(0, 0, -90), nil),
		// 40 days overdue, modest amount: medium by days.
		invoiceRow("CL-B", 300, ref.AddDate(0, 0, -40), nil),
		// 10 days overdue, small amount: low.
		invoiceRow("CL-C", 100, ref.AddDate(0, 0, -10), nil),
		// Paid on time: excluded entirely.
		invoiceRow("CL-D", 9999, ref.AddDate(0, 0, -30), datePtr(ref.AddDate(0, 0, -35))),
		// Not yet due: excluded.
		invoiceRow("CL-E", 500, ref.AddDate(0, 0, 10), nil),
	}
	series := ledger.NewSeries(rows, true, false)

	report, err := AnalyzeDelinquency(series, ref)
	if err != nil {
		t.Fatal(err)
	}

	if report.ClientsInArrears != 3 {
		t.Fatalf("ClientsInArrears = %d, want 3", report.ClientsInArrears)
	}
	if report.TotalOverdue != 3400 {
		t.Errorf("TotalOverdue = %v, want 3400", report.TotalOverdue)
	}
	if report.RiskDistribution[DelinquencyHigh] != 1 ||
		report.RiskDistribution[DelinquencyMedium] != 1 ||
		report.RiskDistribution[DelinquencyLow] != 1 {
		t.Errorf("RiskDistribution = %v, want 1/1/1", report.RiskDistribution)
	}

	// Sorted by overdue amount descending.
	if report.Clients[0].ClientID != "CL-A" {
		t.Errorf("first client = %q, want CL-A", report.Clients[0].ClientID)
	}
	if report.Clients[0].MaxDaysLate != 90 {
		t.Errorf("MaxDaysLate = %d, want 90", report.Clients[0].MaxDaysLate)
	}

	if len(report.TopHighRisk) != 1 || report.TopHighRisk[0].ClientID != "CL-A" {
		t.Errorf("TopHighRisk = %+v, want only CL-A", report.TopHighRisk)
	}
}

func TestAnalyzeDelinquency_AggregatesPerClient(t *testing.T) {
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []ledger.Transaction{
		invoiceRow("CL-A", 1200, ref.AddDate(0, 0, -20), nil),
		invoiceRow("CL-A", 1500, ref.AddDate(0, 0, -70), nil),
	}
	series := ledger.NewSeries(rows, true, false)

	report, err := AnalyzeDelinquency(series, ref)
	if err != nil {
		t.Fatal(err)
	}
	if report.ClientsInArrears != 1 {
		t.Fatalf("ClientsInArrears = %d, want 1", report.ClientsInArrears)
	}
	c := report.Clients[0]
	if c.TotalOverdue != 2700 || c.OpenInvoices != 2 || c.MaxDaysLate != 70 {
		t.Errorf("aggregate = %+v, want total 2700, 2 invoices, 70 days", c)
	}
	if c.Risk != DelinquencyHigh {
		t.Errorf("Risk = %q, want %q (70 days and over the amount limit)", c.Risk, DelinquencyHigh)
	}
}

func TestClassifyDelinquency(t *testing.T) {
	tests := []struct {
		name    string
		days    int
		overdue float64
		want    string
	}{
		{"HighByDays", 61, 100, DelinquencyHigh},
		{"HighByAmount", 5, 2001, DelinquencyHigh},
		{"MediumByDays", 31, 100, DelinquencyMedium},
		{"MediumByAmount", 5, 1500, DelinquencyMedium},
		{"Low", 5, 100, DelinquencyLow},
		{"LowBoundary", 30, 499, DelinquencyLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDelinquency(tt.days, tt.overdue); got != tt.want {
				t.Errorf("classifyDelinquency(%d, %v) = %q, want %q", tt.days, tt.overdue, got, tt.want)
			}
		})
	}
}

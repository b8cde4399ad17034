// Package engine generates synthetic transaction series for local testing of
// the analytics pipeline.
package engine

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cashrisk-mcp/internal/ledger"
)

type GeneratorConfig struct {
	Scenario    string // "stable", "seasonal" or "stressed"
	Days        int
	Seed        int64
	WithClients bool
	End         time.Time
}

const initialBalance = 1000.0

var clientIDs = []string{"CL-001", "CL-002", "CL-003", "CL-004", "CL-005"}
var categories = []string{"vendas", "servicos", "assinaturas", "outros"}

// Generate produces one transaction per day ending at cfg.End. Balances are
// accumulated from the flows on top of a fixed initial balance.
func Generate(cfg GeneratorConfig) ([]ledger.Transaction, error) {
	if cfg.Days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", cfg.Days)
	}
	switch cfg.Scenario {
	case "stable", "seasonal", "stressed":
	default:
		return nil, fmt.Errorf("unknown scenario %q", cfg.Scenario)
	}
	if cfg.End.IsZero() {
		cfg.End = time.Now()
	}
	end := time.Date(cfg.End.Year(), cfg.End.Month(), cfg.End.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(cfg.Days - 1))

	rng := rand.New(rand.NewSource(cfg.Seed))
	rows := make([]ledger.Transaction, 0, cfg.Days)
	balance := initialBalance

	for i := 0; i < cfg.Days; i++ {
		date := start.AddDate(0, 0, i)
		inflowMean, outflowMean := dailyMeans(cfg.Scenario, i, cfg.Days)

		inflow := math.Max(0, inflowMean+rng.NormFloat64()*inflowMean*0.15)
		outflow := math.Max(0, outflowMean+rng.NormFloat64()*outflowMean*0.12)
		balance += inflow - outflow

		tx := ledger.Transaction{
			Date:    date,
			Inflow:  round2(inflow),
			Outflow: round2(outflow),
			Balance: round2(balance),
		}
		if cfg.WithClients {
			decorate(&tx, cfg.Scenario, rng, end)
		}
		rows = append(rows, tx)
	}
	return rows, nil
}

// dailyMeans shapes the flow means per scenario: stable is flat, seasonal adds
// a weekly cycle and a mild upward trend, stressed decays inflows against a
// fixed cost base.
func dailyMeans(scenario string, day, total int) (inflow, outflow float64) {
	switch scenario {
	case "seasonal":
		weekly := 1 + 0.3*math.Sin(2*math.Pi*float64(day)/7)
		trend := 1 + 0.2*float64(day)/float64(total)
		return 1500 * weekly * trend, 1200
	case "stressed":
		decay := 1 - 0.5*float64(day)/float64(total)
		return 1400 * decay, 1350
	default:
		return 1500, 1200
	}
}

// decorate assigns client attribution and invoice fields. Stressed scenarios
// concentrate revenue on one client and leave more invoices unpaid.
func decorate(tx *ledger.Transaction, scenario string, rng *rand.Rand, end time.Time) {
	if scenario == "stressed" && rng.Float64() < 0.8 {
		tx.ClientID = clientIDs[0]
	} else {
		tx.ClientID = clientIDs[rng.Intn(len(clientIDs))]
	}
	tx.Category = categories[rng.Intn(len(categories))]

	tx.InvoiceAmount = tx.Inflow
	due := tx.Date.AddDate(0, 0, 14)
	tx.DueDate = &due

	overdueChance := 0.1
	if scenario == "stressed" {
		overdueChance = 0.4
	}
	if rng.Float64() >= overdueChance {
		paid := due.AddDate(0, 0, rng.Intn(5)-2)
		if paid.After(end) {
			paid = end
		}
		tx.PaidDate = &paid
	}
}

// Save writes the rows as a canonical transactions CSV.
func Save(path string, rows []ledger.Transaction, withClients bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"date", "inflow", "outflow", "balance"}
	if withClients {
		header = append(header, "client_id", "category", "due_date", "paid_date", "invoice_amount")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, tx := range rows {
		record := []string{
			tx.Date.Format("2006-01-02"),
			formatAmount(tx.Inflow),
			formatAmount(tx.Outflow),
			formatAmount(tx.Balance),
		}
		if withClients {
			record = append(record,
				tx.ClientID,
				tx.Category,
				formatDate(tx.DueDate),
				formatDate(tx.PaidDate),
				formatAmount(tx.InvoiceAmount),
			)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

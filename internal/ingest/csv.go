// Package ingest loads canonical transaction CSVs. Column names are already
// normalized by the upstream cleaning layer; no alias mapping happens here or
// anywhere downstream.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"cashrisk-mcp/internal/ledger"
)

const dateLayout = "2006-01-02"

// Canonical column names. date plus either inflow/outflow or net_flow are
// required; everything else is optional.
const (
	colDate          = "date"
	colInflow        = "inflow"
	colOutflow       = "outflow"
	colNetFlow       = "net_flow"
	colBalance       = "balance"
	colClientID      = "client_id"
	colCategory      = "category"
	colDueDate       = "due_date"
	colPaidDate      = "paid_date"
	colInvoiceAmount = "invoice_amount"
)

// ReadFile loads a canonical transaction CSV from disk.
func ReadFile(path string) (ledger.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return ledger.Series{}, fmt.Errorf("open transactions file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a canonical transaction CSV. When no balance column exists, the
// running balance is accumulated from the net flows so downstream components
// always see a balance track.
func Read(r io.Reader) (ledger.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return ledger.Series{}, ledger.NewValidationError("csv", "empty input: a header row is required")
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	if _, ok := cols[colDate]; !ok {
		return ledger.Series{}, ledger.NewValidationError(colDate, "required column is missing")
	}
	_, hasInflow := cols[colInflow]
	_, hasOutflow := cols[colOutflow]
	_, hasNet := cols[colNetFlow]
	hasFlows := hasInflow && hasOutflow
	if !hasFlows && !hasNet {
		return ledger.Series{}, ledger.NewValidationError(colInflow, "either inflow/outflow or net_flow columns are required")
	}
	_, hasBalance := cols[colBalance]

	var rows []ledger.Transaction
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ledger.Series{}, fmt.Errorf("read transactions csv: %w", err)
		}
		line++

		tx, err := parseRow(record, cols, hasFlows, line)
		if err != nil {
			return ledger.Series{}, err
		}
		rows = append(rows, tx)
	}
	if len(rows) == 0 {
		return ledger.Series{}, ledger.NewValidationError("csv", "no transaction rows found")
	}

	series := ledger.NewSeries(rows, hasFlows, true)
	if !hasBalance {
		balance := 0.0
		for i := range series.Rows {
			balance += series.Rows[i].NetFlow
			series.Rows[i].Balance = balance
		}
	}

	log.Debug().
		Int("rows", len(series.Rows)).
		Bool("has_flows", hasFlows).
		Bool("balance_derived", !hasBalance).
		Msg("Loaded transaction series")

	return series, nil
}

func parseRow(record []string, cols map[string]int, hasFlows bool, line int) (ledger.Transaction, error) {
	var tx ledger.Transaction
	var err error

	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	tx.Date, err = time.Parse(dateLayout, field(colDate))
	if err != nil {
		return tx, fmt.Errorf("line %d: invalid date: %w", line, err)
	}

	if hasFlows {
		if tx.Inflow, err = parseAmount(field(colInflow)); err != nil {
			return tx, fmt.Errorf("line %d: invalid inflow: %w", line, err)
		}
		if tx.Outflow, err = parseAmount(field(colOutflow)); err != nil {
			return tx, fmt.Errorf("line %d: invalid outflow: %w", line, err)
		}
		if tx.Inflow < 0 || tx.Outflow < 0 {
			return tx, ledger.NewValidationError(colInflow, fmt.Sprintf("line %d: flows must be non-negative", line))
		}
	} else {
		if tx.NetFlow, err = parseAmount(field(colNetFlow)); err != nil {
			return tx, fmt.Errorf("line %d: invalid net_flow: %w", line, err)
		}
	}

	if v := field(colBalance); v != "" {
		if tx.Balance, err = parseAmount(v); err != nil {
			return tx, fmt.Errorf("line %d: invalid balance: %w", line, err)
		}
	}
	if v := field(colInvoiceAmount); v != "" {
		if tx.InvoiceAmount, err = parseAmount(v); err != nil {
			return tx, fmt.Errorf("line %d: invalid invoice_amount: %w", line, err)
		}
	}
	for _, c := range []struct {
		name string
		dst  **time.Time
	}{{colDueDate, &tx.DueDate}, {colPaidDate, &tx.PaidDate}} {
		if v := field(c.name); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				return tx, fmt.Errorf("line %d: invalid %s: %w", line, c.name, err)
			}
			*c.dst = &t
		}
	}

	tx.ClientID = field(colClientID)
	tx.Category = field(colCategory)
	return tx, nil
}

func parseAmount(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

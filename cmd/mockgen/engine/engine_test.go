package engine

import (
	"testing"
	"time"
)

func baseConfig(scenario string) GeneratorConfig {
	return GeneratorConfig{
		Scenario: scenario,
		Days:     90,
		Seed:     42,
		End:      time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestGenerate_Validation(t *testing.T) {
	if _, err := Generate(GeneratorConfig{Scenario: "stable", Days: 0}); err == nil {
		t.Error("expected error for zero days")
	}
	if _, err := Generate(GeneratorConfig{Scenario: "volcanic", Days: 10}); err == nil {
		t.Error("expected error for unknown scenario")
	}
}

func TestGenerate_Shape(t *testing.T) {
	rows, err := Generate(baseConfig("stable"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 90 {
		t.Fatalf("got %d rows, want 90", len(rows))
	}

	for i, r := range rows {
		if r.Inflow < 0 || r.Outflow < 0 {
			t.Errorf("row %d has negative flow: %+v", i, r)
		}
		if i > 0 && !rows[i-1].Date.Before(r.Date) {
			t.Errorf("rows not strictly ordered at %d", i)
		}
	}
	last := rows[len(rows)-1].Date
	want := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	if !last.Equal(want) {
		t.Errorf("last date = %v, want %v", last, want)
	}
}

func TestGenerate_SeedDeterminism(t *testing.T) {
	a, err := Generate(baseConfig("seasonal"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(baseConfig("seasonal"))
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Inflow != b[i].Inflow || a[i].Outflow != b[i].Outflow || a[i].Balance != b[i].Balance {
			t.Fatalf("row %d differs across identical seeded runs", i)
		}
	}
}

func TestGenerate_StressedDeclines(t *testing.T) {
	rows, err := Generate(baseConfig("stressed"))
	if err != nil {
		t.Fatal(err)
	}

	firstHalf, secondHalf := 0.0, 0.0
	for i, r := range rows {
		if i < len(rows)/2 {
			firstHalf += r.Inflow
		} else {
			secondHalf += r.Inflow
		}
	}
	if secondHalf >= firstHalf {
		t.Errorf("stressed inflows should decay: first half %v, second half %v", firstHalf, secondHalf)
	}
}

func TestGenerate_ClientDecoration(t *testing.T) {
	cfg := baseConfig("stressed")
	cfg.WithClients = true
	rows, err := Generate(cfg)
	if err != nil {
		t.Fatal(err)
	}

	dominant := 0
	for _, r := range rows {
		if r.ClientID == "" || r.Category == "" || r.DueDate == nil {
			t.Fatalf("expected client decoration on every row, got %+v", r)
		}
		if r.ClientID == clientIDs[0] {
			dominant++
		}
	}
	if dominant < len(rows)/2 {
		t.Errorf("stressed scenario should concentrate on %s: %d of %d rows", clientIDs[0], dominant, len(rows))
	}
}

func TestGenerate_BalanceAccumulates(t *testing.T) {
	rows, err := Generate(baseConfig("stable"))
	if err != nil {
		t.Fatal(err)
	}
	balance := initialBalance
	for i, r := range rows {
		balance += r.Inflow - r.Outflow
		diff := balance - r.Balance
		if diff > 0.02 || diff < -0.02 {
			t.Fatalf("row %d balance %v drifts from accumulated %v", i, r.Balance, balance)
		}
		balance = r.Balance
	}
}

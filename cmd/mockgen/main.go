package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"cashrisk-mcp/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "stable", "Scenario to generate: stable, seasonal, stressed")
	days := flag.Int("days", 180, "Number of daily records to generate")
	seed := flag.Int64("seed", 42, "RNG seed")
	out := flag.String("out", "./.cache/transactions.csv", "Output CSV path")
	clients := flag.Bool("clients", false, "Include client, category and invoice columns")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:    *scenario,
		Days:        *days,
		Seed:        *seed,
		WithClients: *clients,
		End:         time.Now(),
	}

	fmt.Printf("Generating scenario '%s' (%d days, seed %d) to %s...\n", cfg.Scenario, cfg.Days, cfg.Seed, *out)

	rows, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Save(*out, rows, cfg.WithClients); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}

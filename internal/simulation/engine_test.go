package simulation

import (
	"context"
	"testing"
	"time"
)

func testParams(seed int64, days, paths int) Parameters {
	return Parameters{
		Days:           days,
		Paths:          paths,
		InitialBalance: 5000,
		StartDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Inflow:         &Distribution{MeanMin: 900, MeanMax: 1100, StdFloor: 150},
		Outflow:        &Distribution{MeanMin: 950, MeanMax: 1050, StdFloor: 100},
		Seed:           &seed,
		MeanRedraw:     MeanRedrawDaily,
	}
}

func TestEngine_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"ZeroDays", func(p *Parameters) { p.Days = 0 }},
		{"ZeroPaths", func(p *Parameters) { p.Paths = 0 }},
		{"NoDistributions", func(p *Parameters) { p.Inflow, p.Outflow, p.NetFlow = nil, nil, nil }},
		{"InflowWithoutOutflow", func(p *Parameters) { p.Outflow = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams(1, 10, 10)
			tt.mutate(&p)
			if _, err := NewEngine(p).Run(context.Background()); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEngine_ShapeAndBounds(t *testing.T) {
	p := testParams(42, 30, 200)
	forecast, err := NewEngine(p).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(forecast.Days) != p.Days {
		t.Fatalf("got %d forecast days, want %d", len(forecast.Days), p.Days)
	}
	if len(forecast.Paths) != p.Paths {
		t.Fatalf("got %d paths, want %d", len(forecast.Paths), p.Paths)
	}

	for i, d := range forecast.Days {
		wantDate := p.StartDate.AddDate(0, 0, i)
		if !d.Date.Equal(wantDate) {
			t.Errorf("day %d date = %v, want %v", i, d.Date, wantDate)
		}
		// Percentiles must be monotonically non-decreasing within a day.
		ps := []float64{d.Min, d.P5, d.P10, d.P25, d.P50, d.P75, d.P90, d.P95, d.Max}
		for j := 1; j < len(ps); j++ {
			if ps[j] < ps[j-1] {
				t.Errorf("day %d percentile order violated: %v", i, ps)
				break
			}
		}
		if d.ProbNegative < 0 || d.ProbNegative > 1 {
			t.Errorf("day %d ProbNegative = %v, want [0,1]", i, d.ProbNegative)
		}
	}
}

func TestEngine_SeedDeterminism(t *testing.T) {
	run := func() *Forecast {
		f, err := NewEngine(testParams(42, 20, 100)).Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return f
	}

	a, b := run(), run()
	for day := range a.Days {
		if a.Days[day] != b.Days[day] {
			t.Fatalf("day %d differs across identical seeded runs:\n%+v\n%+v", day, a.Days[day], b.Days[day])
		}
	}
	for path := range a.Paths {
		for day := range a.Paths[path] {
			if a.Paths[path][day] != b.Paths[path][day] {
				t.Fatalf("path %d day %d differs across identical seeded runs", path, day)
			}
		}
	}
}

func TestEngine_DifferentSeedsDiffer(t *testing.T) {
	f1, err := NewEngine(testParams(1, 10, 50)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	f2, err := NewEngine(testParams(2, 10, 50)).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	same := true
	for day := range f1.Days {
		if f1.Days[day] != f2.Days[day] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical forecasts")
	}
}

func TestEngine_PerPathMode(t *testing.T) {
	p := testParams(7, 15, 100)
	p.MeanRedraw = MeanRedrawPerPath

	forecast, err := NewEngine(p).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(forecast.Days) != p.Days {
		t.Fatalf("got %d days, want %d", len(forecast.Days), p.Days)
	}
}

func TestEngine_ZeroStdNetFlowIsDeterministicDrift(t *testing.T) {
	seed := int64(3)
	p := Parameters{
		Days:           5,
		Paths:          10,
		InitialBalance: 100,
		StartDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		NetFlow:        &Distribution{MeanMin: 10, MeanMax: 10, StdFloor: 0},
		Seed:           &seed,
		MeanRedraw:     MeanRedrawDaily,
	}

	forecast, err := NewEngine(p).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for day, d := range forecast.Days {
		want := 100 + float64(day+1)*10
		if d.Min != want || d.Max != want {
			t.Errorf("day %d = [%v, %v], want constant %v", day, d.Min, d.Max, want)
		}
		if d.ProbNegative != 0 {
			t.Errorf("day %d ProbNegative = %v, want 0", day, d.ProbNegative)
		}
	}
}

func TestEngine_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(testParams(1, 1000, 10000)).Run(ctx)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestPathSeed_Distinct(t *testing.T) {
	seen := make(map[int64]int)
	for path := 0; path < 10000; path++ {
		s := pathSeed(42, path)
		if prev, ok := seen[s]; ok {
			t.Fatalf("paths %d and %d share seed %d", prev, path, s)
		}
		seen[s] = path
	}
}

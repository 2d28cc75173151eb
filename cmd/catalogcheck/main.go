// Command catalogcheck validates a wildfire catalog CSV before it is deployed
// alongside the dashboard. It checks the header, per-row value ranges, start
// dates, and duplicate records, then prints a short summary of the catalog.
//
// Usage:
//
//	go run ./cmd/catalogcheck -path data/major_wildfires.csv
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/fire-aq-dashboard/internal/adapter/csvcatalog"
	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("path", "data/major_wildfires.csv", "path to the wildfire catalog CSV")
	flag.Parse()

	if _, code := run(*path, clockwork.NewRealClock(), os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(path string, clock clockwork.Clock, w io.Writer) ([]domain.FireRecord, int) {
	fmt.Fprintln(w, "=== Wildfire Catalog Validation ===")
	fmt.Fprintln(w)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(w, "FATAL: open catalog: %v\n", err)
		return nil, 1
	}
	defer f.Close()

	fires, skipped, err := csvcatalog.Parse(f)
	if err != nil {
		fmt.Fprintf(w, "FATAL: parse catalog: %v\n", err)
		return nil, 1
	}

	phases := []*phase{
		validateRows(skipped),
		validateRanges(fires),
		validateDates(fires, clock.Now()),
		validateDuplicates(fires),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	printSummary(w, fires)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return fires, 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return nil, 1
}

// ── Phase 1: Row parsing ──

func validateRows(skipped []csvcatalog.RowError) *phase {
	p := &phase{name: "Phase 1: Row parsing"}
	for _, s := range skipped {
		p.errorf("%s", s.Error())
	}
	return p
}

// ── Phase 2: Value ranges ──

func validateRanges(fires []domain.FireRecord) *phase {
	p := &phase{name: "Phase 2: Coordinates and intensity"}
	for i, f := range fires {
		if f.Name == "" {
			p.errorf("record %d: name is empty", i+1)
		}
		if f.Country == "" {
			p.errorf("record %d (%s): country is empty", i+1, f.Name)
		}
		if math.IsNaN(f.Latitude) || f.Latitude < -90 || f.Latitude > 90 {
			p.errorf("record %d (%s): latitude %g out of range", i+1, f.Name, f.Latitude)
		}
		if math.IsNaN(f.Longitude) || f.Longitude < -180 || f.Longitude > 180 {
			p.errorf("record %d (%s): longitude %g out of range", i+1, f.Name, f.Longitude)
		}
		if math.IsNaN(f.IntensityFRP) || math.IsInf(f.IntensityFRP, 0) || f.IntensityFRP < 0 {
			p.errorf("record %d (%s): intensity_frp %g is not a non-negative number", i+1, f.Name, f.IntensityFRP)
		}
	}
	return p
}

// ── Phase 3: Start dates ──

func validateDates(fires []domain.FireRecord, now time.Time) *phase {
	p := &phase{name: "Phase 3: Start dates"}
	for i, f := range fires {
		switch {
		case f.StartDate.IsZero():
			p.errorf("record %d (%s): start_date missing or unparseable", i+1, f.Name)
		case f.StartDate.After(now):
			p.errorf("record %d (%s): start_date %s is in the future", i+1, f.Name, f.StartDate.Format(time.DateOnly))
		}
	}
	return p
}

// ── Phase 4: Duplicates ──

func validateDuplicates(fires []domain.FireRecord) *phase {
	p := &phase{name: "Phase 4: Duplicate records"}
	seen := make(map[string]int, len(fires))
	for i, f := range fires {
		key := f.Name + "|" + f.Country + "|" + f.StartDate.Format(time.DateOnly)
		if first, ok := seen[key]; ok {
			p.errorf("record %d duplicates record %d (%s, %s)", i+1, first, f.Name, f.Country)
			continue
		}
		seen[key] = i + 1
	}
	return p
}

func printSummary(w io.Writer, fires []domain.FireRecord) {
	countries := domain.CountryOptions(fires)[1:]
	fmt.Fprintf(w, "Records: %d fires across %d countries\n", len(fires), len(countries))

	if lo, hi, ok := domain.IntensityBounds(fires); ok {
		fmt.Fprintf(w, "Intensity (FRP): %d to %d\n", lo, hi)
	}

	var dates []time.Time
	for _, f := range fires {
		if !f.StartDate.IsZero() {
			dates = append(dates, f.StartDate)
		}
	}
	if len(dates) > 0 {
		earliest := slices.MinFunc(dates, time.Time.Compare)
		latest := slices.MaxFunc(dates, time.Time.Compare)
		fmt.Fprintf(w, "Start dates: %s to %s\n", earliest.Format(time.DateOnly), latest.Format(time.DateOnly))
	}
}

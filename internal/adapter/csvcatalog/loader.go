package csvcatalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-aq-dashboard/internal/domain"
)

// ErrCatalogUnavailable wraps every load failure of the file source. The
// file does not change while the service runs, so these failures are final.
var ErrCatalogUnavailable = errors.New("fire catalog unavailable")

// Columns lists the required header fields. Column order in the file is free.
var Columns = []string{"name", "country", "start_date", "latitude", "longitude", "intensity_frp"}

// dateLayouts are tried in order when parsing start_date.
var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006/01/02", "01/02/2006"}

// Loader reads the historical wildfire catalog from a CSV file.
type Loader struct {
	path   string
	logger *slog.Logger
}

// NewLoader creates a Loader for the CSV file at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

// LoadFires opens and parses the catalog file. Errors wrap
// ErrCatalogUnavailable; a missing file also wraps os.ErrNotExist.
func (l *Loader) LoadFires(_ context.Context) ([]domain.FireRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
		}
		return nil, fmt.Errorf("%w: open: %w", ErrCatalogUnavailable, err)
	}
	defer f.Close()

	fires, skipped, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrCatalogUnavailable, l.path, err)
	}
	for _, s := range skipped {
		l.logger.Warn("skipping fire catalog row", "path", l.path, "line", s.Line, "error", s.Err)
	}
	l.logger.Info("fire catalog loaded", "path", l.path, "rows", len(fires), "skipped", len(skipped))
	return fires, nil
}

// RowError describes a data row that could not be turned into a FireRecord.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Parse reads a catalog CSV. Header problems are fatal; malformed data rows
// are skipped and reported in the returned RowError slice.
func Parse(r io.Reader) ([]domain.FireRecord, []RowError, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty file")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		fires   []domain.FireRecord
		skipped []RowError
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped = append(skipped, RowError{Line: perr.Line, Err: perr.Err})
				continue
			}
			return nil, nil, fmt.Errorf("read row: %w", err)
		}

		line, _ := cr.FieldPos(0)
		rec, err := parseRow(row, idx)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Err: err})
			continue
		}
		fires = append(fires, rec)
	}
	return fires, skipped, nil
}

// columnIndex maps each required column to its position in the header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// parseRow converts one data row using the header index from columnIndex.
// An unparseable start_date is kept as the zero time; coordinates and
// intensity must be numeric.
func parseRow(row []string, idx map[string]int) (domain.FireRecord, error) {
	field := func(name string) string {
		i := idx[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	lat, err := strconv.ParseFloat(field("latitude"), 64)
	if err != nil {
		return domain.FireRecord{}, fmt.Errorf("latitude %q: %w", field("latitude"), err)
	}
	lon, err := strconv.ParseFloat(field("longitude"), 64)
	if err != nil {
		return domain.FireRecord{}, fmt.Errorf("longitude %q: %w", field("longitude"), err)
	}
	frp, err := strconv.ParseFloat(field("intensity_frp"), 64)
	if err != nil {
		return domain.FireRecord{}, fmt.Errorf("intensity_frp %q: %w", field("intensity_frp"), err)
	}

	return domain.FireRecord{
		Name:         field("name"),
		Country:      field("country"),
		StartDate:    parseDate(field("start_date")),
		Latitude:     lat,
		Longitude:    lon,
		IntensityFRP: frp,
	}, nil
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

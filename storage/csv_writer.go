package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"econdata-collector/models"
)

// CSVSink is the local fallback sink: when the warehouse is unreachable a
// finished run's records are written to one CSV file per batch so nothing
// is lost. File names carry the table and batch timestamp.
type CSVSink struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewCSVSink creates the output directory if needed.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVSink{dir: dir, now: time.Now}, nil
}

// Append writes the batch to a new timestamped file. The header is the
// sorted union of field names in the batch plus the record stamps; fields
// a record does not carry render as empty cells, nulls render as empty.
func (c *CSVSink) Append(table string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	columns := fieldColumns(records)
	header := append([]string{"data_source", "collected_at"}, columns...)

	name := fmt.Sprintf("%s-%s.csv", table, c.now().UTC().Format("20060102T150405"))
	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, rec := range records {
		row := make([]string, 0, len(header))
		row = append(row, rec.DataSource, rec.CollectedAt.Format(time.RFC3339))
		for _, col := range columns {
			row = append(row, cellString(rec.Fields[col]))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

// Close is a no-op; each batch owns its own file handle.
func (c *CSVSink) Close() error { return nil }

func fieldColumns(records []models.Record) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec.Fields {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

func cellString(v models.Value) string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case models.KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case models.KindDate:
		return v.Date.Format(time.RFC3339)
	default:
		return v.Str
	}
}

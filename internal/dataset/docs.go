package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// DocumentRow is one row of the retrieved-document table (docs.csv).
type DocumentRow struct {
	DocID         string
	Subject       string
	Slot          string
	FactText      string
	FactTimestamp *time.Time
	Source        string
	Stale         bool
	Title         string
	Body          string
}

// timestampLayout is the on-disk date format shared by both input files.
const timestampLayout = "2006-01-02"

// ParseTimestamp parses an ISO date, returning nil for an empty or
// unparseable value. An absent timestamp is treated as "oldest" downstream.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

var docRequiredColumns = []string{"doc_id", "subject", "fact_text"}

// LoadDocuments reads the document table from a headered CSV file.
// Column order is free; doc_id, subject and fact_text must be present in the
// header. Rows with the wrong field count are returned as skips, not errors.
func LoadDocuments(path string) ([]DocumentRow, []SkippedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open documents file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read documents header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	var missing []string
	for _, name := range docRequiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("documents file %s missing columns: %s", path, strings.Join(missing, ", "))
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var docs []DocumentRow
	var skipped []SkippedRow
	line := 1
	for {
		row, err := r.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped = append(skipped, SkippedRow{
				RowID:  fmt.Sprintf("%s:%d", path, line),
				Reason: fmt.Sprintf("unparseable csv row: %v", err),
			})
			continue
		}
		if len(row) != len(header) {
			skipped = append(skipped, SkippedRow{
				RowID:  fmt.Sprintf("%s:%d", path, line),
				Reason: fmt.Sprintf("expected %d fields, got %d", len(header), len(row)),
			})
			continue
		}

		stale, _ := strconv.ParseBool(field(row, "stale"))
		docs = append(docs, DocumentRow{
			DocID:         field(row, "doc_id"),
			Subject:       field(row, "subject"),
			Slot:          field(row, "slot"),
			FactText:      field(row, "fact_text"),
			FactTimestamp: ParseTimestamp(field(row, "fact_timestamp")),
			Source:        field(row, "source"),
			Stale:         stale,
			Title:         field(row, "title"),
			Body:          field(row, "body"),
		})
	}

	return docs, skipped, nil
}

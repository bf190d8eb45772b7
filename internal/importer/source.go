package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rpggio/timesheet-mcp/internal/domain/activity"
)

// Source supplies raw rows, header first.
type Source interface {
	Read(ctx context.Context) ([][]string, error)
	// Name identifies the source in the import history.
	Name() string
}

// Load reads src and parses its rows.
func Load(ctx context.Context, src Source) ([]activity.Original, Stats, error) {
	rows, err := src.Read(ctx)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	acts, stats := ParseRows(rows)
	return acts, stats, nil
}

// Static serves rows already in memory.
type Static struct {
	Label string
	Rows  [][]string
}

func (s Static) Read(context.Context) ([][]string, error) { return s.Rows, nil }

func (s Static) Name() string {
	if s.Label == "" {
		return "inline"
	}
	return s.Label
}

// CSVFile reads a delimited text export. The delimiter is detected from the header line.
type CSVFile struct {
	Path string
}

func (f CSVFile) Name() string { return filepath.Base(f.Path) }

func (f CSVFile) Read(ctx context.Context) ([][]string, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses delimited rows. Semicolon is used when the first line has more
// semicolons than commas.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	first, _, _ := strings.Cut(text, "\n")

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// Package source reads the maintenance log as a grid of untyped cells.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "github.com/muaviaUsmani/maintreminder/internal/errors"
)

// Table is the header row plus the data rows below it, cut to the
// configured range
type Table struct {
	Header []any
	Rows   [][]any
}

// Source fetches the maintenance log
type Source interface {
	// Fetch returns the header and the data rows within the range
	Fetch(ctx context.Context) (*Table, error)
	// Name describes the source for logs
	Name() string
}

// Options selects and bounds a source
type Options struct {
	// Path is a local file path or s3://bucket/key
	Path string
	// Range is an A1 window; its first row is the header
	Range string

	// AWS settings for s3:// paths
	Region    string
	AccessKey string
	SecretKey string
}

// New picks a source implementation from the path scheme
func New(ctx context.Context, opts Options) (Source, error) {
	rng, err := ParseRange(opts.Range)
	if err != nil {
		return nil, apperrors.Configuration("parse sheet range", err)
	}

	if strings.HasPrefix(opts.Path, "s3://") {
		return NewS3Source(ctx, opts.Path, rng, opts.Region, opts.AccessKey, opts.SecretKey)
	}
	return NewCSVSource(opts.Path, rng), nil
}

// CSVSource reads a local CSV export of the log
type CSVSource struct {
	path string
	rng  Range
}

// NewCSVSource creates a source for the CSV file at path
func NewCSVSource(path string, rng Range) *CSVSource {
	return &CSVSource{path: path, rng: rng}
}

// Name implements Source
func (s *CSVSource) Name() string {
	return s.path
}

// Fetch implements Source
func (s *CSVSource) Fetch(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.SourceAccess("read "+s.path, err)
	}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Configuration("open sheet", err)
		}
		return nil, apperrors.SourceAccess("open sheet", err)
	}
	defer f.Close()

	return readTable(f, s.rng, s.path)
}

// readTable parses CSV content and cuts the range out of it
func readTable(r io.Reader, rng Range, name string) (*Table, error) {
	grid, err := readCSV(r)
	if err != nil {
		return nil, apperrors.SourceAccess("parse "+name, err)
	}

	cells := rng.Apply(grid)
	if len(cells) == 0 {
		return nil, apperrors.Configurationf("read "+name, "no header row at %s", rng)
	}

	return &Table{Header: cells[0], Rows: cells[1:]}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads every record, tolerating ragged rows and a leading BOM
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed csv: %w", err)
	}
	return records, nil
}

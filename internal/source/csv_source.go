package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/nutriguide/nutriload/internal/files/filesystem"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// maxLoggedMalformed bounds the per-file verbose log of skipped rows.
const maxLoggedMalformed = 5

// cancelCheckInterval is how many rows are decoded between context checks.
const cancelCheckInterval = 10000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource implements nutriload.Source over a data directory.
type CSVSource struct {
	fs     filesystem.FileSystemProvider
	dir    string
	files  nutriload.SourceFiles
	logger nutriload.Logger
}

// NewCSVSource panics if fs or logger is nil.
func NewCSVSource(fs filesystem.FileSystemProvider, dir string, files nutriload.SourceFiles, logger nutriload.Logger) *CSVSource {
	if fs == nil {
		panic("filesystem cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &CSVSource{fs: fs, dir: dir, files: files, logger: logger}
}

func (s *CSVSource) Categories(ctx context.Context) (nutriload.RecordSet[nutriload.CategoryRecord], error) {
	return readAll[nutriload.CategoryRecord](ctx, s, s.files.Categories)
}

func (s *CSVSource) Nutrients(ctx context.Context) (nutriload.RecordSet[nutriload.NutrientRecord], error) {
	return readAll[nutriload.NutrientRecord](ctx, s, s.files.Nutrients)
}

func (s *CSVSource) Foods(ctx context.Context) (nutriload.RecordSet[nutriload.FoodRecord], error) {
	return readAll[nutriload.FoodRecord](ctx, s, s.files.Foods)
}

func (s *CSVSource) Facts(ctx context.Context) (nutriload.RecordSet[nutriload.FactRecord], error) {
	return readAll[nutriload.FactRecord](ctx, s, s.files.Facts)
}

func readAll[T any](ctx context.Context, s *CSVSource, name string) (nutriload.RecordSet[T], error) {
	path := filepath.Join(s.dir, name)
	set := nutriload.RecordSet[T]{Path: path}

	if err := ctx.Err(); err != nil {
		return set, err
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return set, s.unreadable(path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return set, fmt.Errorf("%s has no header row: %w", path, nutriload.ErrSourceUnreadable)
		}
		return set, fmt.Errorf("%s: cannot read header: %w", path, errors.Join(err, nutriload.ErrSourceUnreadable))
	}
	header = trimHeader(header)

	if err := requireColumns[T](header); err != nil {
		return set, fmt.Errorf("%s: %w", path, err)
	}

	// The decoder matches fields against the trimmed header, not the raw first line.
	dec, err := csvutil.NewDecoder(r, header...)
	if err != nil {
		return set, fmt.Errorf("%s: cannot read header: %w", path, errors.Join(err, nutriload.ErrSourceUnreadable))
	}

	for n := 1; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return set, err
			}
		}

		var row T
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			set.Malformed++
			if set.Malformed <= maxLoggedMalformed {
				s.logger.Verbose("Skipping malformed row in %s: %v", name, err)
			}
			continue
		}
		set.Rows = append(set.Rows, row)
	}

	if set.Malformed > maxLoggedMalformed {
		s.logger.Verbose("%d further malformed rows in %s not shown", set.Malformed-maxLoggedMalformed, name)
	}
	s.logger.Verbose("Read %d rows from %s (%d malformed)", len(set.Rows), name, set.Malformed)
	return set, nil
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// requireColumns checks that every csv-tagged field of T has a column.
func requireColumns[T any](header []string) error {
	var zero T
	want, err := csvutil.Header(zero, "csv")
	if err != nil {
		return err
	}

	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}

	var missing []string
	for _, col := range want {
		if _, ok := have[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s) %s: %w",
			strings.Join(missing, ", "), nutriload.ErrSourceUnreadable)
	}
	return nil
}

// unreadable wraps a read failure and, when the file is simply absent,
// lists the CSV files that are present to help spot a wrong data directory.
func (s *CSVSource) unreadable(path string, err error) error {
	entries, dirErr := s.fs.ReadDir(s.dir)
	if dirErr != nil {
		return fmt.Errorf("cannot read %s: %w", path, errors.Join(err, nutriload.ErrSourceUnreadable))
	}

	var csvs []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			csvs = append(csvs, e.Name())
		}
	}
	sort.Strings(csvs)

	found := "none"
	if len(csvs) > 0 {
		found = strings.Join(csvs, ", ")
	}
	return fmt.Errorf("cannot read %s (CSV files in %s: %s): %w",
		path, s.dir, found, errors.Join(err, nutriload.ErrSourceUnreadable))
}

var _ nutriload.Source = (*CSVSource)(nil)

// Package table loads delimited product-sales files into immutable
// datasets. Required columns are validated once against a role mapping;
// rows with an unparseable price or rating are excluded and reported as
// data-quality warnings. Bad optional numeric cells are dropped from the
// row, which is kept.
package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// Options controls how a file is parsed.
type Options struct {
	// Delimiter separates fields. Zero sniffs ',', ';' or '\t' from the header.
	Delimiter rune
	// DeriveRevenue computes price × sales when no revenue column exists.
	DeriveRevenue bool
	// Source labels the input in errors and on the dataset.
	Source string
}

// Option configures a load.
type Option func(*Options)

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(o *Options) {
		o.Delimiter = d
	}
}

// WithDeriveRevenue toggles derived revenue.
func WithDeriveRevenue(derive bool) Option {
	return func(o *Options) {
		o.DeriveRevenue = derive
	}
}

// WithSource sets the source label.
func WithSource(src string) Option {
	return func(o *Options) {
		o.Source = src
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadFile reads the file at path. The dataset's ModTime is taken from the
// file so callers can detect changes without re-reading it.
func LoadFile(path, id string, schema domain.Schema, opts ...Option) (*domain.Dataset, error) {
	f, err := os.Open(path) //nolint:gosec // dataset path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	ds, err := Load(f, id, schema, append([]Option{WithSource(path)}, opts...)...)
	if err != nil {
		return nil, err
	}
	ds.ModTime = info.ModTime()
	return ds, nil
}

// Load parses a delimited table from r. Derived revenue is computed here,
// exactly once per load.
func Load(r io.Reader, id string, schema domain.Schema, opts ...Option) (*domain.Dataset, error) {
	o := Options{DeriveRevenue: true, Source: id}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", o.Source, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%s: %w", o.Source, domain.ErrEmptyDataset)
	}

	delim := o.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", o.Source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	p, err := newPlan(header, schema, o)
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		ID:       id,
		LoadID:   uuid.NewString(),
		Source:   o.Source,
		Schema:   schema,
		LoadedAt: time.Now(),
	}

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				ds.Warnings = append(ds.Warnings, domain.DataQualityWarning{
					Line: line, Reason: pe.Err.Error(),
				})
				continue
			}
			return nil, fmt.Errorf("reading %s line %d: %w", o.Source, line, err)
		}

		if isBlank(row) {
			continue
		}

		rec, warns, ok := p.record(row, line, len(ds.Records))
		ds.Warnings = append(ds.Warnings, warns...)
		if ok {
			ds.Records = append(ds.Records, rec)
		}
	}

	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("%s: %w", o.Source, domain.ErrEmptyDataset)
	}

	ds.Columns = p.columns(ds.Records)
	return ds, nil
}

// sniffDelimiter picks the most frequent candidate in the header line.
func sniffDelimiter(data []byte) rune {
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}

	best, bestCount := ',', 0
	for _, c := range []rune{',', ';', '\t'} {
		if n := bytes.Count(first, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts plain decimal numbers, with optional surrounding
// spaces and a trailing percent sign.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

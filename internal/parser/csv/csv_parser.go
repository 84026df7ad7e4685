// Package csv parses delimited text into a table.Table of string cells. Empty
// cells become nulls; typing is left to the schema package. Rows with the
// wrong number of fields, or that encoding/csv cannot read, are skipped and
// counted rather than aborting the whole file.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"evstar/internal/table"
)

// Options configures the parser. Zero values are sensible defaults.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each value.
	TrimSpace bool

	// HeaderMap maps source header text to canonical column names. Headers
	// not in the map are normalized to lowercase snake_case ASCII.
	HeaderMap map[string]string

	// MaxLoggedSkips bounds how many skipped rows are logged individually
	// (default 400). All skips are counted.
	MaxLoggedSkips int

	Logger *slog.Logger
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.MaxLoggedSkips <= 0 {
		opt.MaxLoggedSkips = 400
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return &Parser{opt: opt}
}

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse reads a header row and all data rows from r. It returns the table and
// the number of skipped rows.
func (p *Parser) Parse(r io.Reader) (*table.Table, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced below so a bad row is skipped instead of fatal.
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read csv header: empty input")
		}
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h, p.opt)
	cols := make([]table.Column, len(headers))
	for i, name := range headers {
		cols[i] = table.Column{Name: name, Type: table.TypeString}
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, 0, fmt.Errorf("csv header: %w", err)
	}

	var skipped int
	vals := make([]table.Value, len(headers))
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.skip(&skipped, line, err.Error())
			continue
		}
		if len(row) != len(headers) {
			p.skip(&skipped, line, fmt.Sprintf("incorrect number of fields (expected %d, got %d)", len(headers), len(row)))
			continue
		}
		for i, s := range row {
			if p.opt.TrimSpace {
				s = strings.TrimSpace(s)
			}
			if s == "" {
				vals[i] = table.Null()
				continue
			}
			vals[i] = table.String(strings.Clone(s))
		}
		if err := out.Append(vals...); err != nil {
			return nil, skipped, fmt.Errorf("csv line %d: %w", line, err)
		}
	}
	return out, skipped, nil
}

func (p *Parser) skip(n *int, line int, reason string) {
	if *n < p.opt.MaxLoggedSkips {
		p.opt.Logger.Warn("csv: skipping row", slog.Int("line", line), slog.String("reason", reason))
	}
	*n++
}

// normalizeHeaders produces canonical column names using HeaderMap when it
// has an entry and NormalizeFieldName otherwise. A UTF-8 BOM on the first
// cell is dropped.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if m, ok := opt.HeaderMap[c]; ok && m != "" {
			res[i] = m
			continue
		}
		res[i] = NormalizeFieldName(c)
	}
	return res
}

// NormalizeFieldName converts header text into a lowercase ASCII identifier:
// accents are stripped, runs of space, dash, dot and underscore become one
// underscore, anything else outside [a-z0-9] is dropped. Empty results become
// "col".
func NormalizeFieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}

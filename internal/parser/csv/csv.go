// Package csv decodes one delimited-text stream into a table. It is purely
// structural: no cleaning or filtering happens here, only delimiter and
// header handling, optional decompression, and index-column promotion.
package csv

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"tablejig/pkg/table"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// Options configures the parser. The zero value reads comma-separated data
// with a header row.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// NoHeader indicates the first row is data; columns are then named
	// col_0, col_1, … by position.
	NoHeader bool

	// TrimSpace trims leading/trailing ASCII spaces from each field value.
	TrimSpace bool

	// LazyQuotes tolerates bare quotes inside fields, for real-world exports
	// with sloppy quoting.
	LazyQuotes bool

	// ExpectedFields, when > 0, enforces a fixed field count per record,
	// header row included. Any row with a different width is a hard error.
	// For headerless data it also sets the column count up front, so an
	// empty stream still yields a table of that width. Zero derives the
	// width from the first row.
	ExpectedFields int

	// Compression names the whole-stream compression. Supported: "", "gzip".
	// Only for bare compressed sources: gzip archive entries arrive from the
	// stream opener already inflated, and setting "gzip" for those would
	// decompress twice and fail.
	Compression string

	// IndexCol selects the row-index column, by header name (string) or
	// zero-based position (int). Nil leaves the table unindexed.
	IndexCol any

	// HeaderMap renames source headers to canonical column names before any
	// other stage sees them.
	HeaderMap map[string]string
}

// Parser decodes streams per its Options. Safe to reuse across streams;
// not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse consumes r to EOF and returns exactly one table. Ragged rows are a
// hard error: this pipeline has no partial-success mode, a malformed source
// aborts the build.
func (p *Parser) Parse(r io.Reader) (*table.Table, error) {
	if p.opt.Compression == "gzip" {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzip stream")
		}
		defer gz.Close()
		r = gz
	} else if p.opt.Compression != "" {
		return nil, errors.Errorf("unsupported compression %q", p.opt.Compression)
	}

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.LazyQuotes = p.opt.LazyQuotes
	// encoding/csv enforces the width on every record, the header included.
	cr.FieldsPerRecord = p.opt.ExpectedFields

	var headers []string
	var rows [][]string
	if !p.opt.NoHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, errors.Wrap(err, "reading header")
		}
		headers = p.normalizeHeaders(h)
	} else if p.opt.ExpectedFields > 0 {
		headers = syntheticHeaders(p.opt.ExpectedFields)
	}

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading row %d", line)
		}
		if headers == nil {
			headers = syntheticHeaders(len(row))
		}
		vals := make([]string, len(row))
		copy(vals, row)
		rows = append(rows, vals)
	}

	cols := make([]table.Column, len(headers))
	for i, name := range headers {
		vals := make([]any, len(rows))
		for j, row := range rows {
			v := row[i]
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			if v == "" {
				vals[j] = nil
			} else {
				vals[j] = v
			}
		}
		cols[i] = table.Column{Name: name, Values: vals}
	}

	t, err := table.New(cols...)
	if err != nil {
		return nil, errors.Wrap(err, "assembling table")
	}
	if err := p.promoteIndex(t, headers); err != nil {
		return nil, err
	}
	return t, nil
}

func syntheticHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = "col_" + strconv.Itoa(i)
	}
	return headers
}

func (p *Parser) promoteIndex(t *table.Table, headers []string) error {
	switch idx := p.opt.IndexCol.(type) {
	case nil:
		return nil
	case string:
		return errors.Wrap(t.PromoteIndex(idx), "promoting index column")
	case int:
		if idx < 0 || idx >= len(headers) {
			return errors.Errorf("index column %d out of range (%d columns)", idx, len(headers))
		}
		return errors.Wrap(t.PromoteIndex(headers[idx]), "promoting index column")
	default:
		return errors.Errorf("index column must be a name or position, got %T", idx)
	}
}

// normalizeHeaders trims cells, strips the BOM from the first one, and
// applies HeaderMap renames. Unlike cleaning stages, no case munging happens
// here: configured column lists match source headers verbatim.
func (p *Parser) normalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if m, ok := p.opt.HeaderMap[c]; ok && m != "" {
			c = m
		}
		res[i] = c
	}
	return res
}

// Package builder orchestrates the table-building pipeline: expand the
// configured patterns into sources, open each source as a sequence of
// streams, parse each stream into a table, project it to the configured
// columns, clean it, and fold it into the accumulated result.
//
// The fold is strictly ordered: sources combine in enumeration order, and
// the first parsed table resolves a wildcard column list for the whole run.
// Parsing may optionally run ahead in parallel (Config.Workers), but the
// fold itself never reorders.
package builder

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"tablejig/internal/cleaner"
	"tablejig/internal/logger"
	"tablejig/internal/metrics"
	"tablejig/internal/parser/csv"
	"tablejig/internal/source"
	"tablejig/internal/stream"
	"tablejig/pkg/table"
)

// Axis selects how successive tables are combined.
type Axis int

const (
	// AxisStack appends rows, aligning columns by name.
	AxisStack Axis = 0
	// AxisJoin merges relationally on the configured keys.
	AxisJoin Axis = 1
)

// Config carries everything a build needs. All fields are optional except
// Files: the zero value stacks, joins inner, keeps all columns, and applies
// no suffixes.
type Config struct {
	// Files is a nested list of path-pattern groups, expanded in order
	// against Path. Patterns may contain shell-style wildcards.
	Files [][]string

	// Path is the base location: a local directory prefix, or an
	// s3://bucket/prefix URL when remote strategies are injected.
	Path string

	// Columns lists the columns to keep. Empty, or the single element "*",
	// keeps every column of the first parsed table (and pins that list for
	// the rest of the run).
	Columns []string

	// Axis selects stacking (0) or joining (1).
	Axis Axis

	// Join keying, used when Axis is AxisJoin.
	How        table.How
	On         []string
	LeftOn     []string
	RightOn    []string
	LeftIndex  bool
	RightIndex bool

	// Suffixes gives each source's columns a source-indexed name. When set,
	// its length must equal the number of expanded sources. Join key columns
	// keep their bare names.
	Suffixes []string

	// Parser is forwarded verbatim to the record parser.
	Parser csv.Options

	// Workers >1 parses sources concurrently. The fold order is unaffected.
	Workers int

	// CacheColumns keeps a wildcard column list resolved by a previous Build
	// call. Off by default: each run re-resolves against its first table.
	CacheColumns bool

	// Job names this pipeline in logs and metrics.
	Job string
}

// Builder drives the pipeline. Construct with New, then call Build. A
// Builder is reusable across runs but not safe for concurrent Build calls.
type Builder struct {
	cfg    Config
	enum   source.Enumerator
	opener stream.Opener
	clean  cleaner.Cleaner
	log    logger.Logger

	building atomic.Bool
	resolved []string // wildcard column list pinned by the first table
}

// Option customizes a Builder.
type Option func(*Builder)

// WithEnumerator replaces the source enumerator (e.g. source.S3).
func WithEnumerator(e source.Enumerator) Option { return func(b *Builder) { b.enum = e } }

// WithOpener replaces the stream opener strategy (e.g. stream.S3, or a
// stream.Local with a dataset-specific archive entry filter).
func WithOpener(o stream.Opener) Option { return func(b *Builder) { b.opener = o } }

// WithCleaner installs the per-table cleaning hook. Defaults to identity.
func WithCleaner(c cleaner.Cleaner) Option { return func(b *Builder) { b.clean = c } }

// WithLogger installs a logger. Defaults to silence.
func WithLogger(l logger.Logger) Option { return func(b *Builder) { b.log = l } }

// New constructs a Builder over cfg with local-filesystem defaults.
func New(cfg Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		enum:   source.Local{},
		opener: stream.Local{},
		clean:  cleaner.Identity,
		log:    logger.NopLogger,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Files returns the configured pattern groups.
func (b *Builder) Files() [][]string { return b.cfg.Files }

// SetFiles replaces the configured pattern groups.
func (b *Builder) SetFiles(files [][]string) { b.cfg.Files = files }

// Path returns the configured base location.
func (b *Builder) Path() string { return b.cfg.Path }

// SetPath replaces the configured base location.
func (b *Builder) SetPath(path string) { b.cfg.Path = path }

// Columns returns the configured column list (possibly the wildcard).
func (b *Builder) Columns() []string { return b.cfg.Columns }

// SetColumns replaces the configured column list and forgets any wildcard
// resolution from a previous run.
func (b *Builder) SetColumns(cols []string) {
	b.cfg.Columns = cols
	b.resolved = nil
}

// ResolvedColumns returns the column list the last run projected against:
// the configured list, or the wildcard resolution pinned by its first table.
// Nil when no run has resolved anything yet.
func (b *Builder) ResolvedColumns() []string { return b.resolved }

func (b *Builder) job() string {
	if b.cfg.Job != "" {
		return b.cfg.Job
	}
	return "tablejig"
}

func wildcard(cols []string) bool {
	return len(cols) == 0 || (len(cols) == 1 && cols[0] == "*")
}

// Build runs the full pipeline and returns the consolidated table. Any
// failure aborts the build; partial results are discarded, never returned.
func (b *Builder) Build(ctx context.Context) (*table.Table, error) {
	if !b.building.CompareAndSwap(false, true) {
		return nil, errors.New("build already in progress")
	}
	defer b.building.Store(false)

	if len(b.cfg.Files) == 0 {
		return nil, &ConfigError{Reason: "no data source specified"}
	}

	srcs, err := b.enum.Expand(ctx, b.cfg.Path, b.cfg.Files)
	if err != nil {
		return nil, errors.Wrap(err, "enumerating sources")
	}
	if len(srcs) == 0 {
		return nil, &ConfigError{Reason: "no sources matched the configured patterns"}
	}
	if len(b.cfg.Suffixes) > 0 && len(b.cfg.Suffixes) != len(srcs) {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("%d suffixes configured for %d sources", len(b.cfg.Suffixes), len(srcs)),
		}
	}

	if !b.cfg.CacheColumns {
		b.resolved = nil
	}
	if b.resolved == nil && !wildcard(b.cfg.Columns) {
		b.resolved = b.cfg.Columns
	}

	var acc *table.Table
	if b.cfg.Workers > 1 {
		parsed, err := b.parseAll(ctx, srcs)
		if err != nil {
			return nil, err
		}
		for i, tables := range parsed {
			for _, tbl := range tables {
				if acc, err = b.fold(acc, tbl, i, srcs[i]); err != nil {
					return nil, err
				}
			}
		}
	} else {
		for i, src := range srcs {
			tables, err := b.parseSource(ctx, src)
			if err != nil {
				b.log.Errorf("source %s: %v", src, err)
				return nil, err
			}
			for _, tbl := range tables {
				if acc, err = b.fold(acc, tbl, i, src); err != nil {
					return nil, err
				}
			}
		}
	}

	if acc == nil {
		return nil, &ConfigError{Reason: "configured sources yielded no streams"}
	}
	metrics.RecordRows(b.job(), "combined", int64(acc.NumRows()))
	return acc, nil
}

// parseAll parses every source concurrently, bounded by cfg.Workers, and
// returns the per-source tables in enumeration order. The first error
// cancels the rest.
func (b *Builder) parseAll(ctx context.Context, srcs []string) ([][]*table.Table, error) {
	parsed := make([][]*table.Table, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			tables, err := b.parseSource(gctx, src)
			if err != nil {
				b.log.Errorf("source %s: %v", src, err)
				return err
			}
			parsed[i] = tables
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parsed, nil
}

// parseSource opens one source and parses each of its streams into a table.
// Streams are acquired and released one at a time.
func (b *Builder) parseSource(ctx context.Context, src string) ([]*table.Table, error) {
	started := time.Now()
	b.log.Printf("processing source %s", src)

	seq, err := b.opener.Open(ctx, src)
	if err != nil {
		return nil, errors.Wrapf(err, "opening source %s", src)
	}
	defer seq.Close()

	p := csv.NewParser(b.cfg.Parser)
	var out []*table.Table
	for {
		rc, err := seq.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "advancing streams of %s", src)
		}
		tbl, perr := p.Parse(rc)
		cerr := rc.Close()
		if perr != nil {
			metrics.RecordStage(b.job(), "parse", perr, time.Since(started))
			return nil, errors.Wrapf(perr, "parsing %s", src)
		}
		if cerr != nil {
			return nil, errors.Wrapf(cerr, "closing stream of %s", src)
		}
		metrics.RecordRows(b.job(), "parsed", int64(tbl.NumRows()))
		out = append(out, tbl)
	}

	metrics.RecordStage(b.job(), "parse", nil, time.Since(started))
	metrics.RecordSources(b.job(), 1)
	return out, nil
}

// fold projects, cleans, and combines one parsed table into the accumulator.
// srcIdx selects the suffix for this source.
func (b *Builder) fold(acc, tbl *table.Table, srcIdx int, src string) (*table.Table, error) {
	if b.resolved == nil {
		// First table of the run resolves the wildcard for everyone after it.
		b.resolved = tbl.ColumnNames()
	}

	proj, err := tbl.Project(b.resolved)
	if err != nil {
		return nil, errors.Wrapf(err, "projecting %s", src)
	}

	before := proj.NumRows()
	cleaned, err := b.clean.Clean(proj)
	if err != nil {
		return nil, errors.Wrapf(err, "cleaning %s", src)
	}
	metrics.RecordRows(b.job(), "cleaned_away", int64(before-cleaned.NumRows()))

	started := time.Now()
	out, err := b.combine(acc, cleaned, srcIdx)
	metrics.RecordStage(b.job(), "combine", err, time.Since(started))
	if err != nil {
		return nil, errors.Wrapf(err, "combining %s", src)
	}
	return out, nil
}

func (b *Builder) combine(acc, tbl *table.Table, srcIdx int) (*table.Table, error) {
	if len(b.cfg.Suffixes) > 0 {
		// Every source's payload columns are renamed with that source's
		// suffix up front, so the final result carries stable,
		// source-indexed names. Join keys keep their bare names; they must
		// stay recognizable on both sides.
		if err := tbl.AddSuffixExcept(b.cfg.Suffixes[srcIdx], b.joinKeys(srcIdx)...); err != nil {
			return nil, err
		}
	}

	if acc == nil {
		return tbl.Copy(), nil
	}

	switch b.cfg.Axis {
	case AxisStack:
		return acc.Stack(tbl), nil
	case AxisJoin:
		return acc.Join(tbl, table.JoinSpec{
			How:        b.cfg.How,
			On:         b.cfg.On,
			LeftOn:     b.cfg.LeftOn,
			RightOn:    b.cfg.RightOn,
			LeftIndex:  b.cfg.LeftIndex,
			RightIndex: b.cfg.RightIndex,
		})
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown combination axis %d", b.cfg.Axis)}
	}
}

// joinKeys returns the column names exempt from suffix renaming for the
// source at srcIdx: the accumulator side uses the left keys, every later
// source the right keys. Stacking exempts nothing.
func (b *Builder) joinKeys(srcIdx int) []string {
	if b.cfg.Axis != AxisJoin {
		return nil
	}
	if len(b.cfg.On) > 0 {
		return b.cfg.On
	}
	if srcIdx == 0 {
		return b.cfg.LeftOn
	}
	return b.cfg.RightOn
}

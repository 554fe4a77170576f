package config

import (
	"encoding/json"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"tablejig/internal/builder"
	"tablejig/internal/cleaner"
	"tablejig/internal/metrics"
	"tablejig/internal/metrics/datadog"
	"tablejig/internal/metrics/prompush"
	"tablejig/internal/parser/csv"
	"tablejig/internal/source"
	"tablejig/internal/stream"
	"tablejig/pkg/table"
)

// Load reads and decodes a pipeline file. Unknown JSON fields are rejected so
// typos in pipeline files surface immediately instead of silently configuring
// nothing.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	f, err := os.Open(path)
	if err != nil {
		return p, errors.Wrap(err, "opening pipeline file")
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, errors.Wrapf(err, "decoding pipeline file %s", path)
	}
	return p, nil
}

// Assemble turns a decoded Pipeline into a runnable Builder. It wires the
// source enumerator, stream opener, parser options, and cleaning chain; the
// caller is expected to have run ValidatePipeline first, but Assemble still
// fails on anything it cannot wire.
func Assemble(p Pipeline, extra ...builder.Option) (*builder.Builder, error) {
	cfg := builder.Config{
		Files:        p.Source.Files,
		Path:         p.Source.Path,
		Columns:      p.Columns,
		Axis:         builder.Axis(p.Combine.Axis),
		How:          table.How(p.Combine.How),
		On:           p.Combine.On,
		LeftOn:       p.Combine.LeftOn,
		RightOn:      p.Combine.RightOn,
		LeftIndex:    p.Combine.LeftIndex,
		RightIndex:   p.Combine.RightIndex,
		Suffixes:     p.Combine.Suffixes,
		Parser:       parserOptions(p.Parser),
		Workers:      p.Runtime.Workers,
		CacheColumns: p.Runtime.CacheColumns,
		Job:          p.Job,
	}

	var opts []builder.Option

	filter := stream.EntryFilter{
		Prefix:          p.Source.Archive.EntryPrefix,
		Suffixes:        p.Source.Archive.EntrySuffixes,
		SkipSingleEntry: p.Source.Archive.SkipSingleEntry,
	}

	switch p.Source.Kind {
	case "", "local":
		opts = append(opts, builder.WithOpener(stream.Local{Filter: filter}))
	case "s3":
		awsCfg := aws.NewConfig()
		if p.Source.Region != "" {
			awsCfg = awsCfg.WithRegion(p.Source.Region)
		}
		sess, err := session.NewSessionWithOptions(session.Options{
			Config:            *awsCfg,
			SharedConfigState: session.SharedConfigEnable,
		})
		if err != nil {
			return nil, errors.Wrap(err, "creating AWS session")
		}
		api := s3.New(sess)
		opts = append(opts,
			builder.WithEnumerator(source.S3{API: api}),
			builder.WithOpener(stream.S3{API: api, Filter: filter}),
		)
	default:
		return nil, errors.Errorf("unknown source kind %q", p.Source.Kind)
	}

	chain, err := cleanChain(p.Clean)
	if err != nil {
		return nil, err
	}
	if chain != nil {
		opts = append(opts, builder.WithCleaner(chain))
	}
	opts = append(opts, extra...)

	return builder.New(cfg, opts...), nil
}

// ConfigureMetrics installs the configured metrics backend globally. An empty
// metrics kind leaves the no-op backend in place. The returned flush function
// pushes any buffered metrics and should be deferred by the caller.
func ConfigureMetrics(p Pipeline) (func() error, error) {
	noop := func() error { return nil }

	switch p.Metrics.Kind {
	case "":
		return noop, nil
	case "prompush":
		b, err := prompush.NewBackend(p.Job, p.Metrics.Options.String("gateway_url", ""))
		if err != nil {
			return noop, errors.Wrap(err, "creating pushgateway backend")
		}
		metrics.SetBackend(b)
		return metrics.Flush, nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.Options.String("addr", ""),
			Namespace:  p.Metrics.Options.String("namespace", ""),
			GlobalTags: p.Metrics.Options.StringSlice("tags"),
		})
		if err != nil {
			return noop, errors.Wrap(err, "creating datadog backend")
		}
		metrics.SetBackend(b)
		return metrics.Flush, nil
	default:
		return noop, errors.Errorf("unknown metrics kind %q", p.Metrics.Kind)
	}
}

func parserOptions(p Parser) csv.Options {
	o := p.Options
	opt := csv.Options{
		Comma:          o.Rune("comma", ','),
		NoHeader:       o.Bool("no_header", false),
		TrimSpace:      o.Bool("trim_space", false),
		LazyQuotes:     o.Bool("lazy_quotes", false),
		Compression:    o.String("compression", ""),
		ExpectedFields: o.Int("expected_fields", 0),
	}
	if m := o.StringMap("header_map"); len(m) > 0 {
		opt.HeaderMap = m
	}
	switch idx := o.Any("index_col").(type) {
	case string:
		opt.IndexCol = idx
	case float64:
		opt.IndexCol = int(idx)
	case int:
		opt.IndexCol = idx
	}
	return opt
}

func cleanChain(steps []Clean) (cleaner.Cleaner, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	chain := make(cleaner.Chain, 0, len(steps))
	for _, step := range steps {
		c, err := cleanStep(step)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
	}
	return chain, nil
}

func cleanStep(step Clean) (cleaner.Cleaner, error) {
	switch step.Kind {
	case "dropna":
		return cleaner.DropNA{Fields: step.Options.StringSlice("fields")}, nil
	case "normalize":
		return cleaner.Normalize{}, nil
	case "coerce":
		types := map[string]table.Kind{}
		for col, kind := range step.Options.StringMap("types") {
			types[col] = table.Kind(kind)
		}
		return cleaner.Coerce{
			Types:  types,
			Layout: step.Options.String("layout", ""),
			Auto:   step.Options.Bool("auto", false),
		}, nil
	case "dedup":
		return cleaner.DeDup{
			Keys:   step.Options.StringSlice("keys"),
			Policy: step.Options.String("policy", ""),
		}, nil
	default:
		return nil, errors.Errorf("unknown clean step kind %q", step.Kind)
	}
}

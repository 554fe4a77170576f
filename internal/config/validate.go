// Package config provides configuration models and helpers for table-building
// pipelines.
//
// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "combine.how",
// "clean[1].options.fields"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation / linting of a Pipeline.
//
// It does not mutate the pipeline. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	var p config.Pipeline
//	if err := json.NewDecoder(r).Decode(&p); err != nil { ... }
//	issues := config.ValidatePipeline(p)
//	for _, iss := range issues {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	// Top-level pipeline checks.
	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use the default job name",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)

	// Archive entries ending in ".gz" arrive from the opener already
	// inflated; a gzip parser hint on top would decompress twice.
	if len(p.Source.Archive.EntrySuffixes) > 0 && p.Parser.Options.String("compression", "") == "gzip" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.options.compression",
			Message:  "gzip hint combined with archive entry filtering; compressed archive entries are inflated by the opener",
		})
	}

	issues = append(issues, validateCombine(p.Combine, p.Source)...)
	issues = append(issues, validateClean(p.Clean)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

// validateSource validates Source configuration.
func validateSource(s Source) []Issue {
	var issues []Issue

	// Kind is required.
	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
		return issues
	}

	// Known source kinds. Unknown kinds are warnings (for forward compatibility).
	known := map[string]struct{}{
		"local": {},
		"s3":    {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; ensure a matching implementation exists", s.Kind),
		})
	}

	if len(s.Files) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.files",
			Message:  "source.files must list at least one pattern group",
		})
	}
	for i, group := range s.Files {
		for j, pattern := range group {
			if strings.TrimSpace(pattern) == "" {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("source.files[%d][%d]", i, j),
					Message:  "empty pattern matches nothing and is skipped",
				})
			}
		}
	}

	// Kind-specific checks.
	switch s.Kind {
	case "s3":
		if !strings.HasPrefix(s.Path, "s3://") {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.path",
				Message:  "s3 source requires a path of the form s3://bucket/prefix",
			})
		}
	}

	return issues
}

// validateParser validates parser configuration.
func validateParser(p Parser) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Kind) == "" {
		// An empty kind selects the CSV parser with default options.
		return issues
	}

	known := map[string]struct{}{
		"csv": {},
	}
	if _, ok := known[p.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q; ensure a matching implementation exists", p.Kind),
		})
	}

	// Parser-specific sanity checks (kept intentionally light).
	switch p.Kind {
	case "csv":
		if c := p.Options.String("compression", ""); c != "" && c != "gzip" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.compression",
				Message:  fmt.Sprintf("unsupported compression %q; only \"gzip\" is recognized", c),
			})
		}
		if n := p.Options.Int("expected_fields", 0); n < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.options.expected_fields",
				Message:  fmt.Sprintf("expected_fields must not be negative, got %d", n),
			})
		}
		if idx := p.Options.Any("index_col"); idx != nil {
			switch idx.(type) {
			case string, float64, int:
			default:
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "parser.options.index_col",
					Message:  "index_col must be a column name or a position",
				})
			}
		}
	}

	return issues
}

// validateCombine validates the combination block. Suffix arity against the
// actual source count is rechecked at run time, after pattern expansion; here
// only statically knowable mistakes are caught.
func validateCombine(c Combine, s Source) []Issue {
	var issues []Issue

	if c.Axis != 0 && c.Axis != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "combine.axis",
			Message:  fmt.Sprintf("axis must be 0 (stack) or 1 (join), got %d", c.Axis),
		})
	}

	if c.Axis == 1 {
		if c.How != "" {
			known := map[string]struct{}{"inner": {}, "left": {}, "right": {}, "outer": {}}
			if _, ok := known[c.How]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "combine.how",
					Message:  fmt.Sprintf("unknown join kind %q", c.How),
				})
			}
		}
		keyed := len(c.On) > 0 || len(c.LeftOn) > 0 || len(c.RightOn) > 0 || c.LeftIndex || c.RightIndex
		if !keyed {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "combine",
				Message:  "join requires on, left_on/right_on, or index keying",
			})
		}
		if len(c.On) > 0 && (len(c.LeftOn) > 0 || len(c.RightOn) > 0) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "combine.on",
				Message:  "on is mutually exclusive with left_on/right_on",
			})
		}
		if len(c.LeftOn) != len(c.RightOn) && !c.LeftIndex && !c.RightIndex {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "combine.left_on",
				Message:  fmt.Sprintf("left_on has %d columns but right_on has %d", len(c.LeftOn), len(c.RightOn)),
			})
		}
	} else {
		if c.How != "" || len(c.On) > 0 || len(c.LeftOn) > 0 || len(c.RightOn) > 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "combine",
				Message:  "join keying is configured but axis is 0 (stack); the keys are ignored",
			})
		}
	}

	// Suffix arity can only be checked statically when no pattern contains a
	// wildcard (one pattern == one source).
	if len(c.Suffixes) > 0 {
		fixed := 0
		wildcarded := false
		for _, group := range s.Files {
			for _, pattern := range group {
				if pattern == "" {
					continue
				}
				if strings.ContainsAny(pattern, "*?[") {
					wildcarded = true
				}
				fixed++
			}
		}
		if !wildcarded && fixed > 0 && len(c.Suffixes) != fixed {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "combine.suffixes",
				Message:  fmt.Sprintf("%d suffixes configured for %d sources", len(c.Suffixes), fixed),
			})
		}
	}

	return issues
}

// validateClean validates the cleaning chain.
func validateClean(steps []Clean) []Issue {
	var issues []Issue

	knownKinds := map[string]struct{}{
		"dropna":    {},
		"normalize": {},
		"coerce":    {},
		"dedup":     {},
	}

	for i, step := range steps {
		path := fmt.Sprintf("clean[%d].kind", i)
		if strings.TrimSpace(step.Kind) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "clean step kind must not be empty",
			})
			continue
		}
		if _, ok := knownKinds[step.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  fmt.Sprintf("unknown clean step kind %q; ensure a matching implementation exists", step.Kind),
			})
		}

		// Step-specific checks.
		switch step.Kind {
		case "coerce":
			types := step.Options.StringMap("types")
			auto := step.Options.Bool("auto", false)
			if len(types) == 0 && !auto {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("clean[%d].options", i),
					Message:  "coerce has neither types nor auto; it will not change anything",
				})
			}
			for col, kind := range types {
				switch kind {
				case "string", "int", "float", "bool", "time":
				default:
					issues = append(issues, Issue{
						Severity: SeverityError,
						Path:     fmt.Sprintf("clean[%d].options.types.%s", i, col),
						Message:  fmt.Sprintf("unknown type %q", kind),
					})
				}
			}
		case "dedup":
			if policy := step.Options.String("policy", ""); policy != "" && policy != "keep-first" && policy != "keep-last" {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("clean[%d].options.policy", i),
					Message:  fmt.Sprintf("unknown dedup policy %q; use keep-first or keep-last", policy),
				})
			}
		}
	}

	return issues
}

// validateMetrics validates the metrics block.
func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	if strings.TrimSpace(m.Kind) == "" {
		return issues
	}

	known := map[string]struct{}{
		"prompush": {},
		"datadog":  {},
	}
	if _, ok := known[m.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.kind",
			Message:  fmt.Sprintf("unknown metrics kind %q; ensure a matching backend is registered", m.Kind),
		})
	}

	switch m.Kind {
	case "prompush":
		if strings.TrimSpace(m.Options.String("gateway_url", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.options.gateway_url",
				Message:  "prompush requires a gateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.Options.String("addr", "")) == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.options.addr",
				Message:  "datadog addr is empty; the default agent address will be used",
			})
		}
	}

	return issues
}

// validateRuntime validates RuntimeConfig for obvious misconfigurations.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must not be negative",
		})
	}

	return issues
}

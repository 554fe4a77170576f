// Package config defines the canonical, JSON-serializable configuration model
// for the table-building application. It is intentionally small, explicit, and
// dependency-free so that pipelines can be loaded from disk (or other sources)
// and passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in pipeline
//     files under configs/pipelines/*.json.
//  3. Minimalism: No third-party config libraries; decoding is performed by the
//     standard library, with a light Options helper for typed access.
//
// Example (trimmed):
//
//	{
//	  "job":     "poi_weekly",
//	  "source":  { "kind": "local", "path": "data/", "files": [["core-*.csv"], ["extra.csv"]] },
//	  "parser":  { "kind": "csv", "options": { "index_col": "placekey" } },
//	  "combine": { "axis": 1, "how": "inner", "on": ["placekey"], "suffixes": ["_a", "_b"] },
//	  "clean":   [ { "kind": "dropna", "options": { "fields": ["placekey"] } } ],
//	  "output":  { "path": "out.csv" }
//	}
package config

import "encoding/json"

// Pipeline describes a full table build in JSON. It is the top-level object
// decoded from a pipeline file (e.g., configs/pipelines/*.json).
type Pipeline struct {
	// Job names this pipeline for logs and metrics labeling.
	Job string `json:"job"`

	// Source describes where input files come from and which ones to read.
	Source Source `json:"source"`

	// Parser configures how raw bytes are turned into tables (e.g., CSV).
	Parser Parser `json:"parser"`

	// Columns lists the columns to keep. Empty (or ["*"]) keeps every column
	// of the first parsed file.
	Columns []string `json:"columns"`

	// Combine configures how successive tables merge into one.
	Combine Combine `json:"combine"`

	// Clean lists the ordered cleaning steps applied to each parsed table.
	// Each step has a kind and an options bag. The options shape is defined
	// by the step implementation.
	Clean []Clean `json:"clean"`

	// Metrics optionally selects a metrics backend for the run.
	Metrics Metrics `json:"metrics"`

	// Output describes where the consolidated table is written.
	Output  Output        `json:"output"`
	Runtime RuntimeConfig `json:"runtime"`
}

// RuntimeConfig controls concurrency and column-list caching.
type RuntimeConfig struct {
	// Workers >1 parses sources concurrently; combination order is unaffected.
	Workers int `json:"workers"`

	// CacheColumns keeps a wildcard column resolution across repeated runs of
	// the same pipeline.
	CacheColumns bool `json:"cache_columns"`
}

// Source identifies where input files live. Additional kinds can be added
// over time.
type Source struct {
	// Kind selects the source implementation. Current values: "local", "s3".
	Kind string `json:"kind"`

	// Path is the base location patterns are expanded against: a local
	// directory prefix, or an s3://bucket/prefix URL for the "s3" kind.
	Path string `json:"path"`

	// Files is a nested list of pattern groups, expanded in order against
	// Path. Patterns may contain shell-style wildcards.
	Files [][]string `json:"files"`

	// Archive carries options for reading entries out of zip archives.
	Archive Archive `json:"archive"`

	// Region is the AWS region for the "s3" source kind. Empty falls back to
	// the SDK's usual resolution chain.
	Region string `json:"region"`
}

// Archive configures which entries of a zip archive are read.
type Archive struct {
	// EntryPrefix keeps only archive entries whose name starts with it.
	EntryPrefix string `json:"entry_prefix"`

	// EntrySuffixes keeps only entries ending in one of these (e.g. ".csv",
	// ".csv.gz"). Empty keeps all entries.
	EntrySuffixes []string `json:"entry_suffixes"`

	// SkipSingleEntry drops archives where at most one entry qualifies,
	// matching the behavior of older ingest scripts. Off by default.
	SkipSingleEntry bool `json:"skip_single_entry"`
}

// Parser selects how to parse raw bytes into a table.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the parser implementation.
	// For CSV, typical keys include:
	//   comma (string), no_header (bool), trim_space (bool),
	//   lazy_quotes (bool), compression (string), index_col (string or int),
	//   header_map (object)
	Options Options `json:"options"`
}

// Combine configures how successive tables are folded into one.
type Combine struct {
	// Axis selects stacking (0, the default) or joining (1).
	Axis int `json:"axis"`

	// How selects the join kind: "inner" (default), "left", "right", "outer".
	How string `json:"how"`

	// On names columns present on both sides to join on.
	On []string `json:"on"`

	// LeftOn and RightOn name per-side join columns when the names differ.
	LeftOn  []string `json:"left_on"`
	RightOn []string `json:"right_on"`

	// LeftIndex and RightIndex join on the table index instead of a column.
	LeftIndex  bool `json:"left_index"`
	RightIndex bool `json:"right_index"`

	// Suffixes renames each source's colliding columns; when set its length
	// must equal the number of expanded sources.
	Suffixes []string `json:"suffixes"`
}

// Clean defines a single cleaning step. The sequence of steps forms the
// cleaning chain applied to every parsed table.
type Clean struct {
	// Kind selects the step implementation (e.g., "dropna", "normalize",
	// "coerce", "dedup"). Implementations define their own options.
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected step.
	Options Options `json:"options"`
}

// Metrics selects the metrics backend for the run. An empty Kind disables
// metrics emission.
type Metrics struct {
	// Kind selects the backend. Current values: "prompush", "datadog".
	Kind string `json:"kind"`

	// Options is a free-form map interpreted by the selected backend.
	// For prompush: gateway_url (string). For datadog: addr (string),
	// namespace (string), tags ([]string).
	Options Options `json:"options"`
}

// Output describes where the consolidated table is written.
type Output struct {
	// Path is the destination CSV file. Empty or "-" writes to stdout.
	Path string `json:"path"`
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing third-party configuration libraries. It purposefully
// performs only minimal type coercion and returns provided defaults when a key
// is absent or of an unexpected type.
//
// Options is used for parser/clean/metrics-specific configuration where the
// shape varies by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers are decoded as
// float64 by encoding/json, so this method accepts float64 and casts to int.
// If the value is neither float64 nor int, def is returned.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character parser settings such as
// a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive). This is useful for retrieving nested
// configuration blocks that will be unmarshaled into a typed struct by the
// caller.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that a missing or null "options"
// object in JSON decodes to a non-nil, empty Options map. This simplifies call
// sites by removing the need to nil-check Options values.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(samplePipeline), 0o644))

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "poi_weekly", p.Job)

	// Unknown fields are rejected, typos must not configure nothing.
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"jobb": "x"}`), 0o644))
	_, err = Load(bad)
	require.Error(t, err)

	_, err = Load(filepath.Join(dir, "absent.json"))
	require.Error(t, err)
}

// The sample pipeline shipped in the repo is the default -config target of
// the tablebuild binary; it must stay loadable and clean under validation.
func TestLoad_ShippedSample(t *testing.T) {
	t.Parallel()

	p, err := Load(filepath.Join("..", "..", "configs", "pipelines", "sample.json"))
	require.NoError(t, err)
	require.Equal(t, "poi_weekly", p.Job)

	for _, iss := range ValidatePipeline(p) {
		require.NotEqual(t, SeverityError, iss.Severity, "issue: %v", iss)
	}
}

func TestAssembleAndBuild(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("id,val\n1,10\n2,20\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("id,val\n1,100\n"), 0o644))

	p := Pipeline{
		Job: "join_test",
		Source: Source{
			Kind:  "local",
			Path:  dir + string(os.PathSeparator),
			Files: [][]string{{"a.csv"}, {"b.csv"}},
		},
		Columns: []string{"id", "val"},
		Combine: Combine{
			Axis:     1,
			How:      "inner",
			On:       []string{"id"},
			Suffixes: []string{"_x", "_y"},
		},
		Clean: []Clean{
			{Kind: "dropna", Options: Options{"fields": []string{"id"}}},
		},
	}
	require.Empty(t, errorIssues(ValidatePipeline(p)))

	b, err := Assemble(p)
	require.NoError(t, err)

	tbl, err := b.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, tbl.NumRows())
	require.Equal(t, map[string]any{"id": "1", "val_x": "10", "val_y": "100"}, tbl.Row(0))
}

func errorIssues(issues []Issue) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

func TestAssemble_Errors(t *testing.T) {
	t.Parallel()

	p := Pipeline{Source: Source{Kind: "ftp", Files: [][]string{{"x"}}}}
	_, err := Assemble(p)
	require.Error(t, err)

	p = Pipeline{
		Source: Source{Kind: "local", Files: [][]string{{"x"}}},
		Clean:  []Clean{{Kind: "mystery", Options: Options{}}},
	}
	_, err = Assemble(p)
	require.Error(t, err)
}

func TestParserOptionsMapping(t *testing.T) {
	t.Parallel()

	var parser Parser
	require.NoError(t, json.Unmarshal([]byte(`{
      "kind": "csv",
      "options": {
        "comma": ";",
        "no_header": true,
        "trim_space": true,
        "lazy_quotes": true,
        "compression": "gzip",
        "expected_fields": 6,
        "index_col": 0,
        "header_map": {"A": "a"}
      }
    }`), &parser))

	opt := parserOptions(parser)
	require.Equal(t, ';', opt.Comma)
	require.True(t, opt.NoHeader)
	require.True(t, opt.TrimSpace)
	require.True(t, opt.LazyQuotes)
	require.Equal(t, "gzip", opt.Compression)
	require.Equal(t, 6, opt.ExpectedFields)
	require.Equal(t, 0, opt.IndexCol)
	require.Equal(t, map[string]string{"A": "a"}, opt.HeaderMap)

	// Defaults.
	opt = parserOptions(Parser{Options: Options{}})
	require.Equal(t, ',', opt.Comma)
	require.Zero(t, opt.ExpectedFields)
	require.Nil(t, opt.IndexCol)
}

package stream

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// writeZip builds an archive on disk. Entries named *.gz are gzip-compressed
// so tests can exercise transparent entry decompression.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if filepath.Ext(name) == ".gz" {
			gz := gzip.NewWriter(w)
			_, err = gz.Write([]byte(content))
			require.NoError(t, err)
			require.NoError(t, gz.Close())
		} else {
			_, err = w.Write([]byte(content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
}

// drain reads every stream of a sequence, honoring scoped acquisition, and
// returns the contents in order.
func drain(t *testing.T, seq *Sequence) []string {
	t.Helper()
	var out []string
	for {
		rc, err := seq.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out = append(out, string(b))
	}
}

func TestLocal_PlainFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	seq, err := (Local{}).Open(context.Background(), path)
	require.NoError(t, err)
	defer seq.Close()

	require.Equal(t, []string{"a,b\n1,2\n"}, drain(t, seq))
}

func TestLocal_NotFound(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"missing.csv", "missing.zip"} {
		_, err := (Local{}).Open(context.Background(), filepath.Join(t.TempDir(), name))
		require.True(t, errors.Is(err, ErrNotFound), "err = %v", err)
	}
}

func TestLocal_ZipEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.zip")
	writeZip(t, path, map[string]string{
		"core-1.csv":  "id\n1\n",
		"core-2.csv":  "id\n2\n",
		"manifest.md": "ignore me",
	})

	seq, err := (Local{Filter: EntryFilter{Prefix: "core", Suffixes: []string{".csv"}}}).
		Open(context.Background(), path)
	require.NoError(t, err)
	defer seq.Close()

	got := drain(t, seq)
	require.ElementsMatch(t, []string{"id\n1\n", "id\n2\n"}, got)
	require.Len(t, got, 2)
}

func TestLocal_ZipGzipEntry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.zip")
	writeZip(t, path, map[string]string{
		"part-1.csv.gz": "id\n9\n",
		"part-2.csv.gz": "id\n8\n",
	})

	seq, err := (Local{}).Open(context.Background(), path)
	require.NoError(t, err)
	defer seq.Close()

	// Entries come back decompressed, byte for byte.
	require.ElementsMatch(t, []string{"id\n9\n", "id\n8\n"}, drain(t, seq))
}

func TestLocal_ZipSkipSingleEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	single := filepath.Join(dir, "single.zip")
	writeZip(t, single, map[string]string{"only.csv": "id\n1\n"})

	// Default: one qualifying entry is data.
	seq, err := (Local{}).Open(context.Background(), single)
	require.NoError(t, err)
	require.Equal(t, []string{"id\n1\n"}, drain(t, seq))
	require.NoError(t, seq.Close())

	// Legacy opt-in: archives with at most one qualifying entry yield nothing.
	seq, err = (Local{Filter: EntryFilter{SkipSingleEntry: true}}).Open(context.Background(), single)
	require.NoError(t, err)
	require.Empty(t, drain(t, seq))
	require.NoError(t, seq.Close())
}

func TestSequence_ScopedAcquisition(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "batch.zip")
	writeZip(t, path, map[string]string{
		"a.csv": "1",
		"b.csv": "2",
	})

	seq, err := (Local{}).Open(context.Background(), path)
	require.NoError(t, err)
	defer seq.Close()

	rc, err := seq.Next()
	require.NoError(t, err)

	// The previous stream must be closed before the next is acquired.
	_, err = seq.Next()
	require.Error(t, err)

	require.NoError(t, rc.Close())
	rc2, err := seq.Next()
	require.NoError(t, err)
	require.NoError(t, rc2.Close())

	_, err = seq.Next()
	require.Equal(t, io.EOF, err)
}

func TestSequence_CloseReleasesInFlightStream(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	seq, err := (Local{}).Open(context.Background(), path)
	require.NoError(t, err)

	_, err = seq.Next()
	require.NoError(t, err)
	require.NoError(t, seq.Close())

	// Close is idempotent.
	require.NoError(t, seq.Close())
}

func TestEntryFilter_Qualifies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter EntryFilter
		entry  string
		want   bool
	}{
		{name: "zero_value_accepts_all", entry: "anything.bin", want: true},
		{name: "prefix_match", filter: EntryFilter{Prefix: "core"}, entry: "core-1.csv", want: true},
		{name: "prefix_miss", filter: EntryFilter{Prefix: "core"}, entry: "extra.csv", want: false},
		{name: "suffix_match", filter: EntryFilter{Suffixes: []string{".csv", ".gz"}}, entry: "x.gz", want: true},
		{name: "suffix_miss", filter: EntryFilter{Suffixes: []string{".csv"}}, entry: "x.txt", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.filter.qualifies(tc.entry))
		})
	}
}

func TestZipSequence_ArchiveOrder(t *testing.T) {
	t.Parallel()

	// Build in-memory to control entry order precisely.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range []struct{ name, body string }{
		{"2.csv", "two"},
		{"1.csv", "one"},
		{"3.csv", "three"},
	} {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	seq := zipSequence(zr, EntryFilter{})
	defer seq.Close()
	require.Equal(t, []string{"two", "one", "three"}, drain(t, seq))
}

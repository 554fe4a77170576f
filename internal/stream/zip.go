package stream

import (
	"archive/zip"
	"compress/gzip"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// EntryFilter selects the qualifying entries of a zip container. The zero
// value qualifies every entry.
//
// Entries whose names end in ".gz" are decompressed transparently and
// delivered as plain streams; the parser's compression option must not be
// set for archive pipelines, it is for bare gzip sources only.
type EntryFilter struct {
	// Prefix, when non-empty, requires entry names to start with it
	// (e.g. "core" for core POI archives).
	Prefix string

	// Suffixes, when non-empty, requires entry names to end with one of them
	// (e.g. ".csv", ".gz").
	Suffixes []string

	// SkipSingleEntry reproduces the historical behavior of yielding nothing
	// from archives holding one or zero qualifying entries. Off by default:
	// a single qualifying entry is data, not a packaging accident.
	SkipSingleEntry bool
}

func (f EntryFilter) qualifies(name string) bool {
	if f.Prefix != "" && !strings.HasPrefix(name, f.Prefix) {
		return false
	}
	if len(f.Suffixes) == 0 {
		return true
	}
	for _, s := range f.Suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// zipSequence walks the qualifying entries of an open archive in archive
// order. Entries named *.gz are decompressed transparently. releases are
// closed when the sequence is closed.
func zipSequence(zr *zip.Reader, filter EntryFilter, releases ...io.Closer) *Sequence {
	var entries []*zip.File
	for _, f := range zr.File {
		if filter.qualifies(f.Name) {
			entries = append(entries, f)
		}
	}
	if filter.SkipSingleEntry && len(entries) <= 1 {
		entries = nil
	}

	i := 0
	next := func() (io.ReadCloser, error) {
		if i >= len(entries) {
			return nil, io.EOF
		}
		entry := entries[i]
		i++
		rc, err := entry.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening archive entry %q", entry.Name)
		}
		if strings.HasSuffix(entry.Name, ".gz") {
			gz, err := gzip.NewReader(rc)
			if err != nil {
				rc.Close()
				return nil, errors.Wrapf(err, "decompressing archive entry %q", entry.Name)
			}
			return &gzipEntry{gz: gz, raw: rc}, nil
		}
		return rc, nil
	}
	return NewSequence(next, releases...)
}

// gzipEntry closes both the gzip layer and the raw archive entry.
type gzipEntry struct {
	gz  *gzip.Reader
	raw io.ReadCloser
}

func (g *gzipEntry) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipEntry) Close() error {
	err := g.gz.Close()
	if cerr := g.raw.Close(); err == nil {
		err = cerr
	}
	return err
}

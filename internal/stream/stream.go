// Package stream turns one source identifier into an ordered, finite, lazy
// sequence of readable streams. It decouples where data lives (local
// filesystem, S3 object store) and how it is packaged (plain text, opaque or
// gzip-compressed binary, zip containers) from the rest of the pipeline.
//
// Openers are independent strategies injected into the builder, one per
// backend. Dispatch between plain, zip, and binary handling is by file-name
// suffix, matching the layouts the upstream data vendors actually ship.
package stream

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound marks a source identifier that does not exist on its backend.
var ErrNotFound = errors.New("source does not exist")

// Opener produces the stream sequence for one source identifier.
type Opener interface {
	Open(ctx context.Context, name string) (*Sequence, error)
}

// Sequence is a one-shot, finite sequence of streams with scoped
// acquisition: the caller must Close each stream before requesting the next,
// and must Close the Sequence itself to release container resources.
type Sequence struct {
	next     func() (io.ReadCloser, error)
	current  *tracked
	releases []io.Closer
}

// Next returns the next stream, or io.EOF when the sequence is exhausted.
// Calling Next while the previous stream is still open is an error.
func (s *Sequence) Next() (io.ReadCloser, error) {
	if s.current != nil && !s.current.closed {
		return nil, errors.New("previous stream not closed")
	}
	rc, err := s.next()
	if err != nil {
		return nil, err
	}
	s.current = &tracked{rc: rc}
	return s.current, nil
}

// Close releases the in-flight stream, if any, and all container resources
// backing the sequence.
func (s *Sequence) Close() error {
	var first error
	if s.current != nil && !s.current.closed {
		first = s.current.Close()
	}
	for _, c := range s.releases {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.releases = nil
	return first
}

type tracked struct {
	rc     io.ReadCloser
	closed bool
}

func (t *tracked) Read(p []byte) (int, error) { return t.rc.Read(p) }

func (t *tracked) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.rc.Close()
}

// NewSequence builds a Sequence from a pull function returning io.EOF at the
// end, plus any container-level resources to release on Close. Custom Opener
// implementations build their sequences with this.
func NewSequence(next func() (io.ReadCloser, error), releases ...io.Closer) *Sequence {
	return &Sequence{next: next, releases: releases}
}

// Single yields rc exactly once.
func Single(rc io.ReadCloser, releases ...io.Closer) *Sequence {
	done := false
	return NewSequence(func() (io.ReadCloser, error) {
		if done {
			return nil, io.EOF
		}
		done = true
		return rc, nil
	}, releases...)
}

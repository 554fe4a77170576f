package stream

import (
	"archive/zip"
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Local opens sources from the local filesystem.
//
// Dispatch by suffix: ".csv" opens one text stream, ".zip" walks the
// archive's qualifying entries, anything else (gzip payloads, opaque binary)
// opens one stream directly. The parser handles whole-file compression via
// its own options.
type Local struct {
	Filter EntryFilter
}

func (l Local) Open(ctx context.Context, name string) (*Sequence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(name, ".zip"):
		zr, err := zip.OpenReader(name)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrapf(ErrNotFound, "opening %s", name)
			}
			return nil, errors.Wrapf(err, "opening archive %s", name)
		}
		return zipSequence(&zr.Reader, l.Filter, zr), nil
	default:
		// .csv and everything else (binary, gz) open one stream directly.
		f, err := os.Open(name)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrapf(ErrNotFound, "opening %s", name)
			}
			return nil, errors.Wrapf(err, "opening %s", name)
		}
		return Single(f), nil
	}
}

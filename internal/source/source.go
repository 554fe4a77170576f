// Package source expands configured path patterns into concrete source
// identifiers. Patterns are grouped; groups are expanded in order and the
// results flattened, preserving configuration order. A pattern that matches
// nothing contributes zero identifiers; that is not an error.
package source

import (
	"context"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Enumerator expands grouped path patterns against a base location.
type Enumerator interface {
	Expand(ctx context.Context, base string, groups [][]string) ([]string, error)
}

// Local expands shell-style wildcards against the local filesystem, the
// pattern syntax being that of path/filepath.Match.
type Local struct{}

// Expand concatenates base with each pattern and globs it. Matches for one
// pattern are sorted for determinism; pattern order is preserved.
func (Local) Expand(ctx context.Context, base string, groups [][]string) ([]string, error) {
	var out []string
	for _, group := range groups {
		for _, pattern := range group {
			if pattern == "" {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			matches, err := filepath.Glob(base + pattern)
			if err != nil {
				return nil, errors.Wrapf(err, "expanding pattern %q", base+pattern)
			}
			sort.Strings(matches)
			out = append(out, matches...)
		}
	}
	return out, nil
}

// SplitS3 splits an s3://bucket/key URL into bucket and key.
func SplitS3(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", errors.Wrapf(err, "parsing S3 URL %v", uri)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.Errorf("not an s3:// URL: %v", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// IsS3 reports whether the identifier addresses an S3 object.
func IsS3(name string) bool { return strings.HasPrefix(name, "s3://") }

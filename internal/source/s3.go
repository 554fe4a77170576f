package source

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3 expands patterns against a remote object store. The base is an
// s3://bucket/prefix URL; patterns are appended to the prefix and matched
// with path.Match against listed keys. Expanded identifiers are full
// s3://bucket/key URLs.
type S3 struct {
	API s3iface.S3API
}

func (e S3) Expand(ctx context.Context, base string, groups [][]string) ([]string, error) {
	if e.API == nil {
		return nil, errors.New("missing s3 client")
	}
	bucket, prefix, err := SplitS3(base)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, group := range groups {
		for _, pattern := range group {
			if pattern == "" {
				continue
			}
			full := prefix + pattern
			matches, err := e.expandOne(ctx, bucket, full)
			if err != nil {
				return nil, err
			}
			out = append(out, matches...)
		}
	}
	return out, nil
}

func (e S3) expandOne(ctx context.Context, bucket, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(err, "bad pattern %q", pattern)
	}

	// List under the longest wildcard-free prefix to keep the listing narrow.
	listPrefix := pattern
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		listPrefix = pattern[:i]
	}

	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(listPrefix),
	}
	err := e.API.ListObjectsV2PagesWithContext(ctx, input,
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := aws.StringValue(obj.Key)
				ok, merr := path.Match(pattern, key)
				if merr != nil || !ok {
					continue
				}
				keys = append(keys, key)
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrapf(err, "listing s3://%s/%s", bucket, listPrefix)
	}

	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = "s3://" + bucket + "/" + key
	}
	return out, nil
}

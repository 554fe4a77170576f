package stream

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"tablejig/internal/source"
)

// S3 opens sources from a remote object store. Identifiers are
// s3://bucket/key URLs. The suffix dispatch mirrors Local; zip containers
// are materialized from the remote stream, then walked identically to the
// local case.
type S3 struct {
	API    s3iface.S3API
	Filter EntryFilter
}

func (r S3) Open(ctx context.Context, name string) (*Sequence, error) {
	if r.API == nil {
		return nil, errors.New("missing s3 client")
	}
	bucket, key, err := source.SplitS3(name)
	if err != nil {
		return nil, err
	}

	out, err := r.API.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey:
				return nil, errors.Wrapf(ErrNotFound, "fetching %s", name)
			}
		}
		return nil, errors.Wrapf(err, "fetching S3 object %v", name)
	}

	if !strings.HasSuffix(name, ".zip") {
		return Single(out.Body), nil
	}

	// Materialize the archive: archive/zip needs random access, which an
	// object stream cannot provide.
	defer out.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, errors.Wrapf(err, "reading S3 archive %v", name)
	}
	data := buf.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive %v", name)
	}
	return zipSequence(zr, r.Filter), nil
}

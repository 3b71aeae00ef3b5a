// Package source opens dataset locations: local files, gzip-compressed files
// and s3://bucket/key objects.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
)

const s3Scheme = "s3://"

// ObjectGetter is the part of the S3 client the opener uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener opens locations. The zero value works; the S3 client is created
// from the default AWS config the first time an s3:// location is opened.
type Opener struct {
	S3 ObjectGetter

	once  sync.Once
	s3Err error
}

// Resolve joins a relative name onto dir. Absolute paths and s3:// locations
// are returned unchanged.
func Resolve(dir, name string) string {
	if name == "" || IsS3(name) || filepath.IsAbs(name) {
		return name
	}
	if IsS3(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}

func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// ParseS3 splits s3://bucket/key.
func ParseS3(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: want s3://bucket/key", location)
	}
	return bucket, key, nil
}

// Open returns a reader for location. Locations ending in .gz are
// decompressed; closing the reader closes the underlying source too.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	if IsS3(location) {
		rc, err = o.openS3(ctx, location)
	} else {
		rc, err = os.Open(location)
	}
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(location, ".gz") {
		return rc, nil
	}
	zr, err := gzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("gzip %s: %w", location, err)
	}
	return &gzipReadCloser{Reader: zr, src: rc}, nil
}

func (o *Opener) openS3(ctx context.Context, location string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3(location)
	if err != nil {
		return nil, err
	}
	client, err := o.client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", location, err)
	}
	return out.Body, nil
}

func (o *Opener) client(ctx context.Context) (ObjectGetter, error) {
	o.once.Do(func() {
		if o.S3 != nil {
			return
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			o.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		o.S3 = s3.NewFromConfig(cfg)
	})
	if o.s3Err != nil {
		return nil, o.s3Err
	}
	return o.S3, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	src io.Closer
}

func (g *gzipReadCloser) Close() error {
	return errors.Join(g.Reader.Close(), g.src.Close())
}

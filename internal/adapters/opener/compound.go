package opener

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"secretariat_import/internal/ports"
)

type URLOpener interface {
	Open(ctx context.Context, url string) (io.ReadCloser, ports.Meta, error)
}

type ObjectOpener interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, ports.Meta, error)
}

// CompoundOpener dispatches on the path form: http(s) URLs go to HTTP,
// s3://bucket/key and bare keys go to S3, bare keys in DefaultBucket.
type CompoundOpener struct {
	HTTP URLOpener
	S3   ObjectOpener

	DefaultBucket string
}

var _ ports.FileOpener = (*CompoundOpener)(nil)

func NewCompoundOpener(httpOp URLOpener, s3Op ObjectOpener, defaultBucket string) *CompoundOpener {
	return &CompoundOpener{
		HTTP:          httpOp,
		S3:            s3Op,
		DefaultBucket: defaultBucket,
	}
}

func (c *CompoundOpener) Open(ctx context.Context, filePath string) (io.ReadCloser, ports.Meta, error) {
	fp := strings.TrimSpace(filePath)
	if fp == "" {
		return nil, ports.Meta{}, errors.New("empty file path")
	}

	switch {
	case strings.HasPrefix(fp, "http://") || strings.HasPrefix(fp, "https://"):
		if c.HTTP == nil {
			return nil, ports.Meta{}, errors.New("http opener not configured")
		}
		return c.HTTP.Open(ctx, fp)

	case strings.HasPrefix(fp, "s3://"):
		if c.S3 == nil {
			return nil, ports.Meta{}, errors.New("s3 opener not configured")
		}
		bkt, key, err := parseS3URL(fp)
		if err != nil {
			return nil, ports.Meta{}, err
		}
		return c.S3.Open(ctx, bkt, key)

	default:
		if c.S3 == nil || c.DefaultBucket == "" {
			return nil, ports.Meta{}, errors.New("missing bucket: pass s3://bucket/key or https url")
		}
		key, err := cleanKey(fp)
		if err != nil {
			return nil, ports.Meta{}, err
		}
		return c.S3.Open(ctx, c.DefaultBucket, key)
	}
}

func parseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", errors.New("scheme must be s3")
	}
	bucket = u.Host
	if bucket == "" {
		return "", "", errors.New("empty bucket or key")
	}
	key, err = cleanKey(u.Path)
	if err != nil {
		return "", "", err
	}
	return bucket, key, nil
}

func cleanKey(raw string) (string, error) {
	key := path.Clean("/" + strings.TrimSpace(raw))
	key = strings.TrimPrefix(key, "/")
	if key == "" || key == "." {
		return "", errors.New("empty bucket or key")
	}
	return key, nil
}

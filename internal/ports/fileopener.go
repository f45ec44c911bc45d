package ports

import (
	"context"
	"io"
)

// Meta describes an opened spreadsheet.
type Meta struct {
	Source      string
	ContentType string
	Size        int64
	Bucket      string
	Key         string
}

// FileOpener resolves an import path (s3://bucket/key, https URL or a bare
// key in the default bucket) to a readable stream.
type FileOpener interface {
	Open(ctx context.Context, filePath string) (io.ReadCloser, Meta, error)
}

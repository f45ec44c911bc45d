package opener

import (
	"context"
	"fmt"
	"io"

	"secretariat_import/internal/logger"
	"secretariat_import/internal/ports"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type S3Client interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

type S3Opener struct {
	Client S3Client
	log    *zap.Logger
}

func NewS3Opener(cli S3Client, log *zap.Logger) *S3Opener {
	return &S3Opener{Client: cli, log: logger.OrNop(log)}
}

func (s *S3Opener) Open(ctx context.Context, bucket, key string) (io.ReadCloser, ports.Meta, error) {
	s.log.Info("[OPENER][S3][START]", zap.String("bucket", bucket), zap.String("key", key))

	st, err := s.Client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, ports.Meta{}, fmt.Errorf("s3 stat: %w", err)
	}
	obj, err := s.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ports.Meta{}, fmt.Errorf("s3 get: %w", err)
	}

	s.log.Info("[OPENER][S3][OK]",
		zap.String("content_type", st.ContentType),
		zap.Int64("size", st.Size),
		zap.String("etag", st.ETag),
	)
	return obj, ports.Meta{
		Source:      "s3",
		ContentType: st.ContentType,
		Size:        st.Size,
		Bucket:      bucket,
		Key:         key,
	}, nil
}

package minio

import (
	"Rankify/internal/api/config"
	"Rankify/internal/model"
	"context"
	"fmt"
	"io"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

const objectPrefix = "rankings"

// BlobStore 条目图片与头像的对象存储，引用即对象名
type BlobStore struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

func NewBlobStore(client *minio.Client, cfg config.MinIOConfig) *BlobStore {
	endpoint, useSSL := cfg.ExternalEndpoint, cfg.ExternalUseSSL
	if endpoint == "" {
		endpoint, useSSL = cfg.InternalEndpoint, cfg.InternalUseSSL
	}
	return &BlobStore{
		client:   client,
		bucket:   cfg.MainBucket,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		useSSL:   useSSL,
	}
}

func (s *BlobStore) Store(ctx context.Context, r io.Reader, size int64, contentType, ext string) (string, error) {
	objectName := ObjectName(time.Now(), ext)

	info, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.WarnContext(ctx, "put object failed", "object", objectName, "err", err)
		return "", errors.WithMessagef(model.ErrStoreUnavailable, "put object %s: %v", objectName, err)
	}
	return info.Key, nil
}

// Resolve 获取文件的公共访问URL
func (s *BlobStore) Resolve(ref string) string {
	if ref == "" {
		return ""
	}
	protocol := "http"
	if s.useSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.endpoint, s.bucket, strings.TrimPrefix(ref, "/"))
}

// ObjectName 按日期分目录: rankings/2006/01/02/<uuid><ext>
func ObjectName(now time.Time, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%s/%s%s", objectPrefix, now.UTC().Format("2006/01/02"), uuid.NewString(), ext)
}

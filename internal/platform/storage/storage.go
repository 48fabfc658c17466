// Package storage keeps uploaded files in S3-compatible object storage, or in a local
// directory when no bucket is configured.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"

	"pms/internal/platform/config"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns prefix/<ulid><ext>. ULIDs sort by upload time.
func NewKey(prefix, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(fileName, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return strings.Trim(prefix, "/") + "/" + ulid.Make().String() + ext
}

func New(cfg config.Config) (Store, error) {
	if cfg.S3Bucket == "" {
		return NewLocal(cfg.UploadDir)
	}
	store, err := NewS3(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
	if err != nil {
		return nil, fmt.Errorf("create object storage: %w", err)
	}
	return store, nil
}

package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotConfigured is returned when report archiving has no bucket.
var ErrNotConfigured = errors.New("object storage not configured")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service archives exported reports in remote object storage.
type Service interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Package media stores the binary attachments (photos and audio) that
// journal entries reference by URL.
package media

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("media not found")

type Store interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

package objectstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Download when no object is stored under the key.
var ErrNotFound = errors.New("object not found")

type Client interface {
	Upload(ctx context.Context, key string, content io.Reader) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

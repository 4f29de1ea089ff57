package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/beanbocchi/tubeup/internal/client/objectstore"
)

type ClientImpl struct {
	root string
}

type LocalConfig struct {
	// Root is the base directory where objects are stored on disk (e.g., ./data)
	Root string
}

func NewClient(cfg LocalConfig) (*ClientImpl, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("local root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}
	return &ClientImpl{root: cfg.Root}, nil
}

// fullPath keeps every key inside root, "../" segments included.
func (c *ClientImpl) fullPath(key string) string {
	return filepath.Join(c.root, filepath.FromSlash(filepath.Clean("/"+key)))
}

func (c *ClientImpl) Upload(ctx context.Context, key string, content io.Reader) error {
	path := c.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	// Parts of one session may be written concurrently, so each write gets its own temp file.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := io.Copy(f, contextReader{ctx: ctx, r: content}); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename file: %w", err)
	}

	return nil
}

func (c *ClientImpl) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	file, err := os.Open(c.fullPath(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", objectstore.ErrNotFound, key)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

func (c *ClientImpl) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.fullPath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

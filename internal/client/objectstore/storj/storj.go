package storj

import (
	"context"
	"errors"
	"fmt"
	"io"

	"storj.io/uplink"

	"github.com/beanbocchi/tubeup/internal/client/objectstore"
)

type ClientImpl struct {
	project *uplink.Project
	bucket  string
}

type StorjConfig struct {
	// AccessGrant is the serialized Storj access grant
	AccessGrant string
	// Bucket holds parts under uploads/ and finished assets under their object key
	Bucket string
}

// NewClient opens the project behind the access grant and makes sure the bucket exists
func NewClient(ctx context.Context, cfg StorjConfig) (*ClientImpl, error) {
	if cfg.AccessGrant == "" {
		return nil, fmt.Errorf("access grant is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	access, err := uplink.ParseAccess(cfg.AccessGrant)
	if err != nil {
		return nil, fmt.Errorf("parse access grant: %w", err)
	}

	project, err := uplink.OpenProject(ctx, access)
	if err != nil {
		return nil, fmt.Errorf("open project: %w", err)
	}

	if _, err := project.EnsureBucket(ctx, cfg.Bucket); err != nil {
		project.Close()
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	return &ClientImpl{
		project: project,
		bucket:  cfg.Bucket,
	}, nil
}

func (c *ClientImpl) Close() error {
	if c.project != nil {
		return c.project.Close()
	}
	return nil
}

// Upload streams content into a pending object and commits it only once the
// whole body was read, so a failed part never becomes visible
func (c *ClientImpl) Upload(ctx context.Context, key string, content io.Reader) error {
	upload, err := c.project.UploadObject(ctx, c.bucket, key, nil)
	if err != nil {
		return fmt.Errorf("initiate upload: %w", err)
	}

	if _, err := io.Copy(upload, content); err != nil {
		_ = upload.Abort()
		return fmt.Errorf("write data: %w", err)
	}

	if err := upload.Commit(); err != nil {
		return fmt.Errorf("commit upload: %w", err)
	}
	return nil
}

func (c *ClientImpl) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	download, err := c.project.DownloadObject(ctx, c.bucket, key, nil)
	if err != nil {
		if errors.Is(err, uplink.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", objectstore.ErrNotFound, key)
		}
		return nil, fmt.Errorf("download object: %w", err)
	}
	return download, nil
}

func (c *ClientImpl) Delete(ctx context.Context, key string) error {
	if _, err := c.project.DeleteObject(ctx, c.bucket, key); err != nil && !errors.Is(err, uplink.ErrObjectNotFound) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

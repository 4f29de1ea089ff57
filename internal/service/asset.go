package service

import (
	"context"
	"fmt"
	"io"

	"github.com/beanbocchi/tubeup/internal/model"
)

type Asset struct {
	ContentType string
	Size        int64
	Checksum    string
	Body        io.ReadCloser
}

// OpenAsset opens an assembled object for reading. The caller closes Body.
func (s *Service) OpenAsset(ctx context.Context, objectKey string) (*Asset, error) {
	s.mu.Lock()
	info, ok := s.assets[objectKey]
	s.mu.Unlock()
	if !ok {
		return nil, model.ErrResourceNotFound
	}

	body, err := s.objectStore.Download(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return &Asset{
		ContentType: info.contentType,
		Size:        info.size,
		Checksum:    info.checksum,
		Body:        body,
	}, nil
}

package service

import (
	"context"
	"fmt"
	"io"

	"github.com/beanbocchi/tubeup/internal/model"
	"github.com/beanbocchi/tubeup/internal/utils/blake3"
	"github.com/beanbocchi/tubeup/internal/utils/ioutil"
)

type UploadPartParams struct {
	SessionID  string
	PartNumber int
	Body       io.Reader
}

type UploadPartResult struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// UploadPart stores the body of one part and returns its BLAKE3 tag. Sending
// the same part again replaces it. A session cannot be completed while any
// part body is still streaming.
func (s *Service) UploadPart(ctx context.Context, params UploadPartParams) (*UploadPartResult, error) {
	s.mu.Lock()
	sess, ok := s.sessions[params.SessionID]
	if !ok || sess.completing {
		s.mu.Unlock()
		return nil, model.ErrUploadNotFound.Fmt(params.SessionID)
	}
	if params.PartNumber < 1 || params.PartNumber > sess.numParts {
		s.mu.Unlock()
		return nil, model.ErrPartOutOfRange.Fmt(params.PartNumber, sess.numParts)
	}
	expected := sess.partLength(params.PartNumber)
	sess.uploading++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		sess.uploading--
		s.mu.Unlock()
	}()

	key := partKey(params.SessionID, params.PartNumber)
	counter := ioutil.NewCountingReader(io.LimitReader(params.Body, expected+1))
	hashed := blake3.NewReader(counter)

	if err := s.objectStore.Upload(ctx, key, hashed); err != nil {
		return nil, fmt.Errorf("store part %d: %w", params.PartNumber, err)
	}
	if counter.N != expected {
		_ = s.objectStore.Delete(ctx, key)
		return nil, model.ErrPartSize.Fmt(params.PartNumber, counter.N, expected)
	}
	tag := hashed.Sum()

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[params.SessionID]; !ok || current != sess {
		// aborted while the body was streaming
		_ = s.objectStore.Delete(ctx, key)
		return nil, model.ErrUploadNotFound.Fmt(params.SessionID)
	}
	sess.tags[params.PartNumber] = tag

	s.logger.Debug("part stored", "session_id", params.SessionID, "part_number", params.PartNumber, "size", counter.N)
	return &UploadPartResult{PartNumber: params.PartNumber, ETag: tag}, nil
}

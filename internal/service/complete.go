package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beanbocchi/tubeup/internal/model"
	"github.com/beanbocchi/tubeup/internal/utils/blake3"
	"github.com/beanbocchi/tubeup/internal/utils/ioutil"
)

type CompletedPart struct {
	PartNumber int
	ETag       string
}

type CompleteUploadParams struct {
	SessionID string
	ObjectKey string
	Parts     []CompletedPart
}

type CompleteUploadResult struct {
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// CompleteUpload checks the submitted tags against the stored parts and
// concatenates the parts into the destination object.
func (s *Service) CompleteUpload(ctx context.Context, params CompleteUploadParams) (*CompleteUploadResult, error) {
	sess, err := s.claim(params)
	if err != nil {
		return nil, err
	}

	size, checksum, err := s.assemble(ctx, sess)
	if err != nil {
		s.mu.Lock()
		sess.completing = false
		s.mu.Unlock()
		_ = s.objectStore.Delete(ctx, sess.objectKey)
		return nil, err
	}

	for n := 1; n <= sess.numParts; n++ {
		if err := s.objectStore.Delete(ctx, partKey(sess.id, n)); err != nil {
			s.logger.Warn("delete assembled part", "session_id", sess.id, "part_number", n, "error", err)
		}
	}

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.assets[sess.objectKey] = asset{contentType: sess.contentType, size: size, checksum: checksum}
	s.mu.Unlock()

	s.logger.Info("multipart session completed", "session_id", sess.id, "object_key", sess.objectKey, "size", size)
	return &CompleteUploadResult{
		URL:      s.fileURL(sess.objectKey),
		Size:     size,
		Checksum: checksum,
	}, nil
}

// claim validates the part list and marks the session as completing so parts
// can no longer be replaced under the assembly.
func (s *Service) claim(params CompleteUploadParams) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[params.SessionID]
	if !ok || sess.completing {
		return nil, model.ErrUploadNotFound.Fmt(params.SessionID)
	}
	if sess.objectKey != params.ObjectKey {
		return nil, model.ErrObjectKeyMismatch.Fmt(params.ObjectKey, params.SessionID)
	}
	if len(params.Parts) != sess.numParts {
		return nil, model.ErrInvalidParts.Fmt(fmt.Sprintf("expected %d parts, got %d", sess.numParts, len(params.Parts)))
	}

	if sess.uploading > 0 {
		return nil, model.ErrInvalidParts.Fmt(fmt.Sprintf("%d parts are still uploading", sess.uploading))
	}

	// A missing part is reported before any tag mismatch.
	for i, part := range params.Parts {
		if part.PartNumber != i+1 {
			return nil, model.ErrInvalidParts.Fmt("parts must be sorted ascending by partNumber without gaps")
		}
		if _, ok := sess.tags[part.PartNumber]; !ok {
			return nil, model.ErrInvalidParts.Fmt(fmt.Sprintf("part %d was never uploaded", part.PartNumber))
		}
	}
	for _, part := range params.Parts {
		if strings.Trim(part.ETag, `"`) != sess.tags[part.PartNumber] {
			return nil, model.ErrUploadIntegrity.Fmt(part.PartNumber)
		}
	}

	sess.completing = true
	return sess, nil
}

// assemble streams every part, in order, into the destination object.
func (s *Service) assemble(ctx context.Context, sess *session) (int64, string, error) {
	pr, pw := io.Pipe()
	copied := make(chan error, 1)

	go func() {
		var err error
		defer func() {
			pw.CloseWithError(err)
			copied <- err
		}()
		for n := 1; n <= sess.numParts; n++ {
			var rc io.ReadCloser
			rc, err = s.objectStore.Download(ctx, partKey(sess.id, n))
			if err != nil {
				err = fmt.Errorf("read part %d: %w", n, err)
				return
			}
			_, err = io.Copy(pw, rc)
			rc.Close()
			if err != nil {
				err = fmt.Errorf("copy part %d: %w", n, err)
				return
			}
		}
	}()

	counter := ioutil.NewCountingReader(pr)
	hashed := blake3.NewReader(counter)
	uploadErr := s.objectStore.Upload(ctx, sess.objectKey, hashed)
	pr.CloseWithError(io.ErrClosedPipe)
	copyErr := <-copied

	if err := errors.Join(uploadErr, copyErr); err != nil {
		return 0, "", model.ErrObjectStoreFailure.Fmt("assemble", err.Error())
	}
	if counter.N != sess.fileSize {
		return 0, "", model.ErrInvalidParts.Fmt(fmt.Sprintf("assembled %d bytes, expected %d", counter.N, sess.fileSize))
	}
	return counter.N, hashed.Sum(), nil
}

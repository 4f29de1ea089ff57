package service

import (
	"context"
	"errors"

	"github.com/beanbocchi/tubeup/internal/model"
)

type AbortUploadParams struct {
	SessionID string
	ObjectKey string
}

// AbortUpload drops the session and its stored parts. Unknown sessions are
// treated as already aborted.
func (s *Service) AbortUpload(ctx context.Context, params AbortUploadParams) error {
	s.mu.Lock()
	sess, ok := s.sessions[params.SessionID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if sess.objectKey != params.ObjectKey {
		s.mu.Unlock()
		return model.ErrObjectKeyMismatch.Fmt(params.ObjectKey, params.SessionID)
	}
	if sess.completing {
		s.mu.Unlock()
		return model.ErrInvalidParts.Fmt("session is being completed")
	}
	delete(s.sessions, params.SessionID)
	s.mu.Unlock()

	var errs []error
	for n := 1; n <= sess.numParts; n++ {
		if err := s.objectStore.Delete(ctx, partKey(sess.id, n)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Warn("multipart session aborted with leftovers", "session_id", sess.id, "error", err)
		return model.ErrObjectStoreFailure.Fmt("delete parts", err.Error())
	}

	s.logger.Info("multipart session aborted", "session_id", sess.id, "object_key", sess.objectKey)
	return nil
}

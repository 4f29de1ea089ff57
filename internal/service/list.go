package service

import (
	"context"
	"slices"
	"time"

	"github.com/beanbocchi/tubeup/internal/model"
)

type ListUploadsParams struct {
	model.PaginationParams
}

type UploadSummary struct {
	SessionID     string    `json:"sessionId"`
	ObjectKey     string    `json:"objectKey"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	PartSize      int64     `json:"partSize"`
	NumParts      int       `json:"numParts"`
	PartsReceived int       `json:"partsReceived"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ListUploads pages through open sessions, oldest first.
func (s *Service) ListUploads(ctx context.Context, params ListUploadsParams) (model.PaginateResult[UploadSummary], error) {
	s.mu.Lock()
	summaries := make([]UploadSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		summaries = append(summaries, UploadSummary{
			SessionID:     sess.id,
			ObjectKey:     sess.objectKey,
			FileName:      sess.fileName,
			FileSize:      sess.fileSize,
			PartSize:      sess.partSize,
			NumParts:      sess.numParts,
			PartsReceived: len(sess.tags),
			CreatedAt:     sess.createdAt,
		})
	}
	s.mu.Unlock()

	slices.SortFunc(summaries, func(a, b UploadSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.SessionID, b.SessionID)
	})

	return model.Paginate(summaries, params.PaginationParams), nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

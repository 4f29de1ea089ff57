package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/beanbocchi/tubeup/internal/model"
	"github.com/beanbocchi/tubeup/internal/utils/objectkey"
	"github.com/beanbocchi/tubeup/pkg/uploader"
)

const defaultContentType = "video/mp4"

type InitiateUploadParams struct {
	FileName    string
	FileSize    int64
	ContentType string
}

type PartURL struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

type InitiateUploadResult struct {
	SessionID string    `json:"sessionId"`
	ObjectKey string    `json:"objectKey"`
	PartSize  int64     `json:"partSize"`
	NumParts  int       `json:"numParts"`
	Parts     []PartURL `json:"parts"`
	FileURL   string    `json:"fileUrl"`
}

// InitiateUpload opens a multipart session and mints one upload address per part.
func (s *Service) InitiateUpload(ctx context.Context, params InitiateUploadParams) (*InitiateUploadResult, error) {
	if params.FileName == "" || params.FileSize <= 0 {
		return nil, model.ErrValidation.Fmt("fileName and a positive fileSize are required")
	}

	partSize, err := uploader.PartSizeFor(params.FileSize, s.upload.PartSize, s.upload.MaxParts)
	if err != nil {
		return nil, model.ErrValidation.Fmt(err.Error())
	}
	numParts := uploader.PartCount(params.FileSize, partSize)
	if partSize > maxPartSize || numParts > s.upload.MaxParts {
		return nil, model.ErrTooManyParts.Fmt(params.FileSize, numParts, s.upload.MaxParts)
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	sess := &session{
		id:          uuid.NewString(),
		objectKey:   objectkey.New(s.upload.KeyPrefix, params.FileName, s.now()),
		fileName:    params.FileName,
		contentType: contentType,
		fileSize:    params.FileSize,
		partSize:    partSize,
		numParts:    numParts,
		createdAt:   s.now(),
		tags:        make(map[int]string, numParts),
	}

	parts := make([]PartURL, numParts)
	for i := range parts {
		parts[i] = PartURL{PartNumber: i + 1, URL: s.partURL(sess.id, i+1)}
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("multipart session opened",
		"session_id", sess.id,
		"object_key", sess.objectKey,
		"file_size", sess.fileSize,
		"part_size", partSize,
		"parts", numParts,
	)

	return &InitiateUploadResult{
		SessionID: sess.id,
		ObjectKey: sess.objectKey,
		PartSize:  partSize,
		NumParts:  numParts,
		Parts:     parts,
		FileURL:   s.fileURL(sess.objectKey),
	}, nil
}

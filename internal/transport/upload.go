package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/tubeup/internal/model"
	"github.com/beanbocchi/tubeup/internal/service"
	"github.com/beanbocchi/tubeup/pkg/response"
)

type InitiateUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=1024"`
	FileSize    int64  `json:"fileSize" validate:"required,gt=0"`
	ContentType string `json:"contentType" validate:"omitempty,max=255"`
}

func (h *Handler) InitiateUpload(c echo.Context) error {
	var req InitiateUploadRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}

	res, err := h.svc.InitiateUpload(c.Request().Context(), service.InitiateUploadParams{
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	})
	if err != nil {
		return response.FromError(c.Response().Writer, statusFor(err), err)
	}
	return response.FromDTO(c.Response().Writer, http.StatusOK, res)
}

type CompletedPartRequest struct {
	PartNumber int    `json:"partNumber" validate:"required,gte=1"`
	ETag       string `json:"etag" validate:"required"`
}

type CompleteUploadRequest struct {
	SessionID string                 `json:"sessionId" validate:"required"`
	ObjectKey string                 `json:"objectKey" validate:"required,objectkey"`
	Parts     []CompletedPartRequest `json:"parts" validate:"required,min=1,dive"`
}

func (h *Handler) CompleteUpload(c echo.Context) error {
	var req CompleteUploadRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}

	parts := make([]service.CompletedPart, len(req.Parts))
	for i, p := range req.Parts {
		parts[i] = service.CompletedPart{PartNumber: p.PartNumber, ETag: p.ETag}
	}

	res, err := h.svc.CompleteUpload(c.Request().Context(), service.CompleteUploadParams{
		SessionID: req.SessionID,
		ObjectKey: req.ObjectKey,
		Parts:     parts,
	})
	if err != nil {
		return response.FromError(c.Response().Writer, statusFor(err), err)
	}
	return response.FromDTO(c.Response().Writer, http.StatusOK, res)
}

type AbortUploadRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
	ObjectKey string `json:"objectKey" validate:"required,objectkey"`
}

func (h *Handler) AbortUpload(c echo.Context) error {
	var req AbortUploadRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}

	if err := h.svc.AbortUpload(c.Request().Context(), service.AbortUploadParams{
		SessionID: req.SessionID,
		ObjectKey: req.ObjectKey,
	}); err != nil {
		return response.FromError(c.Response().Writer, statusFor(err), err)
	}
	return response.FromMessage(c.Response().Writer, http.StatusOK, "Upload aborted")
}

type ListUploadsRequest struct {
	model.PaginationParams
}

func (h *Handler) ListUploads(c echo.Context) error {
	var req ListUploadsRequest
	if err := c.Bind(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}

	uploads, err := h.svc.ListUploads(c.Request().Context(), service.ListUploadsParams{
		PaginationParams: req.PaginationParams,
	})
	if err != nil {
		return response.FromError(c.Response().Writer, statusFor(err), err)
	}
	return response.FromDTO(c.Response().Writer, http.StatusOK, response.FromPaginateResult(uploads))
}

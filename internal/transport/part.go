package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/tubeup/internal/service"
	"github.com/beanbocchi/tubeup/pkg/response"
)

type UploadPartRequest struct {
	SessionID  string `param:"session_id" validate:"required"`
	PartNumber int    `param:"part_number" validate:"required,gte=1"`
}

// UploadPart receives the raw bytes of one part. The body is not bound, only
// the path parameters are.
func (h *Handler) UploadPart(c echo.Context) error {
	var req UploadPartRequest
	if err := (&echo.DefaultBinder{}).BindPathParams(c, &req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.FromError(c.Response().Writer, http.StatusBadRequest, err)
	}

	res, err := h.svc.UploadPart(c.Request().Context(), service.UploadPartParams{
		SessionID:  req.SessionID,
		PartNumber: req.PartNumber,
		Body:       c.Request().Body,
	})
	if err != nil {
		return response.FromError(c.Response().Writer, statusFor(err), err)
	}

	c.Response().Header().Set("ETag", `"`+res.ETag+`"`)
	return response.FromDTO(c.Response().Writer, http.StatusOK, res)
}

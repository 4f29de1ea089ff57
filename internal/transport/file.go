package transport

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/beanbocchi/tubeup/pkg/response"
)

func (h *Handler) GetFile(c echo.Context) error {
	asset, err := h.svc.OpenAsset(c.Request().Context(), c.Param("*"))
	if err != nil {
		return response.FromError(c.Response().Writer, statusFor(err), err)
	}
	defer asset.Body.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentType, asset.ContentType)
	header.Set(echo.HeaderContentLength, strconv.FormatInt(asset.Size, 10))
	header.Set("ETag", `"`+asset.Checksum+`"`)
	c.Response().WriteHeader(http.StatusOK)

	if c.Request().Method == http.MethodHead {
		return nil
	}
	// Headers are already sent, so a failed copy can only be reported upstream.
	_, err = io.Copy(c.Response().Writer, asset.Body)
	return err
}

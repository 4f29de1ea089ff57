package transport

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/beanbocchi/tubeup/internal/service"
)

type Handler struct {
	svc *service.Service
}

func SetupRoute(e *echo.Echo, svc *service.Service, requestTimeout time.Duration) {
	h := &Handler{svc: svc}
	api := e.Group("/api/v1")

	uploads := api.Group("/uploads")
	if requestTimeout > 0 {
		uploads.Use(middleware.ContextTimeout(requestTimeout))
	}
	uploads.POST("/initiate", h.InitiateUpload)
	uploads.POST("/complete", h.CompleteUpload)
	uploads.POST("/abort", h.AbortUpload)
	uploads.GET("", h.ListUploads)

	api.PUT("/parts/:session_id/:part_number", h.UploadPart)

	e.GET("/files/*", h.GetFile)
	e.HEAD("/files/*", h.GetFile)
}

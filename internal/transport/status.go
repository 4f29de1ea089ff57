package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/beanbocchi/tubeup/internal/model"
)

// statusFor maps a service error to the HTTP status it is reported with.
func statusFor(err error) int {
	var coded model.Error
	if !errors.As(err, &coded) {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	}

	switch coded.Code() {
	case model.ErrValidation.Code(), model.ErrTooManyParts.Code(), model.ErrPartOutOfRange.Code(),
		model.ErrPartSize.Code(), model.ErrInvalidParts.Code():
		return http.StatusBadRequest
	case model.ErrUploadIntegrity.Code():
		return http.StatusUnprocessableEntity
	case model.ErrObjectKeyMismatch.Code():
		return http.StatusConflict
	case model.ErrUploadNotFound.Code(), model.ErrResourceNotFound.Code():
		return http.StatusNotFound
	case model.ErrObjectStoreFailure.Code():
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

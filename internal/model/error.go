package model

import (
	"errors"
	"fmt"
)

type ErrorWithCode interface {
	Error() string
	Code() string
}

type Error struct {
	ErrCode string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Code() string {
	return e.ErrCode
}

// Fmt creates a new error from the base error template with provided arguments
func (e Error) Fmt(args ...any) Error {
	return Error{
		ErrCode: e.ErrCode,
		Message: fmt.Sprintf(e.Message, args...),
	}
}

// Is matches errors by code so a formatted error still matches its template.
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}
	return t.ErrCode == e.ErrCode
}

func NewError(code, message string) Error {
	return Error{
		ErrCode: code,
		Message: message,
	}
}

var (
	ErrValidation       = NewError("validation", "Validation error: %s")
	ErrResourceNotFound = NewError("resource.not_found", "Resource not found")
	ErrInternal         = NewError("internal", "%s")

	ErrUploadNotFound     = NewError("upload.not_found", "Upload session %s not found")
	ErrTooManyParts       = NewError("upload.too_many_parts", "File of %d bytes needs %d parts, the limit is %d")
	ErrPartOutOfRange     = NewError("upload.part_out_of_range", "Part %d is outside 1..%d")
	ErrPartSize           = NewError("upload.part_size", "Part %d has %d bytes, expected %d")
	ErrInvalidParts       = NewError("upload.invalid_parts", "Invalid part list: %s")
	ErrUploadIntegrity    = NewError("upload.integrity", "Part %d tag does not match the stored part")
	ErrObjectKeyMismatch  = NewError("upload.key_mismatch", "Object key %s does not belong to session %s")
	ErrObjectStoreFailure = NewError("object_store.failure", "Object store %s failed: %s")
)

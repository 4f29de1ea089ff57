package uploader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput reports a bad size or option, detected before any network call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCanceled is returned by Start when Cancel resolved the upload into StateAborted.
	ErrCanceled = errors.New("upload canceled")
	// ErrAlreadyStarted is returned when Start is called on a used Coordinator.
	ErrAlreadyStarted = errors.New("coordinator already started")
)

// Phase names one of the three negotiation calls.
type Phase string

const (
	PhaseOpen     Phase = "open"
	PhaseFinalize Phase = "finalize"
	PhaseAbort    Phase = "abort"
)

// NegotiationError is a rejected or failed call to the negotiation backend.
type NegotiationError struct {
	Phase     Phase
	SessionID string
	Err       error
}

func (e *NegotiationError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("negotiation %s (session %s): %v", e.Phase, e.SessionID, e.Err)
	}
	return fmt.Sprintf("negotiation %s: %v", e.Phase, e.Err)
}

func (e *NegotiationError) Unwrap() error {
	return e.Err
}

// TransferError is a failed part upload. A part that ran past its timeout is
// reported the same way.
type TransferError struct {
	PartNumber int
	Err        error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer part %d: %v", e.PartNumber, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// IntegrityError is returned when the storage backend rejects the tag set at
// finalize time. The session cannot be recovered.
type IntegrityError struct {
	SessionID string
	Err       error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed for session %s: %v", e.SessionID, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

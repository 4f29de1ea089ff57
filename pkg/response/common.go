package response

import (
	"errors"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/beanbocchi/tubeup/internal/model"
)

type CommonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *model.Error `json:"error"`
}

// FromDTO writes data inside the common envelope.
func FromDTO(w http.ResponseWriter, status int, data any) error {
	return write(w, status, CommonResponse{Data: data})
}

// FromMessage writes a plain message as the envelope data.
func FromMessage(w http.ResponseWriter, status int, message string) error {
	return write(w, status, CommonResponse{Data: message})
}

// FromError writes err as a coded error. Errors without a code are reported as internal.
func FromError(w http.ResponseWriter, status int, err error) error {
	var coded model.Error
	if !errors.As(err, &coded) {
		coded = model.ErrInternal.Fmt(err.Error())
	}
	return write(w, status, CommonResponse{Error: &coded})
}

func write(w http.ResponseWriter, status int, body CommonResponse) error {
	payload, err := sonic.Marshal(body)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	return err
}

package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

// Decode reads a JSON body into dst. It writes 413 when the body limit was
// hit and 400 for anything else that fails to parse.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// DecodeOptional is Decode for endpoints whose body may be empty.
func DecodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	reqID := middleware.GetRequestID(r.Context())
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", reqID)
		return false
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
	return false
}

// IDParam returns the named URL parameter, writing 400 when it is not a UUID.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := chi.URLParam(r, name)
	if _, err := uuid.Parse(value); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_id", "invalid "+name, middleware.GetRequestID(r.Context()))
		return "", false
	}
	return value, true
}

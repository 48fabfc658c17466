package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"pms/internal/domain/apperr"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FailError maps a domain error to its status. Anything without a kind is
// logged and reported as a 500 carrying code and fallback.
func FailError(w http.ResponseWriter, r *http.Request, err error, code, fallback string) {
	reqID := middleware.GetRequestID(r.Context())
	msg, ok := apperr.Message(err)
	if !ok {
		msg = fallback
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", msg, reqID)
		return
	case errors.Is(err, apperr.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", msg, reqID)
		return
	case errors.Is(err, apperr.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", msg, reqID)
		return
	case errors.Is(err, apperr.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", msg, reqID)
		return
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			api.Fail(w, http.StatusConflict, "conflict", "resource already exists", reqID)
			return
		case pgForeignKeyViolation:
			api.Fail(w, http.StatusBadRequest, "validation_error", "referenced record does not exist", reqID)
			return
		}
	}

	slog.Error(fallback, "err", err, "code", code, "requestId", reqID, "path", r.URL.Path)
	api.Fail(w, http.StatusInternalServerError, code, fallback, reqID)
}

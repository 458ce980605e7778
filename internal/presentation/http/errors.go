package httppresentation

import (
	"errors"
	"net/http"

	"github.com/Zhima-Mochi/courseshop/internal/apperr"
	"github.com/Zhima-Mochi/courseshop/internal/observability"
	"github.com/Zhima-Mochi/courseshop/internal/observability/logctx"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// reportError is the single path from a failed request to its response.
func (h *Handler) reportError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)

	logger := logctx.FromOr(r.Context(), h.log)
	fields := []observability.Field{
		observability.F("kind", string(kind)),
		observability.F("status", status),
		observability.F("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request_failed", fields...)
	} else {
		logger.Warn("request_rejected", fields...)
	}

	writeJSON(w, status, errorResponse{Success: false, Message: publicMessage(err)})
}

// publicMessage is what the caller sees. Dispatch and persistence failures
// carry the underlying cause; internal errors carry nothing.
func publicMessage(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return http.StatusText(http.StatusInternalServerError)
	}
	switch e.Kind {
	case apperr.KindInternal:
		return http.StatusText(http.StatusInternalServerError)
	case apperr.KindNotificationDispatchFailed, apperr.KindPersistenceFailed:
		return e.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error()
}

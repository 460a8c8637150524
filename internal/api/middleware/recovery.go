package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/guestdesk/internal/api/apierr"
	"github.com/mcoot/guestdesk/internal/middleware"
)

// Recovery turns a handler panic into a JSON INTERNAL_ERROR carrying the
// request id that Logging assigned
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, writePanicError)
}

func writePanicError(w http.ResponseWriter, r *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalErrorForRequest(middleware.RequestID(r.Context())))
}

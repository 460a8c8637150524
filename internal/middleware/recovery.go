package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the error response for a recovered panic
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery logs a handler panic with its request id and stack, then lets
// handler answer. A panic after the response started (an activity stream,
// say) cannot be answered, so the connection is only logged and dropped.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				started := responseStarted(w)
				logger.Error("panic recovered",
					slog.String("error", fmt.Sprint(rec)),
					slog.String("request_id", RequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", started),
					slog.String("stack", string(debug.Stack())),
				)
				if started {
					panic(http.ErrAbortHandler)
				}
				handler(w, r, rec)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func responseStarted(w http.ResponseWriter) bool {
	s, ok := w.(interface{ Started() bool })
	return ok && s.Started()
}

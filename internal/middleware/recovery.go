package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
)

const panicMessage = "Unexpected server error"

// headerTracker remembers whether a response has started.
type headerTracker struct {
	http.ResponseWriter
	started bool
}

func (t *headerTracker) WriteHeader(code int) {
	t.started = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *headerTracker) Write(b []byte) (int, error) {
	t.started = true
	return t.ResponseWriter.Write(b)
}

// Recovery turns a panic into a 500 failure notification. When the handler
// had already started its response, such as a half-written export file,
// nothing more is written and only the log records the panic.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &headerTracker{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("route", routeLabel(r)),
					zap.String("path", r.URL.Path),
					zap.Bool("response_started", tw.started),
					zap.String("request_id", GetRequestID(r.Context())),
				)
				if !tw.started {
					model.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", panicMessage)
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

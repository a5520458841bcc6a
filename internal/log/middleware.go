// SPDX-License-Identifier: MIT

package log

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware emits one structured access log line per request. It runs after
// the request ID middleware so the line carries the correlation ID.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				logger := WithComponentFromContext(r.Context(), "http")
				evt := logger.Info()
				if status >= http.StatusInternalServerError {
					evt = logger.Warn()
				}
				evt.
					Str(FieldEvent, "request.handled").
					Str("method", r.Method).
					Str(FieldPath, r.URL.Path).
					Int(FieldStatus, status).
					Int(FieldBytes, ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("remote_addr", r.RemoteAddr).
					Msg("request handled")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

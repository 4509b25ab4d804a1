package httpx

import (
	"net/http"

	"go.uber.org/zap"
)

func RecoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrap(w)
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("panic recovered",
						RequestIDField(r.Context()),
						zap.Any("error", err),
						zap.Stack("stack"),
					)
					if !rw.wroteHeader() {
						JSONError(rw, r, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "an internal error occurred")
					}
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

package httpx

import (
	"context"
	"net/http"

	"librarygql/internal/auth"

	"go.uber.org/zap"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// UserIDFrom retrieves the caller's id from the request context.
func UserIDFrom(r *http.Request) string {
	if u := auth.UserFrom(r.Context()); u != nil {
		return u.ID
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID retrieves the request id from ctx.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// RequestIDFrom retrieves the request id from the request context.
func RequestIDFrom(r *http.Request) string {
	return RequestID(r.Context())
}

// RequestIDField is the request_id log field for ctx, or zap.Skip when the
// context carries none.
func RequestIDField(ctx context.Context) zap.Field {
	if id := RequestID(ctx); id != "" {
		return zap.String("request_id", id)
	}
	return zap.Skip()
}

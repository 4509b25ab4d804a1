package httpx

import (
	"context"
	"errors"
	"net/http"

	"librarygql/internal/apperr"
	"librarygql/internal/auth"
	"librarygql/internal/entity"

	"go.uber.org/zap"
)

// CurrentUserResolver turns an Authorization header into the caller.
type CurrentUserResolver interface {
	ResolveCurrentUser(ctx context.Context, header string) (*entity.User, error)
}

// AuthMiddleware attaches the caller to the request context. Requests without
// a bearer credential continue anonymously; an invalid credential is
// rejected with 401 before reaching the handler.
func AuthMiddleware(resolver CurrentUserResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := resolver.ResolveCurrentUser(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				var authErr *apperr.AuthenticationError
				if errors.As(err, &authErr) {
					JSONError(w, r, http.StatusUnauthorized, apperr.CodeUnauthenticated, authErr.Message)
					return
				}
				logger.Error("resolve current user", RequestIDField(r.Context()), zap.Error(err))
				JSONError(w, r, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "an internal error occurred")
				return
			}
			if u == nil {
				next.ServeHTTP(w, r)
				return
			}
			if rw, ok := w.(*responseWriter); ok {
				rw.userID = u.ID
			}
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), u)))
		})
	}
}

package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"librarygql/internal/apperr"
	"librarygql/internal/auth"
	"librarygql/internal/entity"
	"librarygql/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveCurrentUser(ctx context.Context, header string) (*entity.User, error) {
	args := m.Called(ctx, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func captureUser(seen **entity.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = auth.UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	alice := &entity.User{ID: "u1", Username: "alice"}

	t.Run("anonymous", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("ResolveCurrentUser", mock.Anything, "").Return(nil, nil)

		var seen *entity.User
		w := httptest.NewRecorder()
		AuthMiddleware(resolver, zap.NewNop())(captureUser(&seen)).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, seen)
		resolver.AssertExpectations(t)
	})

	t.Run("valid bearer", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("ResolveCurrentUser", mock.Anything, "Bearer good").Return(alice, nil)

		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("Authorization", "Bearer good")
		var seen *entity.User
		w := httptest.NewRecorder()
		AuthMiddleware(resolver, zap.NewNop())(captureUser(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, alice, seen)
	})

	t.Run("invalid bearer", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("ResolveCurrentUser", mock.Anything, "Bearer bad").Return(nil, apperr.InvalidToken(errors.New("signature is invalid")))

		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("Authorization", "Bearer bad")
		var seen *entity.User
		w := httptest.NewRecorder()
		AuthMiddleware(resolver, zap.NewNop())(captureUser(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "invalid token", body.Errors[0].Message)
		assert.Equal(t, apperr.CodeUnauthenticated, body.Errors[0].Extensions["code"])
	})

	t.Run("store failure", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("ResolveCurrentUser", mock.Anything, "Bearer good").Return(nil, errors.New("db down"))

		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("Authorization", "Bearer good")
		var seen *entity.User
		w := httptest.NewRecorder()
		AuthMiddleware(resolver, zap.NewNop())(captureUser(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAccessLogMiddleware_RecordsUser(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	resolver := new(mockResolver)
	resolver.On("ResolveCurrentUser", mock.Anything, "Bearer good").Return(&entity.User{ID: "u1"}, nil)

	handler := Chain(okHandler(),
		RequestIDMiddleware,
		AccessLogMiddleware(zap.New(core)),
		AuthMiddleware(resolver, zap.NewNop()),
	)
	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("access").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/graphql", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	handler := MetricsMiddleware(m, "/graphql")(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/graphql", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/random/path", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/graphql", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "other", "200")))
}

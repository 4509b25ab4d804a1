package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"librarygql/internal/auth"
	"librarygql/internal/entity"

	"github.com/golang-jwt/jwt/v5"
)

// TestUser is a stored-looking user for token tests
var TestUser = entity.User{
	ID:            "test-user-id-123",
	Username:      "testuser",
	FavoriteGenre: "refactoring",
	PasswordHash:  "hashedpassword",
}

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(secret string, u entity.User) string {
	token, _ := auth.GenerateToken(secret, u.Username, u.ID, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(secret string, u entity.User) string {
	c := auth.Claims{
		Username: u.Username,
		UserID:   u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	token, _ := t.SignedString([]byte(secret))
	return token
}

// NewGraphQLRequest builds a POST carrying one GraphQL document
func NewGraphQLRequest(path, query string, variables map[string]any) *http.Request {
	body, _ := json.Marshal(map[string]any{"query": query, "variables": variables})
	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// NewGraphQLRequestWithAuth adds a bearer token to NewGraphQLRequest
func NewGraphQLRequestWithAuth(path, query string, variables map[string]any, token string) *http.Request {
	r := NewGraphQLRequest(path, query, variables)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// GraphQLResponse is a decoded response envelope
type GraphQLResponse struct {
	Code   int
	Header http.Header
	Data   map[string]any
	Errors []map[string]any
}

// RecordGraphQLResponse decodes the recorded response
func RecordGraphQLResponse(w *httptest.ResponseRecorder) GraphQLResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var body struct {
		Data   map[string]any   `json:"data"`
		Errors []map[string]any `json:"errors"`
	}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &body)
	}

	return GraphQLResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Data:   body.Data,
		Errors: body.Errors,
	}
}

// ErrorCode returns extensions.code of the i-th error, or "".
func (r GraphQLResponse) ErrorCode(i int) string {
	if i >= len(r.Errors) {
		return ""
	}
	ext, _ := r.Errors[i]["extensions"].(map[string]any)
	code, _ := ext["code"].(string)
	return code
}

// AssertResponseCode checks if the response code matches expected
func AssertResponseCode(t interface {
	Errorf(format string, args ...any)
}, got, want int) {
	if got != want {
		t.Errorf("got status code %d, want %d", got, want)
	}
}

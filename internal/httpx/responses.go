package httpx

import (
	"encoding/json"
	"net/http"
)

// GraphQLError mirrors an entry of a GraphQL response "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type ErrorResponse struct {
	Errors []GraphQLError `json:"errors"`
}

// JSONError writes a GraphQL-shaped error body so clients can handle
// transport failures the same way as execution errors.
func JSONError(w http.ResponseWriter, r *http.Request, statusCode int, code string, message string) {
	ext := map[string]any{"code": code}
	if id := RequestIDFrom(r); id != "" {
		ext["requestId"] = id
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Errors: []GraphQLError{{Message: message, Extensions: ext}},
	})
}

// Package apperr holds the errors that cross the GraphQL boundary. Each error
// type carries an extension code so clients can tell bad input apart from a
// missing or invalid identity.
package apperr

import (
	"errors"
)

const (
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	msgNotAuthenticated = "not authenticated"
	msgWrongCredentials = "wrong credentials"
)

// ValidationError reports malformed or conflicting mutation input.
type ValidationError struct {
	Message     string
	InvalidArgs map[string]any
	Err         error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

// Extensions is picked up by the GraphQL executor and copied into the
// response error entry.
func (e *ValidationError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": CodeBadUserInput}
	if len(e.InvalidArgs) > 0 {
		ext["invalidArgs"] = e.InvalidArgs
	}
	return ext
}

// AuthenticationError reports a missing or invalid caller identity.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string { return e.Message }

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeUnauthenticated}
}

// Invalid wraps cause as a ValidationError, keeping its message.
func Invalid(cause error, args map[string]any) *ValidationError {
	return &ValidationError{Message: cause.Error(), InvalidArgs: args, Err: cause}
}

// WrongCredentials is returned by login for an unknown user or a bad password.
func WrongCredentials() *ValidationError {
	return &ValidationError{Message: msgWrongCredentials}
}

// NotAuthenticated is returned when a mutation needs a caller and has none.
func NotAuthenticated() *AuthenticationError {
	return &AuthenticationError{Message: msgNotAuthenticated}
}

// InvalidToken wraps a token verification failure.
func InvalidToken(cause error) *AuthenticationError {
	return &AuthenticationError{Message: "invalid token", Err: cause}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsAuthentication(err error) bool {
	var a *AuthenticationError
	return errors.As(err, &a)
}

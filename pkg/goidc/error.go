package goidc

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned by storage implementations when an entity doesn't
// exist. Access token managers must also return it for expired tokens.
var ErrNotFound = errors.New("entity not found")

type ErrorCode string

const (
	ErrorCodeInvalidClient  ErrorCode = "invalid_client"
	ErrorCodeInvalidRequest ErrorCode = "invalid_request"
	ErrorCodeInvalidToken   ErrorCode = "invalid_token"
	ErrorCodeInternalError  ErrorCode = "internal_error"
)

func (c ErrorCode) StatusCode() int {
	switch c {
	case ErrorCodeInvalidClient, ErrorCodeInvalidToken:
		return http.StatusUnauthorized
	case ErrorCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

type Error struct {
	Code        ErrorCode `json:"error"`
	Description string    `json:"error_description,omitempty"`
}

func NewError(code ErrorCode, desc string) Error {
	return Error{
		Code:        code,
		Description: desc,
	}
}

func (err Error) Error() string {
	return fmt.Sprintf("%s %s", err.Code, err.Description)
}

func (err Error) StatusCode() int {
	return err.Code.StatusCode()
}

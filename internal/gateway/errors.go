package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"docportal/internal/validate"
)

var (
	// ErrNetwork is returned when no response was received.
	ErrNetwork = errors.New("network failure")
	// ErrUnauthorized matches 401 and 403 responses. It is never retried.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrServer matches every *ServerError.
	ErrServer = errors.New("server error")
	// ErrValidation matches client-side validation failures; the request was not sent.
	ErrValidation = validate.ErrInvalid
)

// ServerError is a non-2xx response carrying the server's message.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
	// Fields holds per-field messages of a server-side validation failure.
	Fields map[string]string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is match the taxonomy sentinels by status.
func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrServer:
		return true
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

type networkError struct {
	err error
}

func (e *networkError) Error() string { return "network failure: " + e.err.Error() }
func (e *networkError) Unwrap() error { return e.err }
func (e *networkError) Is(target error) bool {
	return target == ErrNetwork
}

// Message renders any gateway error as a user-visible string.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *ServerError
	var ve *validate.Error
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrNetwork):
		return "could not reach the server"
	case errors.As(err, &se):
		if se.Message == "" {
			switch se.StatusCode {
			case http.StatusUnauthorized:
				return "session expired or invalid, please log in again"
			case http.StatusForbidden:
				return "you are not allowed to perform this action"
			}
		}
		return se.Error()
	}
	return err.Error()
}

package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned by the stub backend for every action.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrNotFound is returned when a single-row read or update matched nothing.
	ErrNotFound = errors.New("row not found")

	// ErrConflict is returned when an insert violates a unique key.
	ErrConflict = errors.New("row already exists")

	// ErrInvalidCredentials is returned by password sign-in on a bad login.
	ErrInvalidCredentials = errors.New("invalid login credentials")
)

// Error is a failure reported by the remote service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Unwrap maps well-known statuses onto the package sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound, http.StatusNotAcceptable:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	if e.Code == "invalid_grant" {
		return ErrInvalidCredentials
	}
	return nil
}

// Message returns the user-facing text of err, without status decoration.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

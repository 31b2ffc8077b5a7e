package client

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned for 403 responses. The session stays intact.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrCannotConnect wraps transport failures reaching the API.
	ErrCannotConnect = errors.New("cannot connect to server")
	// ErrSessionExpired is returned when a 401 could not be recovered by a
	// token refresh. The session has been logged out.
	ErrSessionExpired = errors.New("session expired, please log in again")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// APIError is a non-success response carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

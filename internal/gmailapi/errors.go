package gmailapi

import (
	"errors"
	"fmt"
)

// ErrAuthExhausted is returned when a request still gets 401 after the one
// allowed token refresh. There is never a third attempt; the caller decides
// whether to keep processing other messages.
var ErrAuthExhausted = errors.New("gmailapi: authorization failed after token refresh")

// APIError is a non-auth HTTP failure from the Gmail API. These are never
// retried.
type APIError struct {
	Status     int
	StatusText string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gmailapi: request failed with status %d %s", e.Status, e.StatusText)
}

// TransportError is a network-level failure where no response arrived. These
// are never retried; retries are reserved for the authorization path.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gmailapi: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

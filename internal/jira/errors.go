package jira

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the normalized class of a tracker failure.
type Kind int

const (
	KindOther Kind = iota
	KindUnauthorized
	KindNotFound
	KindBadRequest
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	default:
		return "other"
	}
}

// ErrMissingIssueKey is returned before any request when the issue key is empty.
var ErrMissingIssueKey = errors.New("missing issue key")

// StatusError carries the HTTP status of a failed call.
// Code is 0 when the request never produced a response.
type StatusError struct {
	Code int
	Body string
	Err  error
}

func (e *StatusError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("request failed: %v", e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("upstream %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("upstream %d", e.Code)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// KindOf normalizes err into a Kind.
func KindOf(err error) Kind {
	switch StatusOf(err) {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindOther
	}
}

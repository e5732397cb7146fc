package actions

import (
	"errors"
	"net/http"

	"github.com/gi8lino/jiraactions/internal/gateway"
	"github.com/gi8lino/jiraactions/internal/jira"
)

// ErrorKind is what a failed step is shown to the user as.
type ErrorKind string

const (
	KindGeneric       ErrorKind = "generic"
	KindNetwork       ErrorKind = "network"
	KindUnauthorized  ErrorKind = "unauthorized"
	KindForbidden     ErrorKind = "forbidden"
	KindNotFound      ErrorKind = "not_found"
	KindValidation    ErrorKind = "validation"
	KindMisconfigured ErrorKind = "misconfigured"
	KindUnexpected    ErrorKind = "unexpected"
)

// template returns the error fragment rendered for k.
func (k ErrorKind) template() string { return "error_" + string(k) }

// terminal reports whether the dialog stays read-only after k.
func (k ErrorKind) terminal() bool {
	switch k {
	case KindNetwork, KindForbidden, KindValidation:
		return false
	default:
		return true
	}
}

// authErrorKind classifies an authorization failure.
func authErrorKind(err error) ErrorKind {
	switch {
	case errors.Is(err, gateway.ErrMisconfigured):
		return KindMisconfigured
	case jira.KindOf(err) == jira.KindUnauthorized:
		return KindUnauthorized
	default:
		return KindUnexpected
	}
}

// submitErrorKind classifies a failed tracker call.
func submitErrorKind(err error) ErrorKind {
	switch jira.KindOf(err) {
	case jira.KindUnauthorized:
		return KindForbidden
	case jira.KindNotFound:
		return KindNotFound
	default:
		return KindNetwork
	}
}

// errNoMatch is returned when the selected user is not assignable; it is treated as a 401.
var errNoMatch = &jira.StatusError{Code: http.StatusUnauthorized, Body: "no assignable user matches the selection"}

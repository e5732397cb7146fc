package actions

import (
	"context"
	"time"

	"github.com/gi8lino/jiraactions/internal/gateway"
)

// Phase names the dialog state of a service.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAuthorizing
	PhaseRendered
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAuthorizing:
		return "authorizing"
	case PhaseRendered:
		return "rendered"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// state is one phase of the dialog state machine. Every phase but idle
// belongs to a flow, started by an open.
type state interface {
	phase() Phase
	flow() string
}

type idle struct{}

type authorizing struct {
	id     string
	cancel context.CancelFunc
}

// rendered is the editable dialog. A zero session forces re-authorization on submit.
type rendered struct {
	id      string
	session gateway.Session
	issue   IssueContext
}

type submitting struct {
	id      string
	session gateway.Session
	issue   IssueContext
	cancel  context.CancelFunc
}

type succeeded struct {
	id    string
	timer *time.Timer
}

type failed struct {
	id   string
	kind ErrorKind
}

func (idle) phase() Phase { return PhaseIdle }
func (authorizing) phase() Phase { return PhaseAuthorizing }
func (rendered) phase() Phase { return PhaseRendered }
func (submitting) phase() Phase { return PhaseSubmitting }
func (succeeded) phase() Phase { return PhaseSucceeded }
func (failed) phase() Phase { return PhaseFailed }

func (idle) flow() string { return "" }
func (s authorizing) flow() string { return s.id }
func (s rendered) flow() string { return s.id }
func (s submitting) flow() string { return s.id }
func (s succeeded) flow() string { return s.id }
func (s failed) flow() string { return s.id }

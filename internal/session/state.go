// Package session owns the crawl state machine: one session at a time,
// from start to a terminal state.
package session

import (
	"fmt"

	"github.com/jonesrussell/crawldesk/internal/i18n"
)

// State is the current phase of the session.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateConnecting
	StateStreaming
	StateCancelling
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCancelling:
		return "cancelling"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether a new session may start from this state.
func (s State) Terminal() bool {
	switch s {
	case StateIdle, StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// cancellable reports whether Cancel applies in this state.
func (s State) cancellable() bool {
	switch s {
	case StateValidating, StateConnecting, StateStreaming:
		return true
	default:
		return false
	}
}

// FailureKind classifies why a session failed.
type FailureKind string

const (
	FailureValidation FailureKind = "validation"
	FailureConnection FailureKind = "connection"
	FailureProtocol   FailureKind = "protocol"
	FailureBackend    FailureKind = "backend"
	FailureDropped    FailureKind = "dropped"
)

// Failure describes a failed session outcome.
type Failure struct {
	Kind FailureKind
	// Code is the backend error code for FailureBackend.
	Code string
	// Detail is free-form diagnostic text, not shown to users.
	Detail string
}

// Localize resolves the user-facing message for this failure. Backend
// codes without a catalog entry fall back to a generic message carrying
// the code.
func (f Failure) Localize(tr *i18n.Translator) string {
	switch f.Kind {
	case FailureValidation:
		return tr.T(f.Code, nil)
	case FailureConnection:
		return tr.T("errors.connection", nil)
	case FailureProtocol:
		return tr.T("errors.protocol", nil)
	case FailureDropped:
		return tr.T("errors.dropped", nil)
	case FailureBackend:
		key := "errors.backend." + f.Code
		if msg := tr.T(key, nil); msg != key {
			return msg
		}
		return tr.T("errors.backend.fallback", i18n.Vars{"code": f.Code})
	default:
		return tr.T("errors.general", nil)
	}
}

// Error implements error so validation failures can be returned from
// Start directly.
func (f Failure) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("session %s failure: %s", f.Kind, f.Code)
	}
	return fmt.Sprintf("session %s failure", f.Kind)
}

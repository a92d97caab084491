// Package audit provides audit logging for device parameter mutations:
// writes and method invocations accepted by internal/ipc/frontend.Stub,
// recorded alongside the resolved user identity and the outcome.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Operation categorizes the kind of mutation an Event records.
type Operation string

const (
	OperationWrite  Operation = "parameter.write"
	OperationInvoke Operation = "parameter.invoke"
)

// Event represents one auditable parameter mutation.
type Event struct {
	ID            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	UID           uint32        `json:"uid"`
	User          string        `json:"user,omitempty"`
	Device        string        `json:"device"`
	ParameterPath string        `json:"parameter_path"`
	Operation     Operation     `json:"operation"`
	Success       bool          `json:"success"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events.
type Filter struct {
	Device        string
	User          string
	ParameterPath string
	Operation     Operation
	StartTime     time.Time
	EndTime       time.Time
	SuccessOnly   bool
	FailureOnly   bool
	Limit         int
	Offset        int
}

// NewEvent creates a new audit event for the given uid/device/path/operation.
func NewEvent(uid uint32, device, parameterPath string, op Operation) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Timestamp:     time.Now(),
		UID:           uid,
		Device:        device,
		ParameterPath: parameterPath,
		Operation:     op,
	}
}

// WithUser sets the resolved username.
func (e *Event) WithUser(user string) *Event {
	e.User = user
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

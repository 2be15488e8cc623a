package submission

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSubmissionInProgress rejects a Submit while another is in flight.
	ErrSubmissionInProgress = errors.New("a submission is already in progress")

	// ErrAlreadyCompleted rejects a Submit after the session completed.
	ErrAlreadyCompleted = errors.New("session already submitted")
)

// AssemblyError reports a failure while building the submission payload.
// It is fatal to the attempt: nothing is handed off and the orchestrator
// returns to Idle so the respondent can retry.
type AssemblyError struct {
	Message   string
	Err       error
	Timestamp time.Time
}

// NewAssemblyError creates an AssemblyError stamped with the current time.
func NewAssemblyError(msg string, err error) *AssemblyError {
	return &AssemblyError{Message: msg, Err: err, Timestamp: timeNow()}
}

func (e *AssemblyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assemble submission: %s: %v", e.Message, e.Err)
	}
	return "assemble submission: " + e.Message
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// DeliveryError describes a report step that did not succeed. It is carried
// in Result for reporting only; the submission still completes.
type DeliveryError struct {
	Rejected bool  // collaborator returned false without an error
	Err      error // collaborator error, if any
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report delivery failed: %v", e.Err)
	}
	return "report delivery failed: collaborator reported failure"
}

func (e *DeliveryError) Unwrap() error { return e.Err }

package qualification

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrFlowTerminal           = errors.New("qualification flow already finished")
	ErrRequestNotFound        = errors.New("blood request not found")
	ErrRecordNotFound         = errors.New("qualification record not found")
	ErrRecordCompleted        = errors.New("qualification record already completed")
	ErrRequestAlreadyAccepted = errors.New("blood request already accepted by another donor")
	ErrNoVisibleQuestions     = errors.New("no visible questions")
)

// ValidationError rejects a submitted answer. The flow does not change.
type ValidationError struct {
	QuestionID string
	Message    string
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.QuestionID, e.Message)
}

// Persistence operations.
const (
	OpCreateRecord  = "create_record"
	OpSaveOutcome   = "save_outcome"
	OpUpdateRecord  = "update_record"
	OpAcceptRequest = "accept_request"
)

// PersistenceError reports a terminal side effect that failed after retries.
// The outcome in the flow stands; RetryPersistence re-issues the write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable reports whether RetryPersistence can still succeed.
func (e *PersistenceError) Retryable() bool {
	return !isPermanent(e.Err)
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrRequestAlreadyAccepted) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrRecordCompleted) ||
		errors.Is(err, context.Canceled)
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrWriteFailure      = errors.New("write failure")
	ErrPersistFailure    = errors.New("persist failure")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("target already exists")
	ErrInvalidInput      = errors.New("invalid input")
)

// StageError reports which update stage failed. It unwraps to both the
// sentinel in Kind (when set) and the underlying cause.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e.Kind == nil {
		return fmt.Sprintf("update %s: %v", e.Stage, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("update %s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("update %s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func stageErr(stage string, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

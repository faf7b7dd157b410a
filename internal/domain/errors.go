package domain

import "errors"

var (
	// ErrDivisionByZero is returned when mapping against a zero-length timeline
	// or a zero-width display area.
	ErrDivisionByZero = errors.New("division by zero: empty timeline")

	ErrNotFound      = errors.New("not found")
	ErrInvalidSpan   = errors.New("invalid span")
	ErrGestureIdle   = errors.New("no gesture in progress")
	ErrGestureActive = errors.New("gesture already in progress")
	ErrQueueFull     = errors.New("edit queue full")
	ErrUnsupported   = errors.New("unsupported media")
)

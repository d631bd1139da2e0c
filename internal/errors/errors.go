package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrInputParse is returned when a build record cannot be parsed
	ErrInputParse = errors.New("input parse error")

	// ErrIO is returned when a file cannot be opened, read or written
	ErrIO = errors.New("i/o error")

	// ErrCodec is returned when a persisted index blob is unreadable or schema-incompatible
	ErrCodec = errors.New("codec error")

	// ErrDivisionByZero is returned when a build sees no documents
	ErrDivisionByZero = errors.New("division by zero")

	// ErrIndexNotLoaded is returned when the serving state holds no index
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// InputParseError identifies the build record that failed to parse.
// Line is 1-based.
type InputParseError struct {
	Line int
	Err  error
}

func (e *InputParseError) Error() string {
	return fmt.Sprintf("failed to parse record on line %d: %v", e.Line, e.Err)
}

func (e *InputParseError) Is(target error) bool {
	return target == ErrInputParse
}

func (e *InputParseError) Unwrap() error {
	return e.Err
}

// NewInputParseError creates a new InputParseError
func NewInputParseError(line int, err error) *InputParseError {
	return &InputParseError{Line: line, Err: err}
}

// IOError represents a file operation failure with context
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

// CodecError represents a persisted index that could not be decoded
type CodecError struct {
	Reason string
	Err    error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("index codec: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("index codec: %s", e.Reason)
}

func (e *CodecError) Is(target error) bool {
	return target == ErrCodec
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// NewCodecError creates a new CodecError. err may be nil.
func NewCodecError(reason string, err error) *CodecError {
	return &CodecError{Reason: reason, Err: err}
}

// DivisionByZeroError is returned when an average is taken over an empty set
type DivisionByZeroError struct {
	What string
}

func (e *DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero while computing %s", e.What)
}

func (e *DivisionByZeroError) Is(target error) bool {
	return target == ErrDivisionByZero
}

// NewDivisionByZeroError creates a new DivisionByZeroError
func NewDivisionByZeroError(what string) *DivisionByZeroError {
	return &DivisionByZeroError{What: what}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

package errors

import (
	"errors"
	"io"
	"os"
	"testing"
)

func TestInputParseError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := NewInputParseError(7, cause)

	expectedMsg := "failed to parse record on line 7: unexpected end of JSON input"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrInputParse) {
		t.Error("Expected error to match ErrInputParse sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("Expected error to unwrap to its cause")
	}
	if errors.Is(err, ErrCodec) {
		t.Error("Error should not match ErrCodec")
	}
}

func TestIOError(t *testing.T) {
	err := NewIOError("open", "/tmp/missing.blob", os.ErrNotExist)

	expectedMsg := "failed to open /tmp/missing.blob: file does not exist"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrIO) {
		t.Error("Expected error to match ErrIO sentinel")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected error to unwrap to os.ErrNotExist")
	}
}

func TestCodecError(t *testing.T) {
	err := NewCodecError("unsupported version 9", nil)
	expectedMsg := "index codec: unsupported version 9"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	wrapped := NewCodecError("decode envelope", io.ErrUnexpectedEOF)
	expectedMsg = "index codec: decode envelope: unexpected EOF"
	if wrapped.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, wrapped.Error())
	}
	if !errors.Is(wrapped, ErrCodec) || !errors.Is(wrapped, io.ErrUnexpectedEOF) {
		t.Error("Expected wrapped codec error to match both ErrCodec and its cause")
	}
}

func TestDivisionByZeroError(t *testing.T) {
	err := NewDivisionByZeroError("average document length")
	expectedMsg := "division by zero while computing average document length"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrDivisionByZero) {
		t.Error("Expected error to match ErrDivisionByZero sentinel")
	}
}

func TestJobNotFoundError(t *testing.T) {
	err := NewJobNotFoundError("job-123")
	expectedMsg := "job with ID 'job-123' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrJobNotFound) {
		t.Error("Expected error to match ErrJobNotFound sentinel")
	}
}

func TestValidationError(t *testing.T) {
	withField := NewValidationError("max_length", "must not be negative")
	expectedMsg := "validation error for field 'max_length': must not be negative"
	if withField.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, withField.Error())
	}

	withoutField := NewValidationError("", "empty request")
	expectedMsg = "validation error: empty request"
	if withoutField.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, withoutField.Error())
	}
	if !errors.Is(withField, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}
}

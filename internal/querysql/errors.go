package querysql

import (
	"errors"
	"fmt"
)

// CompileError is returned when a query cannot be compiled. Every failure is
// fatal to the call and no partial SQL is produced.
type CompileError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Name is the offending entity, operator or table, when there is one.
	Name string

	// Details contains additional context (clause, missing tables, field errors).
	Details map[string]string
}

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnknownEntity indicates an entity absent from the semantic layer.
	ErrCodeUnknownEntity ErrorCode = "UNKNOWN_ENTITY"

	// ErrCodeUnsupportedOperator indicates an operator with no SQL translation.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeDisconnectedJoinGraph indicates required tables that no chain of
	// foreign keys connects.
	ErrCodeDisconnectedJoinGraph ErrorCode = "DISCONNECTED_JOIN_GRAPH"

	// ErrCodeMalformedInput indicates a query missing required structure.
	ErrCodeMalformedInput ErrorCode = "MALFORMED_INPUT"
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func unknownEntity(name string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnknownEntity,
		Message: "entity is not defined in the semantic layer",
		Name:    name,
	}
}

func unsupportedOperator(op string) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedOperator,
		Message: "operator has no SQL translation",
		Name:    op,
	}
}

func malformed(format string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeMalformedInput,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of the CompileError in err's chain, or "" if there
// is none.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsUnknownEntity returns true if the error is an unknown entity error.
// Uses errors.As to handle wrapped errors.
func IsUnknownEntity(err error) bool {
	return CodeOf(err) == ErrCodeUnknownEntity
}

// IsUnsupportedOperator returns true if the error is an unsupported operator error.
func IsUnsupportedOperator(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedOperator
}

// IsDisconnectedJoinGraph returns true if the error is a disconnected join graph error.
func IsDisconnectedJoinGraph(err error) bool {
	return CodeOf(err) == ErrCodeDisconnectedJoinGraph
}

// IsMalformedInput returns true if the error is a malformed input error.
func IsMalformedInput(err error) bool {
	return CodeOf(err) == ErrCodeMalformedInput
}

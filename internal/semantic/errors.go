package semantic

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Layer loading error codes (E300-E399).
const (
	ErrCodeNotFound          = "E301" // layer file not found
	ErrCodeUnsupportedFormat = "E302" // unknown file extension / format
	ErrCodeParseFailed       = "E303" // syntax error or undecodable document
	ErrCodeSchemaViolation   = "E304" // document does not satisfy #SemanticLayer
	ErrCodeInvalidLayer      = "E305" // semantic rule violated (mixed entity forms, duplicates, ...)
)

// LoadError reports why a semantic layer could not be built.
type LoadError struct {
	Code    string
	Message string
	Path    string    // source file, empty for in-memory input
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	switch {
	case e.Pos.IsValid():
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// fromCUEError converts the first CUE error into a LoadError with position info.
func fromCUEError(code string, err error) *LoadError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

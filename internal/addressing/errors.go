package addressing

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress is the sentinel every parse failure unwraps to.
var ErrInvalidAddress = errors.New("invalid address")

// ErrorCode is the machine-readable reason attached to an AddressingError.
type ErrorCode string

const (
	CodeEmptyAddress        ErrorCode = "EMPTY_ADDRESS"
	CodeEmptySlug           ErrorCode = "EMPTY_SLUG"
	CodeMissingContext      ErrorCode = "MISSING_CONTEXT"
	CodeInvalidDocumentPath ErrorCode = "INVALID_DOCUMENT_PATH"
	CodeSlugTooDeep         ErrorCode = "SLUG_TOO_DEEP"
	CodeInvalidSlug         ErrorCode = "INVALID_SLUG"
)

// AddressingError reports a malformed address supplied by a caller. It is
// never a data-quality signal: callers must surface it, not swallow it.
type AddressingError struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

func (e *AddressingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidAddress) match any parse failure.
func (e *AddressingError) Unwrap() error {
	return ErrInvalidAddress
}

func invalidAddress(code ErrorCode, msg string, ctx map[string]any) *AddressingError {
	return &AddressingError{Code: code, Message: msg, Context: ctx}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an
// AddressingError.
func CodeOf(err error) ErrorCode {
	var ae *AddressingError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

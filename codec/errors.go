package codec

import (
	"errors"
	"fmt"
)

// ErrEndOfContents is returned by PeekTag when the enclosing constructed
// value has no more components.
var ErrEndOfContents = errors.New("end of contents")

// ErrorCode classifies decode failures.
type ErrorCode uint8

const (
	ErrTruncated ErrorCode = iota
	ErrTagMismatch
	ErrUnknownAlternative
	ErrUnknownField
	ErrOutOfOrder
	ErrValueRange
	ErrMalformed
)

func (c ErrorCode) String() string {
	switch c {
	case ErrTruncated:
		return "truncated input"
	case ErrTagMismatch:
		return "tag mismatch"
	case ErrUnknownAlternative:
		return "unrecognized alternative"
	case ErrUnknownField:
		return "unknown field"
	case ErrOutOfOrder:
		return "out-of-order component"
	case ErrValueRange:
		return "value outside constraint"
	case ErrMalformed:
		return "malformed input"
	}
	return "decode error"
}

// DecodeError is the typed error every generated decode path returns;
// generated code never fails silently on truncated or mismatched input.
type DecodeError struct {
	Code ErrorCode
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewDecodeError builds a DecodeError with a formatted message.
func NewDecodeError(code ErrorCode, format string, args ...any) *DecodeError {
	return &DecodeError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

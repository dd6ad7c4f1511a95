package encoding

import (
	"errors"
	"fmt"
)

// ErrUnknownEncoding indicates no converter exists for a tag.
var ErrUnknownEncoding = errors.New("unknown encoding")

// ErrorCode classifies converter failures.
type ErrorCode int

const (
	// ErrCodeUnknownEncoding means the tag does not name any encoding.
	ErrCodeUnknownEncoding ErrorCode = iota + 1

	// ErrCodeUnsupported means the tag names an encoding with no implementation.
	ErrCodeUnsupported

	// ErrCodeIllegal means the input holds an illegal byte sequence.
	ErrCodeIllegal

	// ErrCodeTruncated means the input ends in the middle of a character.
	ErrCodeTruncated

	// ErrCodeImprecise means the conversion cannot be reversed exactly.
	ErrCodeImprecise

	// ErrCodeInternal means the converter failed for another reason.
	ErrCodeInternal
)

// Describe returns a human readable description of a converter error code.
func Describe(code ErrorCode) string {
	switch code {
	case ErrCodeUnknownEncoding:
		return "character set not recognized"
	case ErrCodeUnsupported:
		return "no converter available for character set"
	case ErrCodeIllegal:
		return "illegal character sequence"
	case ErrCodeTruncated:
		return "input ends in the middle of a character"
	case ErrCodeImprecise:
		return "conversion is not reversible"
	case ErrCodeInternal:
		return "internal converter error"
	default:
		return fmt.Sprintf("converter error %d", int(code))
	}
}

// ConvError is a converter failure for a specific tag.
type ConvError struct {
	Code ErrorCode
	Tag  string
	Err  error
}

// Error implements the error interface.
func (e *ConvError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Tag, Describe(e.Code), e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Tag, Describe(e.Code))
}

// Unwrap returns the underlying error.
func (e *ConvError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the converter error code from err.
func CodeOf(err error) (ErrorCode, bool) {
	var ce *ConvError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return 0, false
}

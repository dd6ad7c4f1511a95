// Package filestate defines the outcome taxonomy shared by the load and save
// pipelines.
//
// Every read or write attempt ends in exactly one Code. The Code decides how a
// pipeline proceeds: continue silently, ask the user and resume or abort, or
// report the failure and terminate. Result pairs a Code with the error that
// produced it, which is either an operating system errno or a converter error.
package filestate

import (
	"errors"
	"fmt"
	"syscall"
)

// Code identifies the outcome of a load or save attempt.
type Code int

const (
	// Success means the attempt completed.
	Success Code = iota

	// FileExists means the save target already exists and overwriting needs confirmation.
	FileExists

	// ReadOnlyFile means the save target is not writable by its mode bits.
	ReadOnlyFile

	// BackupFailed means the pre-write copy of the target could not be made.
	BackupFailed

	// ErrnoError means a system call failed after the target may have been modified.
	ErrnoError

	// ErrnoErrorFileUntouched means a system call failed before any destructive step.
	ErrnoErrorFileUntouched

	// ConversionOpenError means no converter exists for the requested encoding.
	ConversionOpenError

	// ConversionImprecise means the text does not round-trip through the encoding.
	ConversionImprecise

	// ConversionError means the converter failed mid-stream.
	ConversionError

	// ConversionIllegal means the input holds byte sequences illegal in the encoding.
	ConversionIllegal

	// ConversionTruncated means the input ends in the middle of a character.
	ConversionTruncated

	// BOMFound means the input starts with a byte-order mark and a policy is needed.
	BOMFound

	// ModeResetFailed means the write committed but the mode bits were not restored.
	ModeResetFailed

	// InternalError means the pipeline reached an inconsistent state.
	InternalError

	// RaceOnFile means the target changed identity between two steps of a save.
	RaceOnFile
)

var codeNames = [...]string{
	Success:                 "SUCCESS",
	FileExists:              "FILE_EXISTS",
	ReadOnlyFile:            "READ_ONLY_FILE",
	BackupFailed:            "BACKUP_FAILED",
	ErrnoError:              "ERRNO_ERROR",
	ErrnoErrorFileUntouched: "ERRNO_ERROR_FILE_UNTOUCHED",
	ConversionOpenError:     "CONVERSION_OPEN_ERROR",
	ConversionImprecise:     "CONVERSION_IMPRECISE",
	ConversionError:         "CONVERSION_ERROR",
	ConversionIllegal:       "CONVERSION_ILLEGAL",
	ConversionTruncated:     "CONVERSION_TRUNCATED",
	BOMFound:                "BOM_FOUND",
	ModeResetFailed:         "MODE_RESET_FAILED",
	InternalError:           "INTERNAL_ERROR",
	RaceOnFile:              "RACE_ON_FILE",
}

// String returns the taxonomy name of the code.
func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Codes returns every defined code in declaration order.
func Codes() []Code {
	codes := make([]Code, len(codeNames))
	for i := range codeNames {
		codes[i] = Code(i)
	}
	return codes
}

// Result is the tagged outcome of a load or save attempt.
// The zero value is a successful result.
type Result struct {
	// Code is the taxonomy tag.
	Code Code

	// Err is the cause: a syscall.Errno (possibly wrapped) for the errno
	// codes, or a converter error for the conversion codes.
	Err error
}

// OK returns a successful result.
func OK() Result {
	return Result{}
}

// New returns a result carrying only a code.
func New(code Code) Result {
	return Result{Code: code}
}

// WithErr returns a result carrying a code and its cause.
func WithErr(code Code, err error) Result {
	return Result{Code: code, Err: err}
}

// OK reports whether the result is a success.
func (r Result) OK() bool {
	return r.Code == Success
}

// Is reports whether the result carries the given code.
// Results compare by code only; the payload is ignored.
func (r Result) Is(code Code) bool {
	return r.Code == code
}

// Errno returns the operating system error number carried by the result,
// or 0 if there is none.
func (r Result) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(r.Err, &errno) {
		return errno
	}
	return 0
}

// Cause returns a human readable description of the payload.
func (r Result) Cause() string {
	if r.Err == nil {
		return "unknown error"
	}
	if errno := r.Errno(); errno != 0 {
		return errno.Error()
	}
	return r.Err.Error()
}

func (r Result) String() string {
	if r.Err == nil {
		return r.Code.String()
	}
	return fmt.Sprintf("%s: %v", r.Code, r.Err)
}

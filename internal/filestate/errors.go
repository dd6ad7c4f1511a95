package filestate

import (
	"errors"
	"fmt"
)

// ErrAborted indicates the user declined to continue a pipeline.
var ErrAborted = errors.New("aborted")

// TransactionError is the terminal error of a load or save pipeline.
type TransactionError struct {
	Op     string // "load" or "save"
	Path   string // File path as given by the user
	Result Result // Outcome that ended the pipeline
}

// Error implements the error interface.
func (e *TransactionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Result)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Result)
}

// Unwrap returns the cause carried by the result.
func (e *TransactionError) Unwrap() error {
	return e.Result.Err
}

// NewTransactionError creates a new TransactionError.
func NewTransactionError(op, path string, result Result) *TransactionError {
	return &TransactionError{Op: op, Path: path, Result: result}
}

// CodeOf extracts the result code from err, if err is a TransactionError.
func CodeOf(err error) (Code, bool) {
	var te *TransactionError
	if errors.As(err, &te) {
		return te.Result.Code, true
	}
	return Success, false
}

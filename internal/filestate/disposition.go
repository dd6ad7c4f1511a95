package filestate

import "fmt"

// Disposition is how a pipeline reacts to a result code.
type Disposition int

const (
	// Continue proceeds without involving the user.
	Continue Disposition = iota

	// Confirm suspends the pipeline for a decision, then resumes or aborts.
	Confirm

	// Terminate reports the outcome and ends the pipeline.
	Terminate
)

// String returns the name of the disposition.
func (d Disposition) String() string {
	switch d {
	case Continue:
		return "continue"
	case Confirm:
		return "confirm"
	case Terminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Disposition returns the reaction the code calls for.
// An undefined code is a programming error and panics.
//
// ConversionIllegal asks the user whether to load the damaged text anyway.
// ConversionTruncated terminates even though the load itself succeeds with
// the truncated text, because the user must be told about it.
func (c Code) Disposition() Disposition {
	switch c {
	case Success:
		return Continue
	case FileExists, ReadOnlyFile, BackupFailed, ConversionImprecise, ConversionIllegal, BOMFound:
		return Confirm
	case ErrnoError, ErrnoErrorFileUntouched, ConversionOpenError, ConversionError,
		ConversionTruncated, ModeResetFailed, InternalError, RaceOnFile:
		return Terminate
	default:
		Unreachable(c)
		return Terminate
	}
}

// Unreachable aborts the program because a result code reached a dispatch
// point that does not handle it.
func Unreachable(c Code) {
	panic(fmt.Sprintf("filestate: unhandled result code %s", c))
}

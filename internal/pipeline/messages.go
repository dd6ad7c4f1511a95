package pipeline

import (
	"fmt"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/filestate"
)

// Options offered by the prompts.
var (
	continueAbort = []string{"Continue", "Abort"}
	bomOptions    = []string{"Preserve BOM", "Remove BOM"}
	closeOptions  = []string{"Save", "Don't save", "Cancel"}
)

const (
	optionContinue = 0

	optionPreserveBOM = 0

	optionSave     = 0
	optionDontSave = 1
)

// cause describes the payload of r for the user.
func cause(r filestate.Result) string {
	if code, ok := encoding.CodeOf(r.Err); ok {
		return encoding.Describe(code)
	}
	return r.Cause()
}

// loadMessage returns the text shown for a load outcome that needs the
// user's attention.
func loadMessage(name, enc string, r filestate.Result) string {
	switch r.Code {
	case filestate.ErrnoError, filestate.ErrnoErrorFileUntouched:
		return fmt.Sprintf("Could not load file '%s': %s", name, cause(r))
	case filestate.ConversionOpenError:
		return fmt.Sprintf("Could not find a converter for selected encoding: %s", cause(r))
	case filestate.ConversionError:
		return fmt.Sprintf("Could not load file in encoding %s: %s", enc, cause(r))
	case filestate.ConversionImprecise:
		return fmt.Sprintf("Conversion from encoding %s is irreversible", enc)
	case filestate.ConversionIllegal:
		return fmt.Sprintf("Conversion from encoding %s encountered illegal characters", enc)
	case filestate.ConversionTruncated:
		return "File appears to be truncated"
	case filestate.BOMFound:
		return fmt.Sprintf("File '%s' starts with a byte-order mark", name)
	case filestate.InternalError:
		return fmt.Sprintf("An unknown error occurred while loading '%s'", name)
	default:
		filestate.Unreachable(r.Code)
		return ""
	}
}

// saveMessage returns the text shown for a save outcome that needs the
// user's attention. backup is the path of a backup made during the save,
// or empty.
func saveMessage(name, enc, backup string, r filestate.Result) string {
	switch r.Code {
	case filestate.FileExists:
		return fmt.Sprintf("File '%s' already exists", name)
	case filestate.ReadOnlyFile:
		return fmt.Sprintf("File %s is read-only", name)
	case filestate.BackupFailed:
		return fmt.Sprintf("Could not create a backup file: %s.\n\n"+
			"This could result in data loss if quill is unable to complete writing the file", cause(r))
	case filestate.ErrnoErrorFileUntouched:
		return fmt.Sprintf("Could not save file: %s.\n\n"+
			"The original file has not been touched. "+
			"Save the current buffer to another location to ensure its contents are preserved!", cause(r))
	case filestate.ErrnoError:
		if backup != "" {
			return fmt.Sprintf("Could not save file: %s.\n\n"+
				"The original contents of the file can still be retrieved from %s.  "+
				"Save the current buffer to another location to ensure its contents are preserved!", cause(r), backup)
		}
		return fmt.Sprintf("Could not save file: %s.\n\n"+
			"The original file contents are lost. "+
			"Save the current buffer to some other location to ensure its contents are preserved!", cause(r))
	case filestate.ConversionOpenError:
		return fmt.Sprintf("Could not find a converter for selected encoding: %s", cause(r))
	case filestate.ConversionError:
		return fmt.Sprintf("Could not save file in encoding %s: %s", enc, cause(r))
	case filestate.ConversionImprecise:
		return fmt.Sprintf("Conversion into encoding %s is irreversible\n\n"+
			"The loaded buffer will continue to hold the original text, "+
			"but the on-disk version will differ.", enc)
	case filestate.ModeResetFailed:
		return fmt.Sprintf("The file %s was written successfully, "+
			"but changing back the mode bits on the file failed: %s", name, cause(r))
	case filestate.RaceOnFile:
		return fmt.Sprintf("File '%s' was replaced by a different file while saving. "+
			"The file was not written.", name)
	case filestate.InternalError:
		return "An unknown error occurred during saving. " +
			"The file has not been saved and may be damaged!"
	default:
		filestate.Unreachable(r.Code)
		return ""
	}
}

func closeMessage(file *buffer.FileBuffer) string {
	return fmt.Sprintf("Save changes to '%s'", file.DisplayName())
}

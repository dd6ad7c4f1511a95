// Package pipeline implements the file transactions: load, open recent,
// save as, save, close, exit and the batch load of command-line files.
//
// Each transaction is a process.Process. It suspends on a process.Prompt
// whenever a decision is needed and classifies every outcome with a
// filestate.Code. Nested transactions (a Save inside a Close, a Close inside
// an Exit, a Load per command-line file) are spawned as child processes and
// run to completion before the parent continues.
package pipeline

import (
	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/metrics"
	"github.com/dshills/quill/internal/vfs"
)

// Env is the state shared by all transactions.
type Env struct {
	FS        vfs.FS
	Encodings *encoding.Registry
	Open      *buffer.OpenFiles
	Recent    *buffer.RecentFiles
	Files     config.FilesConfig

	// Metrics is optional.
	Metrics *metrics.Recorder
}

// NewEnv creates an environment on the operating system file system with
// empty registries.
func NewEnv(files config.FilesConfig) *Env {
	return &Env{
		FS:        vfs.NewOSFS(),
		Encodings: encoding.NewRegistry(),
		Open:      buffer.NewOpenFiles(),
		Recent:    buffer.NewRecentFiles(files.MaxRecentFiles),
		Files:     files,
	}
}

// DefaultEncoding returns the configured default encoding, or UTF-8.
func (e *Env) DefaultEncoding() string {
	if e.Files.DefaultEncoding == "" {
		return encoding.UTF8
	}
	return e.Files.DefaultEncoding
}

func (e *Env) record(op string, r filestate.Result) {
	e.Metrics.Result(op, r.Code)
}

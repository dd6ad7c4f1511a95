package pipeline

import (
	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/process"
)

// ExitProcess prepares for shutdown by going through the open buffers in
// order and asking what to do with each one that has unsaved changes.
// Cancelling, or a close that fails, aborts the exit; buffers closed up to
// that point stay closed. Success means the program may terminate.
type ExitProcess struct {
	process.Task
	env   *Env
	index int
}

// NewExit creates an exit transaction.
func NewExit(env *Env) *ExitProcess {
	return &ExitProcess{Task: process.NewTask("exit"), env: env}
}

// Step implements process.Process.
func (p *ExitProcess) Step() bool {
	for p.index < p.env.Open.Len() {
		file := p.env.Open.At(p.index)
		if !file.Modified() {
			p.index++
			continue
		}
		return p.Await(process.Choose(closeMessage(file), closeOptions, func(choice int) {
			switch choice {
			case optionSave:
				p.closeFile(file, true)
			case optionDontSave:
				p.closeFile(file, false)
			default:
				p.Abort()
			}
		}))
	}
	return p.Finish(true)
}

func (p *ExitProcess) closeFile(file *buffer.FileBuffer, save bool) {
	p.Spawn(NewCloseDecided(p.env, file, save), func(c process.Process) {
		if !c.Succeeded() {
			p.Finish(false)
			return
		}
		// A closed buffer left the registry and the next one moved into
		// its slot.
		if p.env.Open.Index(file) == p.index {
			p.index++
		}
	})
}

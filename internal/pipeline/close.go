package pipeline

import (
	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/process"
)

type closeState int

const (
	closeConfirm closeState = iota
	closeSave
	closeClose
)

// CloseProcess closes a buffer, offering to save it first when it has
// unsaved changes. A closed buffer leaves the open files registry and enters
// the recent files registry; releasing it is up to the caller.
type CloseProcess struct {
	process.Task
	env  *Env
	file *buffer.FileBuffer

	state closeState
	save  *SaveAsProcess
}

// NewClose creates a close of file.
func NewClose(env *Env, file *buffer.FileBuffer) *CloseProcess {
	return &CloseProcess{
		Task:  process.NewTask("close"),
		env:   env,
		file:  file,
		state: closeConfirm,
	}
}

// NewCloseDecided creates a close whose save-or-discard decision was
// already made.
func NewCloseDecided(env *Env, file *buffer.FileBuffer, save bool) *CloseProcess {
	p := NewClose(env, file)
	if save {
		p.state = closeSave
	} else {
		p.state = closeClose
	}
	return p
}

// Buffer returns the buffer being closed.
func (p *CloseProcess) Buffer() *buffer.FileBuffer { return p.file }

// Result returns the outcome of the save, if one was made.
func (p *CloseProcess) Result() filestate.Result {
	if p.save == nil {
		return filestate.OK()
	}
	return p.save.Result()
}

// Step implements process.Process.
func (p *CloseProcess) Step() bool {
	switch p.state {
	case closeConfirm:
		if !p.file.Modified() {
			p.state = closeClose
			return p.close()
		}
		return p.Await(process.Choose(closeMessage(p.file), closeOptions, func(choice int) {
			switch choice {
			case optionSave:
				p.state = closeSave
			case optionDontSave:
				p.state = closeClose
			default:
				p.Abort()
			}
		}))
	case closeSave:
		return p.Spawn(NewSave(p.env, p.file), func(c process.Process) {
			p.save = c.(*SaveAsProcess)
			if !p.save.Succeeded() {
				p.Finish(false)
				return
			}
			p.state = closeClose
		})
	case closeClose:
		return p.close()
	}
	p.Log().Error("invalid close state %d", p.state)
	return p.Finish(false)
}

func (p *CloseProcess) close() bool {
	p.env.Recent.Push(p.file)
	p.env.Open.Remove(p.file)
	p.Log().Info("closed %s", p.file.DisplayName())
	return p.Finish(true)
}

package pipeline

import (
	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/process"
)

// OpenRecentProcess reopens a recently closed file with the encoding it was
// closed with. The entry leaves the recent files list once the file is open
// again.
type OpenRecentProcess struct {
	process.Task
	env *Env

	entry *buffer.RecentFile
	load  *LoadProcess
}

// NewOpenRecent creates an open-recent transaction.
func NewOpenRecent(env *Env) *OpenRecentProcess {
	return &OpenRecentProcess{Task: process.NewTask("open-recent"), env: env}
}

// Buffer returns the reopened buffer, or nil.
func (p *OpenRecentProcess) Buffer() *buffer.FileBuffer {
	if p.load == nil {
		return nil
	}
	return p.load.Buffer()
}

// Path returns the chosen file name, or "".
func (p *OpenRecentProcess) Path() string {
	if p.entry == nil {
		return ""
	}
	return p.entry.Name
}

// Result returns the outcome of the nested load.
func (p *OpenRecentProcess) Result() filestate.Result {
	if p.load == nil {
		return filestate.OK()
	}
	return p.load.Result()
}

// Step implements process.Process.
func (p *OpenRecentProcess) Step() bool {
	if p.entry == nil {
		entries := p.env.Recent.All()
		if limit := p.env.Files.MaxRecentFiles; limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		if len(entries) == 0 {
			p.Report("No recently closed files")
			return p.Finish(false)
		}

		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		return p.Await(process.Choose("Open recent file", names, func(choice int) {
			p.entry = &entries[choice]
		}))
	}

	entry := *p.entry
	return p.Spawn(NewLoadFile(p.env, entry.Name, entry.Encoding, false), func(c process.Process) {
		p.load = c.(*LoadProcess)
		if p.load.Succeeded() {
			p.env.Recent.Remove(entry.Name)
		}
		p.Finish(p.load.Succeeded())
	})
}

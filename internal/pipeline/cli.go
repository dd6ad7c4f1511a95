package pipeline

import (
	"strconv"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/process"
)

// Unset marks a line or column that was not given.
const Unset = -1

// Position is a command-line path with its optional :line:column suffix
// removed.
type Position struct {
	Path   string
	Line   int
	Column int
}

// ParsePosition splits a trailing ":line" or ":line:column" off arg. A
// single trailing colon after the numbers is allowed. Anything else leaves
// the path unchanged and the position Unset.
func ParsePosition(arg string) Position {
	pos := Position{Path: arg, Line: Unset, Column: Unset}
	if len(arg) < 3 {
		return pos
	}

	s := arg
	if s[len(s)-1] == ':' {
		s = s[:len(s)-1]
	}
	rest, n, ok := cutNumber(s)
	if !ok {
		return pos
	}
	pos.Path, pos.Line = rest, n

	if rest, m, ok := cutNumber(rest); ok {
		pos.Path, pos.Line, pos.Column = rest, m, n
	}
	return pos
}

// cutNumber splits s at a ":<digits>" suffix. The part before the colon
// must not be empty.
func cutNumber(s string) (string, int, bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) || i < 2 || s[i-1] != ':' {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i-1], n, true
}

// CLIOptions are the file arguments of the command line.
type CLIOptions struct {
	Files []string

	// Encoding is nil for the default encoding, empty to ask once, or the
	// tag to load every file with.
	Encoding *string

	// DisablePositionParsing loads paths verbatim.
	DisablePositionParsing bool
}

// LoadCLIFilesProcess loads the files named on the command line, creating
// empty buffers for files that do not exist. A file that fails to load is
// reported and skipped.
type LoadCLIFilesProcess struct {
	process.Task
	env  *Env
	opts CLIOptions

	encoding string
	started  bool
	index    int
	loaded   []*buffer.FileBuffer
}

// NewLoadCLIFiles creates a batch load.
func NewLoadCLIFiles(env *Env, opts CLIOptions) *LoadCLIFilesProcess {
	return &LoadCLIFilesProcess{
		Task:     process.NewTask("load-cli"),
		env:      env,
		opts:     opts,
		encoding: env.DefaultEncoding(),
	}
}

// Loaded returns the buffers loaded so far, in argument order.
func (p *LoadCLIFilesProcess) Loaded() []*buffer.FileBuffer { return p.loaded }

// Encoding returns the encoding the files are loaded with.
func (p *LoadCLIFilesProcess) Encoding() string { return p.encoding }

// Step implements process.Process.
func (p *LoadCLIFilesProcess) Step() bool {
	if !p.started {
		p.started = true
		if enc := p.opts.Encoding; enc != nil {
			if *enc == "" {
				return p.Await(process.AskEncoding("Encoding of the files to load", encoding.UTF8, func(tag string) {
					p.encoding = tag
				}).OnClose(func() {}))
			}
			p.encoding = *enc
		}
	}

	if p.index >= len(p.opts.Files) {
		return p.Finish(true)
	}

	pos := Position{Path: p.opts.Files[p.index], Line: Unset, Column: Unset}
	if !p.opts.DisablePositionParsing {
		pos = ParsePosition(pos.Path)
	}
	p.Log().Debug("loading %s", pos.Path)

	return p.Spawn(NewLoadFile(p.env, pos.Path, p.encoding, true), func(c process.Process) {
		if file := c.(*LoadProcess).Buffer(); file != nil {
			if pos.Line != Unset {
				file.GotoPos(pos.Line, pos.Column)
			}
			p.loaded = append(p.loaded, file)
		}
		p.index++
	})
}

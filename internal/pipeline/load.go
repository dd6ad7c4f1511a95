package pipeline

import (
	"errors"
	"io/fs"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/encoding"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/process"
)

type loadState int

const (
	loadSelectFile loadState = iota
	loadInitial
	loadInitialMissingOK
	loadReading
)

// LoadProcess reads a file into a new buffer.
type LoadProcess struct {
	process.Task
	env *Env

	state    loadState
	name     string
	encoding string

	conv  *encoding.Converter
	data  []byte
	bom   encoding.BOMPolicy
	lossy bool

	file    *buffer.FileBuffer
	reused  bool
	replace *buffer.FileBuffer
	result  filestate.Result
}

// NewLoad creates a load that first asks for the file to open.
func NewLoad(env *Env) *LoadProcess {
	return &LoadProcess{
		Task:     process.NewTask("load"),
		env:      env,
		state:    loadSelectFile,
		encoding: env.DefaultEncoding(),
	}
}

// NewLoadFile creates a load of name in encoding enc. An empty enc means the
// default encoding. With missingOK set, a file that does not exist yields an
// empty buffer instead of an error.
func NewLoadFile(env *Env, name, enc string, missingOK bool) *LoadProcess {
	if enc == "" {
		enc = env.DefaultEncoding()
	}
	p := &LoadProcess{
		Task:     process.NewTask("load"),
		env:      env,
		state:    loadInitial,
		name:     name,
		encoding: enc,
	}
	if missingOK {
		p.state = loadInitialMissingOK
	}
	return p
}

// Supersede makes a successful load take the registry slot of old when old
// is an untitled buffer that was never filled or edited.
func (p *LoadProcess) Supersede(old *buffer.FileBuffer) *LoadProcess {
	if old != nil && old.Name() == "" && !old.Populated() && !old.Modified() {
		p.replace = old
	}
	return p
}

// Buffer returns the loaded buffer. It is nil unless the load succeeded.
func (p *LoadProcess) Buffer() *buffer.FileBuffer {
	if !p.Succeeded() {
		return nil
	}
	return p.file
}

// Path returns the file name being loaded. It is empty until a file was
// selected.
func (p *LoadProcess) Path() string { return p.name }

// Reused reports whether the file was already open and the existing buffer
// was returned.
func (p *LoadProcess) Reused() bool { return p.reused }

// Result returns the outcome of the last read attempt.
func (p *LoadProcess) Result() filestate.Result { return p.result }

// Step implements process.Process.
func (p *LoadProcess) Step() bool {
	switch p.state {
	case loadSelectFile:
		return p.Await(process.AskPath(process.ModeOpen, "Open file", "", p.encoding, p.fileSelected))
	case loadInitial, loadInitialMissingOK:
		return p.open()
	case loadReading:
		return p.read()
	}
	return p.fail(filestate.New(filestate.InternalError))
}

// Cleanup implements process.Process.
func (p *LoadProcess) Cleanup() {
	p.data = nil
	p.conv = nil
}

func (p *LoadProcess) fileSelected(name, enc string) {
	p.name = name
	p.encodingSelected(enc)
}

// encodingSelected switches the encoding and restarts the read.
func (p *LoadProcess) encodingSelected(enc string) {
	if enc != "" {
		p.encoding = enc
	}
	p.state = loadInitial
	p.Log().Debug("loading %s in %s", p.name, p.encoding)
}

func (p *LoadProcess) open() bool {
	if existing := p.env.Open.ByPath(p.name); existing != nil {
		p.Log().Debug("%s is already open", p.name)
		p.file = existing
		p.reused = true
		return p.Finish(true)
	}

	conv, err := p.env.Encodings.Open(p.encoding)
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ConversionOpenError, err))
	}
	p.conv = conv
	p.file = buffer.New(p.name, conv.Tag())

	data, err := p.env.FS.ReadFile(p.name)
	if err != nil {
		if p.state == loadInitialMissingOK && errors.Is(err, fs.ErrNotExist) {
			p.Log().Debug("%s does not exist, starting empty", p.name)
			return p.succeed(filestate.OK())
		}
		return p.fail(filestate.WithErr(filestate.ErrnoError, err))
	}
	p.data = data
	p.state = loadReading
	return p.read()
}

func (p *LoadProcess) read() bool {
	dec, r := p.conv.Decode(p.data, encoding.DecodeOptions{BOM: p.bom, AcceptLossy: p.lossy})
	p.result = r

	switch r.Code {
	case filestate.Success:
		p.populate(dec)
		return p.succeed(r)
	case filestate.BOMFound:
		return p.Await(process.Choose(p.message(r), bomOptions, func(choice int) {
			if choice == optionPreserveBOM {
				p.preserveBOM()
			} else {
				p.removeBOM()
			}
		}).OnClose(p.preserveBOM))
	case filestate.ConversionImprecise, filestate.ConversionIllegal:
		return p.confirm(r, func() { p.lossy = true })
	case filestate.ConversionTruncated:
		p.populate(dec)
		p.Report("%s", p.message(r))
		return p.succeed(r)
	case filestate.ConversionError:
		return p.fail(r)
	default:
		filestate.Unreachable(r.Code)
		return false
	}
}

// populate fills the buffer. The converter may have refined its tag from
// the content.
func (p *LoadProcess) populate(dec encoding.Decoded) {
	p.encoding = p.conv.Tag()
	p.file.SetEncoding(p.encoding)
	p.file.Populate(dec.Text, dec.BOM)
}

func (p *LoadProcess) preserveBOM() {
	conv, err := p.env.Encodings.Open(encoding.UTF8BOM)
	if err != nil {
		p.bom = encoding.BOMPreserve
		return
	}
	p.conv = conv
	p.encoding = conv.Tag()
	p.file.SetEncoding(conv.Tag())
}

func (p *LoadProcess) removeBOM() {
	p.bom = encoding.BOMRemove
}

// confirm asks whether to go on despite r. Declining or dismissing the
// prompt aborts the load.
func (p *LoadProcess) confirm(r filestate.Result, proceed func()) bool {
	p.env.record("load", r)
	return p.Await(process.Choose(p.message(r), continueAbort, func(choice int) {
		if choice != optionContinue {
			p.Abort()
			return
		}
		proceed()
	}))
}

func (p *LoadProcess) message(r filestate.Result) string {
	return loadMessage(p.name, p.encoding, r)
}

func (p *LoadProcess) succeed(r filestate.Result) bool {
	p.result = r
	p.env.record("load", r)
	if p.replace != nil {
		p.env.Open.Replace(p.replace, p.file)
	} else {
		p.env.Open.Add(p.file)
	}
	p.Log().Info("loaded %s (%s)", p.name, p.file.Encoding())
	return p.Finish(true)
}

func (p *LoadProcess) fail(r filestate.Result) bool {
	p.result = r
	p.env.record("load", r)
	p.file = nil
	p.Log().Warn("load of %s failed: %s", p.name, r)
	p.Report("%s", p.message(r))
	return p.Finish(false)
}

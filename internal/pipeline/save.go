package pipeline

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dshills/quill/internal/buffer"
	"github.com/dshills/quill/internal/filestate"
	"github.com/dshills/quill/internal/process"
	"github.com/dshills/quill/internal/vfs"
)

type saveState int

const (
	saveSelectFile saveState = iota
	saveInitial
	saveOpenFile
	saveChangeMode
	saveCreateBackup
	saveWriting
)

const ownerWrite fs.FileMode = 0o200

var errIdentityChanged = errors.New("file identity changed")

// ErrOpenInOtherBuffer refuses a save-as onto a file another buffer holds.
var ErrOpenInOtherBuffer = errors.New("the file is open in another buffer")

// SaveAsProcess writes a buffer to a file.
//
// An existing file is replaced through a temporary file in the same
// directory that is renamed over it. When no temporary file can be created
// the file is overwritten in place. Before either, the previous content is
// copied to a backup file. The identity of the target (device and inode) is
// checked at every step that reopens it; if it changes the save stops with
// filestate.RaceOnFile without writing.
type SaveAsProcess struct {
	process.Task
	env  *Env
	file *buffer.FileBuffer

	state    saveState
	name     string
	encoding string
	fresh    bool

	allowHighlightChange bool
	highlightChanged     bool

	data        []byte
	acceptLossy bool

	realName string
	exists   bool
	target   vfs.FileInfo

	readonly     vfs.File
	originalMode fs.FileMode
	modeChanged  bool

	backupName  string
	backupSaved bool

	out      vfs.File
	tempName string
	replaced bool

	result filestate.Result
}

// NewSaveAs creates a save that first asks for the destination. The
// buffer's syntax highlighting follows the new name.
func NewSaveAs(env *Env, file *buffer.FileBuffer) *SaveAsProcess {
	return &SaveAsProcess{
		Task:                 process.NewTask("save-as"),
		env:                  env,
		file:                 file,
		state:                saveSelectFile,
		name:                 file.Name(),
		encoding:             file.Encoding(),
		allowHighlightChange: true,
	}
}

// NewSave creates a save to the buffer's own file. An untitled buffer is
// handled like NewSaveAs.
func NewSave(env *Env, file *buffer.FileBuffer) *SaveAsProcess {
	p := NewSaveAs(env, file)
	p.Task = process.NewTask("save")
	if file.Name() != "" {
		p.state = saveInitial
		p.allowHighlightChange = false
	}
	return p
}

// Buffer returns the buffer being saved.
func (p *SaveAsProcess) Buffer() *buffer.FileBuffer { return p.file }

// Result returns the outcome. A successful save may still carry
// filestate.ModeResetFailed.
func (p *SaveAsProcess) Result() filestate.Result { return p.result }

// HighlightChanged reports whether the save changed the buffer's syntax
// highlighting.
func (p *SaveAsProcess) HighlightChanged() bool { return p.highlightChanged }

// Step implements process.Process.
func (p *SaveAsProcess) Step() bool {
	switch p.state {
	case saveSelectFile:
		return p.Await(process.AskPath(process.ModeSave, "Save file as", p.file.Name(), p.encoding, p.fileSelected))
	case saveInitial:
		return p.initial()
	case saveOpenFile:
		return p.openFile()
	case saveChangeMode:
		return p.changeMode()
	case saveCreateBackup:
		return p.createBackup()
	case saveWriting:
		return p.write()
	}
	return p.fail(filestate.New(filestate.InternalError))
}

// Cleanup implements process.Process.
func (p *SaveAsProcess) Cleanup() {
	if p.out != nil {
		_ = p.out.Close()
		p.out = nil
	}
	if p.tempName != "" {
		if err := p.env.FS.Remove(p.tempName); err != nil {
			p.Log().Warn("cannot remove %s: %v", p.tempName, err)
		}
		p.tempName = ""
	}
	if p.readonly != nil {
		if p.modeChanged {
			if err := p.readonly.Chmod(p.originalMode); err != nil {
				p.Log().Error("cannot restore mode of %s: %v", p.realName, err)
			}
			p.modeChanged = false
		}
		_ = p.readonly.Close()
		p.readonly = nil
	}
	p.data = nil
}

func (p *SaveAsProcess) fileSelected(name, enc string) {
	p.fresh = !buffer.SamePath(name, p.file.Name())
	p.name = name
	p.encoding = enc
	p.state = saveInitial
}

func (p *SaveAsProcess) initial() bool {
	if p.fresh {
		if other := p.env.Open.ByPath(p.name); other != nil && other != p.file {
			return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, ErrOpenInOtherBuffer))
		}
	}

	conv, err := p.env.Encodings.Open(p.encoding)
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ConversionOpenError, err))
	}
	p.encoding = conv.Tag()

	data, r := conv.Encode(p.file.Text(), p.file.BOM(), p.acceptLossy)
	switch r.Code {
	case filestate.Success:
		p.data = data
	case filestate.ConversionImprecise:
		return p.confirm(r, func() { p.acceptLossy = true })
	case filestate.ConversionError:
		return p.fail(r)
	default:
		filestate.Unreachable(r.Code)
	}

	realName, err := p.env.FS.EvalSymlinks(p.name)
	switch {
	case err == nil:
		p.realName = realName
	case errors.Is(err, fs.ErrNotExist):
		p.realName = p.name
	default:
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}

	info, err := p.env.FS.Stat(p.realName)
	switch {
	case err == nil:
		if info.IsDir() {
			err = &fs.PathError{Op: "open", Path: p.realName, Err: syscall.EISDIR}
			return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
		}
		p.exists = true
		p.target = info
	case errors.Is(err, fs.ErrNotExist):
		p.exists = false
	default:
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}

	p.state = saveOpenFile
	if p.exists && p.fresh {
		return p.confirm(filestate.New(filestate.FileExists), func() {})
	}
	return p.openFile()
}

func (p *SaveAsProcess) openFile() bool {
	if !p.exists {
		p.state = saveWriting
		return p.write()
	}
	if p.target.Perm()&ownerWrite == 0 || p.env.FS.Writable(p.realName) != nil {
		p.state = saveChangeMode
		return p.confirm(filestate.New(filestate.ReadOnlyFile), func() {})
	}
	p.state = saveCreateBackup
	return p.createBackup()
}

// changeMode makes a read-only target writable, remembering its mode.
func (p *SaveAsProcess) changeMode() bool {
	f, err := p.env.FS.Open(p.realName)
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	p.readonly = f

	info, err := f.Stat()
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	if !vfs.SameFile(info, p.target) {
		return p.fail(filestate.New(filestate.RaceOnFile))
	}
	if err := f.Chmod(info.Perm() | ownerWrite); err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	p.originalMode = info.Perm()
	p.modeChanged = true
	p.Log().Debug("made %s writable", p.realName)

	p.state = saveCreateBackup
	return p.createBackup()
}

func (p *SaveAsProcess) createBackup() bool {
	p.state = saveWriting
	if !p.env.Files.MakeBackup {
		return p.write()
	}

	p.backupName = p.realName + p.env.Files.BackupSuffix
	if err := p.copyBackup(); err != nil {
		if errors.Is(err, errIdentityChanged) {
			return p.fail(filestate.New(filestate.RaceOnFile))
		}
		p.Log().Warn("backup of %s failed: %v", p.realName, err)
		return p.confirm(filestate.WithErr(filestate.BackupFailed, err), func() {})
	}
	p.backupSaved = true
	p.Log().Debug("backed up %s to %s", p.realName, p.backupName)
	return p.write()
}

func (p *SaveAsProcess) copyBackup() error {
	src, err := p.env.FS.Open(p.realName)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}
	if !vfs.SameFile(info, p.target) {
		return errIdentityChanged
	}

	dst, err := p.env.FS.OpenFile(p.backupName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	if err == nil {
		err = dst.Sync()
	}
	if err == nil {
		err = dst.Chmod(p.target.Perm()&fs.ModePerm | 0o600)
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = p.env.FS.Remove(p.backupName)
		return err
	}
	return nil
}

func (p *SaveAsProcess) write() bool {
	if !p.exists {
		return p.writeNew()
	}

	tmp, err := p.env.FS.CreateTemp(filepath.Dir(p.realName), "."+filepath.Base(p.realName)+".*")
	if err != nil {
		p.Log().Debug("no temporary file for %s (%v), writing in place", p.realName, err)
		return p.writeInPlace()
	}
	p.out = tmp
	p.tempName = tmp.Name()
	return p.writeReplace()
}

// writeNew creates the target, failing if it appeared since it was checked.
func (p *SaveAsProcess) writeNew() bool {
	f, err := p.env.FS.OpenFile(p.realName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return p.fail(filestate.New(filestate.RaceOnFile))
		}
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	p.out = f
	// Removed by Cleanup unless the write completes.
	p.tempName = p.realName

	_, err = f.Write(p.data)
	if err == nil {
		err = p.syncOut()
	}
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	p.tempName = ""
	return p.committed()
}

// writeReplace fills the temporary file and renames it over the target.
func (p *SaveAsProcess) writeReplace() bool {
	untouched := func(err error) bool {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}

	if _, err := p.out.Write(p.data); err != nil {
		return untouched(err)
	}
	if err := p.out.Sync(); err != nil {
		return untouched(err)
	}
	if uid, gid := p.target.Owner(); uid >= 0 {
		if err := p.out.Chown(uid, gid); err != nil {
			p.Log().Debug("cannot preserve owner of %s: %v", p.realName, err)
		}
	}
	if err := p.out.Chmod(p.target.Perm()); err != nil {
		return untouched(err)
	}
	err := p.out.Close()
	p.out = nil
	if err != nil {
		return untouched(err)
	}

	info, err := p.env.FS.Stat(p.realName)
	if err != nil || !vfs.SameFile(info, p.target) {
		return p.fail(filestate.New(filestate.RaceOnFile))
	}
	if err := p.env.FS.Rename(p.tempName, p.realName); err != nil {
		return untouched(err)
	}
	p.tempName = ""
	p.replaced = true
	return p.committed()
}

// writeInPlace overwrites the target through a handle whose identity was
// checked.
func (p *SaveAsProcess) writeInPlace() bool {
	f, err := p.env.FS.OpenFile(p.realName, os.O_WRONLY, 0)
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	p.out = f

	info, err := f.Stat()
	if err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
	}
	if !vfs.SameFile(info, p.target) {
		return p.fail(filestate.New(filestate.RaceOnFile))
	}

	n, err := f.Write(p.data)
	if err != nil {
		if n == 0 {
			return p.fail(filestate.WithErr(filestate.ErrnoErrorFileUntouched, err))
		}
		return p.fail(filestate.WithErr(filestate.ErrnoError, err))
	}
	if err := f.Truncate(int64(len(p.data))); err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoError, err))
	}
	if err := p.syncOut(); err != nil {
		return p.fail(filestate.WithErr(filestate.ErrnoError, err))
	}
	return p.committed()
}

// syncOut syncs and closes p.out.
func (p *SaveAsProcess) syncOut() error {
	f := p.out
	p.out = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// committed finishes a save whose data reached the target.
func (p *SaveAsProcess) committed() bool {
	r := filestate.OK()
	// A replacement already carries the original mode; the handle refers to
	// the unlinked file.
	if p.modeChanged && !p.replaced {
		if err := p.readonly.Chmod(p.originalMode); err != nil {
			r = filestate.WithErr(filestate.ModeResetFailed, err)
		}
	}
	p.modeChanged = false

	if p.backupSaved && !p.env.Files.KeepBackup {
		if err := p.env.FS.Remove(p.backupName); err != nil {
			p.Log().Warn("cannot remove backup %s: %v", p.backupName, err)
		}
	}

	renamed := p.file.Name() != p.name
	p.file.Commit(p.name, p.encoding)
	if renamed && p.allowHighlightChange {
		p.file.SetHighlight(buffer.DetectLanguage(p.name))
		p.highlightChanged = true
	}

	p.result = r
	p.env.record("save", r)
	if !r.OK() {
		p.Log().Warn("saved %s with %s", p.name, r)
		p.Report("%s", p.message(r))
	} else {
		p.Log().Info("saved %s (%d bytes, %s)", p.name, len(p.data), p.encoding)
	}
	return p.Finish(true)
}

// confirm asks whether to go on despite r. Declining or dismissing the
// prompt aborts the save.
func (p *SaveAsProcess) confirm(r filestate.Result, proceed func()) bool {
	p.env.record("save", r)
	return p.Await(process.Choose(p.message(r), continueAbort, func(choice int) {
		if choice != optionContinue {
			p.Abort()
			return
		}
		proceed()
	}))
}

func (p *SaveAsProcess) message(r filestate.Result) string {
	backup := ""
	if p.backupSaved {
		backup = p.backupName
	}
	return saveMessage(p.name, p.encoding, backup, r)
}

func (p *SaveAsProcess) fail(r filestate.Result) bool {
	p.result = r
	p.env.record("save", r)
	p.Log().Warn("save of %s failed: %s", p.name, r)
	p.Report("%s", p.message(r))
	return p.Finish(false)
}

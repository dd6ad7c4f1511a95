package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/process"
	"github.com/dshills/quill/internal/vfs"
	"github.com/stretchr/testify/require"
)

// harness runs pipelines against a temporary directory.
type harness struct {
	t       *testing.T
	dir     string
	env     *Env
	sched   *process.Scheduler
	reports []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, dir: t.TempDir()}
	h.env = NewEnv(config.Default().Files)
	h.sched = process.NewScheduler(process.WithReporter(func(_ process.Process, msg string) {
		h.reports = append(h.reports, msg)
	}))
	return h
}

func (h *harness) path(name string) string {
	return filepath.Join(h.dir, name)
}

func (h *harness) write(name string, data []byte, perm fs.FileMode) string {
	h.t.Helper()
	path := h.path(name)
	require.NoError(h.t, os.WriteFile(path, data, perm))
	require.NoError(h.t, os.Chmod(path, perm))
	return path
}

func (h *harness) read(path string) []byte {
	h.t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(h.t, err)
	return data
}

// run starts p and returns once it finished or suspended.
func (h *harness) run(p process.Process) {
	h.t.Helper()
	require.NoError(h.t, h.sched.Execute(p, nil))
}

// choose answers the pending choice prompt after checking its message
// mentions want.
func (h *harness) choose(want string, choice int) {
	h.t.Helper()
	pending := h.sched.Pending()
	require.NotNil(h.t, pending, "expected a prompt about %q", want)
	require.Equal(h.t, process.Choice, pending.Kind)
	require.Contains(h.t, pending.Message, want)
	require.NoError(h.t, h.sched.Resume(process.Answer{Choice: choice}))
}

func (h *harness) answerPath(path, enc string) {
	h.t.Helper()
	pending := h.sched.Pending()
	require.NotNil(h.t, pending)
	require.Equal(h.t, process.Path, pending.Kind)
	require.NoError(h.t, h.sched.Resume(process.Answer{Value: path, Encoding: enc}))
}

func (h *harness) idle() {
	h.t.Helper()
	require.False(h.t, h.sched.Busy(), "pipeline still running, pending %+v", h.sched.Pending())
}

// load opens path and returns its buffer.
func (h *harness) load(path, enc string) *LoadProcess {
	h.t.Helper()
	p := NewLoadFile(h.env, path, enc, false)
	h.run(p)
	h.idle()
	require.True(h.t, p.Succeeded(), "load failed: %s", p.Result())
	return p
}

// untouchableFS fails the test with a nil dereference on any file system
// access.
type untouchableFS struct {
	vfs.FS
}

// chmodFailFS refuses to restore mode bits through handles returned by Open.
type chmodFailFS struct {
	vfs.FS
}

func (f chmodFailFS) Open(path string) (vfs.File, error) {
	file, err := f.FS.Open(path)
	if err != nil {
		return nil, err
	}
	return restoreFailFile{file}, nil
}

type restoreFailFile struct {
	vfs.File
}

func (f restoreFailFile) Chmod(mode fs.FileMode) error {
	if mode&ownerWrite == 0 {
		return &fs.PathError{Op: "chmod", Path: f.Name(), Err: fs.ErrPermission}
	}
	return f.File.Chmod(mode)
}

// noTempFS cannot create temporary files.
type noTempFS struct {
	vfs.FS
}

func (noTempFS) CreateTemp(dir, pattern string) (vfs.File, error) {
	return nil, &fs.PathError{Op: "createtemp", Path: dir, Err: fs.ErrPermission}
}

// intruderFS creates the file right before an exclusive create.
type intruderFS struct {
	vfs.FS
	content []byte
}

func (f intruderFS) OpenFile(path string, flag int, perm fs.FileMode) (vfs.File, error) {
	if flag&os.O_EXCL != 0 {
		if err := os.WriteFile(path, f.content, 0o644); err != nil {
			return nil, err
		}
	}
	return f.FS.OpenFile(path, flag, perm)
}

// shortWriteFS cannot create temporary files, and writes to target stop
// with ENOSPC after limit bytes.
type shortWriteFS struct {
	noTempFS
	target string
	limit  int
}

func (f shortWriteFS) OpenFile(path string, flag int, perm fs.FileMode) (vfs.File, error) {
	file, err := f.noTempFS.OpenFile(path, flag, perm)
	if err != nil || path != f.target {
		return file, err
	}
	return &shortWriteFile{File: file, limit: f.limit}, nil
}

type shortWriteFile struct {
	vfs.File
	limit int
}

func (f *shortWriteFile) Write(p []byte) (int, error) {
	n, err := f.File.Write(p[:min(len(p), f.limit)])
	if err != nil {
		return n, err
	}
	return n, &fs.PathError{Op: "write", Path: f.Name(), Err: syscall.ENOSPC}
}

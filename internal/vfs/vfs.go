// Package vfs is the file system seam used by the load and save pipelines.
//
// The FS interface exposes exactly the operations a file transaction needs:
// identity-aware stat (device and inode), access checks, opening with flags,
// temporary files in a given directory, chmod, rename and remove. OSFS is the
// operating system implementation; tests wrap it to inject faults.
package vfs

import (
	"io"
	"io/fs"
	"os"
	"time"
)

// FS is the file system used by the pipelines.
type FS interface {
	// Stat returns file information, following symbolic links.
	Stat(path string) (FileInfo, error)

	// EvalSymlinks returns the path after resolving symbolic links.
	EvalSymlinks(path string) (string, error)

	// Writable reports whether the caller may write to path. It returns
	// nil when writing is allowed.
	Writable(path string) error

	// ReadFile reads the entire file content.
	ReadFile(path string) ([]byte, error)

	// Open opens a file for reading.
	Open(path string) (File, error)

	// OpenFile opens a file with the given flags and permissions.
	OpenFile(path string, flag int, perm fs.FileMode) (File, error)

	// CreateTemp creates a new temporary file in dir.
	CreateTemp(dir, pattern string) (File, error)

	// Chmod changes the mode of path.
	Chmod(path string, mode fs.FileMode) error

	// Rename renames (moves) a file.
	Rename(oldPath, newPath string) error

	// Remove removes a file.
	Remove(path string) error
}

// File is an open file.
type File interface {
	io.Reader
	io.Writer
	io.Closer

	// Name returns the path the file was opened with.
	Name() string

	// Stat returns information about the open file.
	Stat() (FileInfo, error)

	Sync() error
	Truncate(size int64) error
	Chmod(mode fs.FileMode) error
	Chown(uid, gid int) error
}

// Identity identifies a file independently of its path.
type Identity struct {
	Dev uint64
	Ino uint64
}

// IsZero reports whether the identity is unknown.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// FileInfo describes a file.
type FileInfo struct {
	path    string
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	id      Identity
	uid     int
	gid     int
	sys     fs.FileInfo
}

// Path returns the path the information was obtained for.
func (fi FileInfo) Path() string { return fi.path }

// Name returns the base name.
func (fi FileInfo) Name() string { return fi.name }

// Size returns the file size in bytes.
func (fi FileInfo) Size() int64 { return fi.size }

// Mode returns the file mode.
func (fi FileInfo) Mode() fs.FileMode { return fi.mode }

// Perm returns the permission bits, including setuid, setgid and sticky.
func (fi FileInfo) Perm() fs.FileMode {
	return fi.mode & (fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky)
}

// ModTime returns the modification time.
func (fi FileInfo) ModTime() time.Time { return fi.modTime }

// IsDir returns true if this is a directory.
func (fi FileInfo) IsDir() bool { return fi.mode.IsDir() }

// IsRegular returns true if this is a regular file.
func (fi FileInfo) IsRegular() bool { return fi.mode.IsRegular() }

// Identity returns the device and inode of the file.
func (fi FileInfo) Identity() Identity { return fi.id }

// Owner returns the user and group ids of the file, or -1 when unknown.
func (fi FileInfo) Owner() (uid, gid int) { return fi.uid, fi.gid }

// SameFile reports whether a and b describe the same file. Without a
// device and inode it falls back to os.SameFile; two empty infos are never
// the same file.
func SameFile(a, b FileInfo) bool {
	if !a.id.IsZero() || !b.id.IsZero() {
		return a.id == b.id
	}
	if a.sys == nil || b.sys == nil {
		return false
	}
	return os.SameFile(a.sys, b.sys)
}

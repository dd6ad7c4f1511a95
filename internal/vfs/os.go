package vfs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// OSFS implements FS using the operating system's file system.
type OSFS struct{}

// NewOSFS creates a new OS file system.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Ensure OSFS implements FS.
var _ FS = (*OSFS)(nil)

// Stat returns file information.
func (f *OSFS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fileInfoFromOS(path, info), nil
}

// EvalSymlinks returns the path after resolving symbolic links.
func (f *OSFS) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// Writable reports whether the caller may write to path.
func (f *OSFS) Writable(path string) error {
	return access(path)
}

// ReadFile reads the entire file content.
func (f *OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Open opens a file for reading.
func (f *OSFS) Open(path string) (File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &osFile{File: file}, nil
}

// OpenFile opens a file with the given flags and permissions.
func (f *OSFS) OpenFile(path string, flag int, perm fs.FileMode) (File, error) {
	file, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return &osFile{File: file}, nil
}

// CreateTemp creates a new temporary file in dir.
func (f *OSFS) CreateTemp(dir, pattern string) (File, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return &osFile{File: file}, nil
}

// Chmod changes the mode of path.
func (f *OSFS) Chmod(path string, mode fs.FileMode) error {
	return os.Chmod(path, mode)
}

// Rename renames (moves) a file.
func (f *OSFS) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// Remove removes a file.
func (f *OSFS) Remove(path string) error {
	return os.Remove(path)
}

// osFile adapts *os.File to File.
type osFile struct {
	*os.File
}

// Stat returns information about the open file.
func (o *osFile) Stat() (FileInfo, error) {
	info, err := o.File.Stat()
	if err != nil {
		return FileInfo{}, err
	}
	return fileInfoFromOS(o.Name(), info), nil
}

// fileInfoFromOS converts os.FileInfo to vfs.FileInfo.
func fileInfoFromOS(path string, info os.FileInfo) FileInfo {
	fi := FileInfo{
		path:    path,
		name:    info.Name(),
		size:    info.Size(),
		mode:    info.Mode(),
		modTime: info.ModTime(),
		uid:     -1,
		gid:     -1,
		sys:     info,
	}
	fillSys(&fi, info)
	return fi
}

//go:build !unix

package vfs

import (
	"os"
	"syscall"
)

func fillSys(fi *FileInfo, info os.FileInfo) {}

func access(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o200 == 0 {
		return &os.PathError{Op: "access", Path: path, Err: syscall.EACCES}
	}
	return nil
}

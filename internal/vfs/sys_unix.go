//go:build unix

package vfs

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func fillSys(fi *FileInfo, info os.FileInfo) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	fi.id = Identity{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}
	fi.uid = int(st.Uid)
	fi.gid = int(st.Gid)
}

func access(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return &os.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}

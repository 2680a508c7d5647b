// Package shm provides helpers for dealing with shared memory.
package shm

import (
	"os"

	"golang.org/x/sys/unix"
)

// Create returns an anonymous memory-backed file suitable for sharing
// with the display server.
func Create() (*os.File, error) {
	fd, err := unix.MemfdCreate("wlwin-shm", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "wlwin-shm"), nil
}

type Mmap []byte

func mmap(file *os.File, size, prot, flags int) (mmap Mmap, err error) {
	sc, err := file.SyscallConn()
	if err != nil {
		return nil, err
	}

	sc.Control(func(fd uintptr) {
		m, merr := unix.Mmap(int(fd), 0, size, prot, flags)
		mmap, err = Mmap(m), merr
	})

	return mmap, err
}

// MapShared maps size bytes of file shared and read-write.
func MapShared(file *os.File, size int) (Mmap, error) {
	return mmap(file, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// MapPrivate maps size bytes of file private and read-only. It is
// used to read descriptor-delivered data, such as keymaps, without
// copying it through the file offset.
func MapPrivate(file *os.File, size int) (Mmap, error) {
	return mmap(file, size, unix.PROT_READ, unix.MAP_PRIVATE)
}

func (mmap Mmap) Unmap() error {
	return unix.Munmap(mmap)
}

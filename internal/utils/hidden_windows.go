//go:build windows

package utils

import (
	"syscall"
)

// MakeHidden sets the Windows FILE_ATTRIBUTE_HIDDEN flag on path, used for
// the per-sync-root settings directory and subsyncit.err.
func MakeHidden(path string) error {
	ptr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := syscall.GetFileAttributes(ptr)
	if err != nil {
		return err
	}
	return syscall.SetFileAttributes(ptr, attrs|syscall.FILE_ATTRIBUTE_HIDDEN)
}

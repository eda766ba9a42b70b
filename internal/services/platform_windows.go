//go:build windows

package services

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/windows"
)

func attributes(path string, info fs.FileInfo) (uint32, bool) {
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return data.FileAttributes, true
	}
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, false
	}
	attrs, err := windows.GetFileAttributes(name)
	if err != nil {
		return 0, false
	}
	return attrs, true
}

// Junctions and mount points are reparse points that Go does not always
// report as symlinks.
func isReparsePoint(path string, info fs.FileInfo) bool {
	if info.Mode()&(fs.ModeSymlink|fs.ModeIrregular|fs.ModeDevice|fs.ModeNamedPipe) != 0 {
		return true
	}
	attrs, ok := attributes(path, info)
	return ok && attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0
}

func isReadOnly(info fs.FileInfo) bool {
	if data, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return data.FileAttributes&windows.FILE_ATTRIBUTE_READONLY != 0
	}
	return info.Mode().Perm()&0o200 == 0
}

func clearReadOnly(path string, info fs.FileInfo) error {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(name)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(name, attrs&^windows.FILE_ATTRIBUTE_READONLY)
}

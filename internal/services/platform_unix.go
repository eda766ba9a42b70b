//go:build !windows

package services

import (
	"io/fs"
	"os"
)

const untraversableModes = fs.ModeSymlink | fs.ModeDevice | fs.ModeCharDevice |
	fs.ModeNamedPipe | fs.ModeSocket | fs.ModeIrregular

func isReparsePoint(path string, info fs.FileInfo) bool {
	return info.Mode()&untraversableModes != 0
}

func isReadOnly(info fs.FileInfo) bool {
	return info.Mode().Perm()&0o200 == 0
}

func clearReadOnly(path string, info fs.FileInfo) error {
	return os.Chmod(path, info.Mode().Perm()|0o200)
}

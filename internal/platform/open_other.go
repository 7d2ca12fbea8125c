//go:build !unix

package platform

import (
	"io/fs"
	"os"
)

// OpenFileNoFollow opens a source file for packing without following
// symlinks. Returns ErrSymlink if the path is a symbolic link.
func OpenFileNoFollow(root *os.Root, name string) (*os.File, error) {
	info, err := root.Lstat(name)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	return root.Open(name)
}

// IsExecutable always reports false: permission bits do not carry an
// executable flag on this platform.
func IsExecutable(fs.FileInfo) bool {
	return false
}

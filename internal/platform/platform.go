// Package platform isolates the OS-specific parts of reading a source tree
// and writing extracted files.
package platform

import (
	"errors"
	"io/fs"
)

// ErrSymlink is returned when attempting to open a symbolic link.
var ErrSymlink = errors.New("symbolic links not supported")

// FileMode returns the permission bits for an extracted file.
func FileMode(executable bool) fs.FileMode {
	if executable {
		return 0o755
	}
	return 0o644
}

package asartype

import (
	"errors"
	"fmt"
)

// Sentinel errors for archive operations.
var (
	// ErrHeader is returned when the archive header cannot be parsed.
	// Every specific header condition below wraps it.
	ErrHeader = errors.New("asar: invalid header")

	// ErrContentType is returned when an operation is applied to an archive
	// of the wrong origin, such as packing an archive that was decoded from
	// a file or extracting one that was built from a directory.
	ErrContentType = errors.New("asar: invalid content type")

	// ErrHashMismatch is returned when file content does not match its
	// recorded integrity hash.
	ErrHashMismatch = errors.New("asar: hash verification failed")

	// ErrSizeOverflow is returned when offsets or sizes exceed supported limits.
	ErrSizeOverflow = errors.New("asar: size overflow")

	// ErrFileChanged is returned when a source file's size differs between
	// the directory walk and the copy into the archive.
	ErrFileChanged = errors.New("asar: file changed during packing")
)

// Header conditions. Each wraps ErrHeader.
var (
	ErrMissingFiles     = fmt.Errorf("%w: 'files' not found", ErrHeader)
	ErrInvalidSize      = fmt.Errorf("%w: size is not a non-negative integer", ErrHeader)
	ErrSizeTooLarge     = fmt.Errorf("%w: size is greater than MAX_SAFE_INTEGER", ErrHeader)
	ErrInvalidOffset    = fmt.Errorf("%w: offset is not a decimal integer string", ErrHeader)
	ErrInvalidName      = fmt.Errorf("%w: invalid entry name", ErrHeader)
	ErrInvalidIntegrity = fmt.Errorf("%w: invalid integrity", ErrHeader)
)

// HeaderError records a header condition and the entity it was found on.
// Entity is the slash-separated path of the entry; it is empty for the root.
type HeaderError struct {
	Entity string
	Err    error
}

func (e *HeaderError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%v (root)", e.Err)
	}
	return fmt.Sprintf("%v for entity: %s", e.Err, e.Entity)
}

func (e *HeaderError) Unwrap() error { return e.Err }

package asar

import (
	"github.com/meigma/asar/internal/asartype"
)

// Errors re-exported from asartype.
var (
	// ErrHeader is returned when the archive header cannot be parsed. Every
	// header condition below wraps it.
	ErrHeader = asartype.ErrHeader

	// ErrMissingFiles is returned when a folder descriptor, or the root, has
	// no "files" object and is not a file.
	ErrMissingFiles = asartype.ErrMissingFiles

	// ErrInvalidSize is returned when a file size is not a non-negative integer.
	ErrInvalidSize = asartype.ErrInvalidSize

	// ErrSizeTooLarge is returned when a file size exceeds 2^53-1.
	ErrSizeTooLarge = asartype.ErrSizeTooLarge

	// ErrInvalidOffset is returned when a file offset is not a decimal string.
	ErrInvalidOffset = asartype.ErrInvalidOffset

	// ErrInvalidName is returned for empty, ".", "..", or slash-bearing
	// entry names, and for duplicate names within a folder.
	ErrInvalidName = asartype.ErrInvalidName

	// ErrInvalidIntegrity is returned when integrity metadata is malformed.
	ErrInvalidIntegrity = asartype.ErrInvalidIntegrity

	// ErrContentType is returned when packing an archive decoded from a file
	// or extracting one opened from a directory.
	ErrContentType = asartype.ErrContentType

	// ErrHashMismatch is returned when file content doesn't match its
	// recorded integrity hash.
	ErrHashMismatch = asartype.ErrHashMismatch

	// ErrSizeOverflow is returned when a size or offset overflows.
	ErrSizeOverflow = asartype.ErrSizeOverflow

	// ErrFileChanged is returned when a source file changed size while
	// being packed.
	ErrFileChanged = asartype.ErrFileChanged
)

// HeaderError records a header condition and the entity it was found on.
type HeaderError = asartype.HeaderError

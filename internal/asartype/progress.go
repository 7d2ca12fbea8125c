package asartype

// ProgressEvent represents a progress update during packing or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the archive path currently being processed, if applicable.
	Path string

	// BytesDone is the number of content bytes completed so far.
	BytesDone uint64

	// BytesTotal is the total content bytes for the operation.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of files completed.
	FilesDone int

	// FilesTotal is the total number of files.
	// Zero indicates the total is unknown (e.g., during enumeration).
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for packing and extraction.
const (
	// StageEnumerating indicates the operation is walking the directory tree.
	StageEnumerating ProgressStage = iota

	// StageWritingHeader indicates the header is being encoded.
	StageWritingHeader

	// StagePacking indicates file contents are being appended to the archive.
	StagePacking

	// StageExtracting indicates files are being extracted.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageEnumerating:
		return "enumerating"
	case StageWritingHeader:
		return "writing header"
	case StagePacking:
		return "packing"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Operations are synchronous, so calls arrive on the caller's goroutine.
type ProgressFunc func(ProgressEvent)

// Report calls fn with ev when fn is non-nil.
func (fn ProgressFunc) Report(ev ProgressEvent) {
	if fn != nil {
		fn(ev)
	}
}

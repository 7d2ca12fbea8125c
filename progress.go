package asar

import "github.com/meigma/asar/internal/asartype"

// Re-export progress types from asartype.
type (
	// ProgressEvent represents a progress update during packing or extraction.
	ProgressEvent = asartype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = asartype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	ProgressFunc = asartype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageEnumerating indicates a directory is being walked.
	StageEnumerating = asartype.StageEnumerating

	// StageWritingHeader indicates the header is being written.
	StageWritingHeader = asartype.StageWritingHeader

	// StagePacking indicates file contents are being appended to the archive.
	StagePacking = asartype.StagePacking

	// StageExtracting indicates files are being extracted.
	StageExtracting = asartype.StageExtracting
)

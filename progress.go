package corpus

import "github.com/meigma/corpus/internal/archivetype"

// Re-export progress types from archivetype.
type (
	// ProgressEvent represents a progress update during archive creation or export.
	ProgressEvent = archivetype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = archivetype.ProgressStage

	// ProgressFunc receives progress updates. Calls are made synchronously
	// from the goroutine running the operation.
	ProgressFunc = archivetype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageArchiving indicates entries are being appended to an archive.
	StageArchiving = archivetype.StageArchiving

	// StageExtracting indicates entries are being materialized on disk.
	StageExtracting = archivetype.StageExtracting
)

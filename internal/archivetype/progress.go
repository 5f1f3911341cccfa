package archivetype

// ProgressEvent represents a progress update during archive creation or export.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the entry currently being processed, if applicable.
	Path string

	// Kind is the kind of the entry at Path.
	Kind EntryKind

	// BytesDone is the number of payload bytes completed so far.
	BytesDone uint64

	// EntriesDone is the number of entries completed so far, including
	// skipped ones.
	EntriesDone int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

const (
	// StageArchiving indicates entries are being appended to an archive.
	StageArchiving ProgressStage = iota

	// StageExtracting indicates entries are being materialized on disk.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageArchiving:
		return "archiving"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. Calls are made synchronously from
// the goroutine running the operation.
type ProgressFunc func(ProgressEvent)

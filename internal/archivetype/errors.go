package archivetype

import "errors"

// Sentinel errors for archive operations.
var (
	// ErrOpen is returned when the archive file is missing or unreadable.
	ErrOpen = errors.New("corpus: open archive")

	// ErrDecode is returned when compression or container framing is malformed.
	ErrDecode = errors.New("corpus: decode archive")

	// ErrEntryRead is returned when an entry header or path cannot be parsed.
	ErrEntryRead = errors.New("corpus: read entry")

	// ErrFilesystem is returned when creating a directory or file, or copying
	// entry bytes, fails.
	ErrFilesystem = errors.New("corpus: filesystem")

	// ErrUnsafePath is returned when an entry path is absolute or escapes
	// the archive root.
	ErrUnsafePath = errors.New("corpus: unsafe entry path")
)

package corpus

import "github.com/meigma/corpus/internal/archivetype"

// Errors re-exported from archivetype.
var (
	// ErrOpen is returned when the archive file is missing or unreadable.
	ErrOpen = archivetype.ErrOpen

	// ErrDecode is returned when compression or container framing is malformed.
	ErrDecode = archivetype.ErrDecode

	// ErrEntryRead is returned when an entry header or path cannot be parsed.
	ErrEntryRead = archivetype.ErrEntryRead

	// ErrFilesystem is returned when creating a directory or file, or copying
	// entry bytes, fails.
	ErrFilesystem = archivetype.ErrFilesystem

	// ErrUnsafePath is returned when an entry path is absolute or escapes
	// the destination root.
	ErrUnsafePath = archivetype.ErrUnsafePath
)

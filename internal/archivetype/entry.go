package archivetype

import "io"

// EntryKind classifies an archive entry. Only directories and regular files
// are materialized; everything else is KindOther.
type EntryKind uint8

const (
	KindOther EntryKind = iota
	KindDirectory
	KindRegular
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "dir"
	case KindRegular:
		return "file"
	default:
		return "other"
	}
}

// Entry is a single archive record.
//
// Payload is only valid until the next entry is requested from the source
// that produced it.
type Entry struct {
	// Path is the slash-separated relative path, with any trailing slash
	// and leading "./" removed.
	Path string

	// Kind is the entry classification.
	Kind EntryKind

	// Size is the declared payload length.
	Size int64

	// Payload reads the entry contents. Reading past Size yields io.EOF.
	Payload io.Reader
}

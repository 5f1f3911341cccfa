package testutil

import (
	"bytes"
	"io"

	"github.com/meigma/corpus/internal/archivetype"
)

// MockEntry describes one entry yielded by a MockEntrySource.
type MockEntry struct {
	Path string
	Kind archivetype.EntryKind
	Data []byte

	// Err, when set, is returned by Next instead of this entry.
	Err error

	// PayloadErr, when set, is returned by the payload reader after Data.
	PayloadErr error

	reader *trackedReader
}

// MockEntrySource implements an in-memory entry source for tests.
type MockEntrySource struct {
	entries []MockEntry
	pos     int

	// Drained counts payload bytes left unread when Next advanced.
	Drained int
}

// NewMockEntrySource returns a source yielding entries in order.
func NewMockEntrySource(entries ...MockEntry) *MockEntrySource {
	return &MockEntrySource{entries: entries}
}

// Next returns the next entry or io.EOF.
func (m *MockEntrySource) Next() (archivetype.Entry, error) {
	if m.pos > 0 {
		if prev, ok := m.entries[m.pos-1].payload(); ok {
			m.Drained += prev.Len()
		}
	}
	if m.pos >= len(m.entries) {
		return archivetype.Entry{}, io.EOF
	}
	e := &m.entries[m.pos]
	m.pos++
	if e.Err != nil {
		return archivetype.Entry{}, e.Err
	}

	var payload io.Reader = bytes.NewReader(e.Data)
	if e.PayloadErr != nil {
		payload = io.MultiReader(payload, errReader{e.PayloadErr})
	}
	reader := &trackedReader{r: payload, remaining: len(e.Data)}
	e.reader = reader
	return archivetype.Entry{
		Path:    e.Path,
		Kind:    e.Kind,
		Size:    int64(len(e.Data)),
		Payload: reader,
	}, nil
}

// Remaining reports how many entries have not been returned yet.
func (m *MockEntrySource) Remaining() int {
	return len(m.entries) - m.pos
}

func (e *MockEntry) payload() (*trackedReader, bool) {
	if e.reader == nil {
		return nil, false
	}
	return e.reader, true
}

type trackedReader struct {
	r         io.Reader
	remaining int
}

func (t *trackedReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	t.remaining -= n
	return n, err
}

func (t *trackedReader) Len() int {
	if t.remaining < 0 {
		return 0
	}
	return t.remaining
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

package corpus

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/meigma/corpus/internal/ioutil"
	"github.com/meigma/corpus/internal/pathutil"
)

// Stats summarizes a completed materialization.
type Stats struct {
	// Dirs is the number of directory entries created.
	Dirs int

	// Files is the number of regular files written.
	Files int

	// Skipped is the number of entries of other kinds.
	Skipped int

	// Bytes is the total payload bytes written to files.
	Bytes uint64
}

// Entries returns the total number of entries consumed.
func (s Stats) Entries() int {
	return s.Dirs + s.Files + s.Skipped
}

// Materializer recreates archive entries as directories and regular files
// under a destination root.
//
// Directories are created with mode 0o750 and files with 0o644, both
// subject to the umask. Existing files at an entry's path are truncated
// and overwritten; unrelated content under the root is left alone.
type Materializer struct {
	destDir  string
	logger   *zap.Logger
	progress ProgressFunc
	buf      []byte
}

// NewMaterializer creates a Materializer writing under destDir.
func NewMaterializer(destDir string, opts ...MaterializeOption) *Materializer {
	m := &Materializer{
		destDir: destDir,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize consumes src until it is exhausted, creating the destination
// root and any missing ancestors first.
//
// The first error aborts the run; entries already written stay on disk and
// the returned Stats is zero. Source errors are returned classified as
// ErrDecode or ErrEntryRead, filesystem failures wrap ErrFilesystem, and
// paths leaving the root wrap ErrUnsafePath.
func (m *Materializer) Materialize(src EntrySource) (Stats, error) {
	if err := os.MkdirAll(m.destDir, 0o750); err != nil {
		return Stats{}, fmt.Errorf("%w: create %s: %w", ErrFilesystem, m.destDir, err)
	}
	root, err := os.OpenRoot(m.destDir)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: open %s: %w", ErrFilesystem, m.destDir, err)
	}
	defer root.Close()

	if m.buf == nil {
		m.buf = make([]byte, ioutil.DefaultBufferSize)
	}

	var stats Stats
	for {
		entry, err := src.Next()
		if err == io.EOF { //nolint:errorlint // io.EOF is returned unwrapped by contract
			return stats, nil
		}
		if err != nil {
			return Stats{}, sourceError(err)
		}
		if err := m.materialize(root, entry, &stats); err != nil {
			return Stats{}, err
		}
		m.report(entry, &stats)
	}
}

func (m *Materializer) materialize(root *os.Root, entry Entry, stats *Stats) error {
	switch entry.Kind {
	case KindDirectory:
		local, err := localPath(entry.Path)
		if err != nil {
			return err
		}
		if err := mkdirAll(root, local); err != nil {
			return fmt.Errorf("%w: mkdir %s: %w", ErrFilesystem, entry.Path, err)
		}
		stats.Dirs++
		m.logger.Debug("created directory", zap.String("path", entry.Path))
		return nil

	case KindRegular:
		local, err := localPath(entry.Path)
		if err != nil {
			return err
		}
		n, err := m.writeFile(root, local, entry)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		m.logger.Debug("wrote file", zap.String("path", entry.Path), zap.Uint64("bytes", n))
		return nil

	default:
		stats.Skipped++
		m.logger.Debug("skipped entry", zap.String("path", entry.Path), zap.Stringer("kind", entry.Kind))
		return nil
	}
}

// writeFile creates or truncates the file at local and streams the entry
// payload into it.
func (m *Materializer) writeFile(root *os.Root, local string, entry Entry) (uint64, error) {
	if dir := filepath.Dir(local); dir != "." {
		if err := mkdirAll(root, dir); err != nil {
			return 0, fmt.Errorf("%w: mkdir %s: %w", ErrFilesystem, filepath.ToSlash(dir), err)
		}
	}

	f, err := root.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: create %s: %w", ErrFilesystem, entry.Path, err)
	}

	n, err := ioutil.Copy(f, entry.Payload, m.buf)
	if err != nil {
		_ = f.Close() //nolint:errcheck // copy error takes precedence
		var se *ioutil.SourceError
		if errors.As(err, &se) {
			return 0, fmt.Errorf("read %s: %w", entry.Path, sourceError(se.Err))
		}
		return 0, fmt.Errorf("%w: write %s: %w", ErrFilesystem, entry.Path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("%w: close %s: %w", ErrFilesystem, entry.Path, err)
	}
	return n, nil
}

func (m *Materializer) report(entry Entry, stats *Stats) {
	if m.progress == nil {
		return
	}
	m.progress(ProgressEvent{
		Stage:       StageExtracting,
		Path:        entry.Path,
		Kind:        entry.Kind,
		BytesDone:   stats.Bytes,
		EntriesDone: stats.Entries(),
	})
}

// localPath validates an entry path for use under the root.
func localPath(name string) (string, error) {
	local, err := pathutil.Local(name)
	if errors.Is(err, pathutil.ErrEmptyPath) {
		return "", fmt.Errorf("%w: %w", ErrEntryRead, err)
	}
	if err != nil {
		return "", err
	}
	return local, nil
}

func mkdirAll(root *os.Root, local string) error {
	if local == "." {
		return nil
	}
	return root.MkdirAll(local, 0o750)
}

// sourceError classifies an error produced while reading entries. Errors
// already carrying a read classification pass through unchanged.
func sourceError(err error) error {
	if errors.Is(err, ErrDecode) || errors.Is(err, ErrEntryRead) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrEntryRead, err)
}

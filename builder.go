package corpus

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.uber.org/zap"

	"github.com/meigma/corpus/internal/codec"
	"github.com/meigma/corpus/internal/ioutil"
	"github.com/meigma/corpus/internal/pathutil"
	"github.com/meigma/corpus/internal/platform"
)

// archiveSuffix precedes the container extension in archive file names.
const archiveSuffix = ".corpus"

var errBuilderClosed = errors.New("corpus: builder closed")

// ArchiveFilePath returns the path of the zstd archive called name in
// archiveDir: archiveDir/<name>.corpus.tar.zst.
func ArchiveFilePath(archiveDir, name string) string {
	return archiveFilePath(archiveDir, name, CompressionZstd)
}

func archiveFilePath(archiveDir, name string, c Compression) string {
	return filepath.Join(archiveDir, name+archiveSuffix+c.Extension())
}

// Builder appends entries to a new corpus archive.
//
// Entries are written in call order to a temporary file next to the final
// path. Close finalizes the archive and renames it into place; Abort
// discards it. A Builder is not safe for concurrent use.
type Builder struct {
	path     string
	tmp      *os.File
	counter  *ioutil.CountingWriter
	digester digest.Digester
	enc      io.WriteCloser
	tw       *tar.Writer
	cfg      builderConfig
	buf      []byte

	entries int
	bytes   uint64
	done    bool
}

// CreateArchive starts a new archive called name in archiveDir, creating
// archiveDir if needed. The archive is written to
// archiveDir/<name>.corpus<ext>, where ext follows the configured
// compression (".tar.zst" by default).
func CreateArchive(archiveDir, name string, opts ...BuilderOption) (*Builder, error) {
	cfg := builderConfig{
		compression: CompressionZstd,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid archive name %q", name)
	}
	if err := os.MkdirAll(archiveDir, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", archiveDir, err)
	}

	tmp, err := os.CreateTemp(archiveDir, ".corpus-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	digester := digest.Canonical.Digester()
	counter := &ioutil.CountingWriter{W: io.MultiWriter(tmp, digester.Hash())}
	enc, err := codec.NewEncoder(cfg.compression, counter)
	if err != nil {
		_ = tmp.Close()           //nolint:errcheck // best-effort cleanup
		_ = os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return nil, err
	}

	return &Builder{
		path:     archiveFilePath(archiveDir, name, cfg.compression),
		tmp:      tmp,
		counter:  counter,
		digester: digester,
		enc:      enc,
		tw:       tar.NewWriter(enc),
		cfg:      cfg,
		buf:      make([]byte, ioutil.DefaultBufferSize),
	}, nil
}

// Path returns the final archive path.
func (b *Builder) Path() string {
	return b.path
}

// AddDir appends a directory entry. The archive root (".") is implied and
// not written.
func (b *Builder) AddDir(name string) error {
	if b.done {
		return errBuilderClosed
	}
	clean, err := entryName(name)
	if err != nil {
		return err
	}
	if clean == "." {
		return nil
	}

	hdr := &tar.Header{
		Name:     clean + "/",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	}
	if err := b.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", clean, err)
	}
	b.appended(clean, KindDirectory)
	return nil
}

// AddFile appends a regular file entry of exactly size bytes read from r.
func (b *Builder) AddFile(name string, size int64, r io.Reader) error {
	if b.done {
		return errBuilderClosed
	}
	if size < 0 {
		return fmt.Errorf("negative size for %s", name)
	}
	clean, err := entryName(name)
	if err != nil {
		return err
	}
	if clean == "." {
		return fmt.Errorf("%w: file entry %q names the archive root", ErrUnsafePath, name)
	}

	hdr := &tar.Header{
		Name:     clean,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     size,
	}
	if err := b.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", clean, err)
	}
	n, err := ioutil.Copy(b.tw, io.LimitReader(r, size), b.buf)
	if err != nil {
		return fmt.Errorf("write %s: %w", clean, err)
	}
	if n != uint64(size) { //nolint:gosec // size checked non-negative above
		return fmt.Errorf("write %s: short payload: expected %d bytes, got %d", clean, size, n)
	}
	b.bytes += n
	b.appended(clean, KindRegular)
	return nil
}

// AddBytes appends a regular file entry holding data.
func (b *Builder) AddBytes(name string, data []byte) error {
	return b.AddFile(name, int64(len(data)), bytes.NewReader(data))
}

// AddTree appends the contents of dir, walking it in lexical order.
//
// Directories and regular files are recorded with paths relative to dir;
// symbolic links are not followed and, like other special files, are
// skipped. Empty directories are preserved.
func (b *Builder) AddTree(dir string) error {
	if b.done {
		return errBuilderClosed
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return err
	}
	defer root.Close()

	return fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == "." {
			return nil
		}
		if d.IsDir() {
			return b.AddDir(path)
		}
		if !d.Type().IsRegular() {
			b.cfg.logger.Debug("skipped non-regular file", zap.String("path", path), zap.Stringer("type", d.Type()))
			return nil
		}
		return b.addTreeFile(root, path)
	})
}

func (b *Builder) addTreeFile(root *os.Root, path string) error {
	f, info, err := platform.OpenRegular(root, filepath.FromSlash(path))
	if errors.Is(err, platform.ErrSymlink) || errors.Is(err, platform.ErrNotRegular) {
		b.cfg.logger.Debug("skipped non-regular file", zap.String("path", path))
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	return b.AddFile(path, info.Size(), f)
}

// Close finalizes the archive, flushes it to stable storage and moves it
// to its final path. It returns a descriptor with the archive's digest,
// size and media type.
func (b *Builder) Close() (ocispec.Descriptor, error) {
	if b.done {
		return ocispec.Descriptor{}, errBuilderClosed
	}
	b.done = true
	tempPath := b.tmp.Name()

	if err := b.finish(); err != nil {
		_ = b.tmp.Close()        //nolint:errcheck // best-effort cleanup
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return ocispec.Descriptor{}, err
	}
	if err := b.tmp.Close(); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return ocispec.Descriptor{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tempPath, b.path); err != nil {
		_ = os.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return ocispec.Descriptor{}, fmt.Errorf("rename to %s: %w", b.path, err)
	}

	desc := ocispec.Descriptor{
		MediaType: MediaType(b.cfg.compression),
		Digest:    b.digester.Digest(),
		Size:      int64(b.counter.N), //nolint:gosec // file sizes fit in int64
		Annotations: map[string]string{
			ocispec.AnnotationTitle: filepath.Base(b.path),
		},
	}
	b.cfg.logger.Info("created archive",
		zap.String("path", b.path),
		zap.String("digest", desc.Digest.String()),
		zap.Int64("size", desc.Size),
		zap.Int("entries", b.entries),
		zap.Uint64("bytes", b.bytes),
	)
	return desc, nil
}

// finish closes the tar stream and compressor and syncs the temp file.
func (b *Builder) finish() error {
	if err := b.tw.Close(); err != nil {
		return fmt.Errorf("close tar stream: %w", err)
	}
	if err := b.enc.Close(); err != nil {
		return fmt.Errorf("close %s encoder: %w", b.cfg.compression, err)
	}
	if err := b.tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	return nil
}

// Abort discards the archive. Calling Abort after Close is a no-op.
func (b *Builder) Abort() error {
	if b.done {
		return nil
	}
	b.done = true
	_ = b.enc.Close() //nolint:errcheck // output is discarded
	_ = b.tmp.Close() //nolint:errcheck // output is discarded
	return os.Remove(b.tmp.Name())
}

func (b *Builder) appended(name string, kind EntryKind) {
	b.entries++
	b.cfg.logger.Debug("appended entry", zap.String("path", name), zap.Stringer("kind", kind))
	if b.cfg.progress != nil {
		b.cfg.progress(ProgressEvent{
			Stage:       StageArchiving,
			Path:        name,
			Kind:        kind,
			BytesDone:   b.bytes,
			EntriesDone: b.entries,
		})
	}
}

// entryName validates name with the same rules the materializer applies and
// returns its canonical slash-separated form.
func entryName(name string) (string, error) {
	if _, err := localPath(name); err != nil {
		return "", err
	}
	return pathutil.Normalize(filepath.ToSlash(name)), nil
}

package corpus

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Export reconstructs the tree stored in the archive at archivePath under
// destDir.
//
// The archive is opened first; destDir and its missing ancestors are
// created only once it is known to be readable. Directories and regular files are recreated with their relative
// paths and exact contents; every other entry kind is skipped. A later
// entry at the same path overwrites an earlier one.
//
// Export is single-pass and synchronous. The first error aborts the export
// and partially written output is left on disk; deciding whether to remove
// it is up to the caller. Every handle opened by Export is released before
// it returns.
func Export(archivePath, destDir string, opts ...ExportOption) error {
	cfg := exportConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r, err := OpenReader(archivePath, cfg.readerOpts...)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return fmt.Errorf("%w: create export dir %s: %w", ErrFilesystem, destDir, err)
	}

	log := cfg.logger.With(zap.String("archive", archivePath), zap.String("dest", destDir))
	log.Info("exporting archive", zap.Stringer("compression", r.Compression()))

	m := NewMaterializer(destDir,
		MaterializeWithLogger(log),
		MaterializeWithProgress(cfg.progress),
	)
	stats, err := m.Materialize(r)
	if err != nil {
		return err
	}

	log.Info("exported archive",
		zap.Int("dirs", stats.Dirs),
		zap.Int("files", stats.Files),
		zap.Int("skipped", stats.Skipped),
		zap.Uint64("bytes", stats.Bytes),
		zap.Uint64("compressed_bytes", r.CompressedBytes()),
	)
	return nil
}

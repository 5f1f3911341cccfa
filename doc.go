// Package corpus exports and builds corpus archives: compressed tar
// containers carrying a directory tree of fuzzing artifacts.
//
// The export pipeline is strictly sequential. [Reader] decompresses the
// archive and yields entries in stored order; [Materializer] recreates
// directories and regular files under a destination root, streaming each
// payload straight to disk. Every other entry kind (symlinks, hard links,
// devices, unknown typeflags) is skipped.
//
// # Quick Start
//
// Export an archive into a directory:
//
//	err := corpus.Export("archive/run1.corpus.tar.zst", "./out",
//	    corpus.ExportWithLogger(logger),
//	)
//
// Build an archive from a directory:
//
//	b, err := corpus.CreateArchive("archive", "run1")
//	if err != nil {
//	    return err
//	}
//	if err := b.AddTree("./corpus"); err != nil {
//	    b.Abort()
//	    return err
//	}
//	desc, err := b.Close()
//
// # Path safety
//
// Entry paths are normalized and must stay inside the destination root.
// Absolute paths and paths that climb out of the root fail with
// [ErrUnsafePath]. All filesystem writes go through an [os.Root] opened on
// the destination.
//
// # Errors
//
// Failures are classified with sentinel errors ([ErrOpen], [ErrDecode],
// [ErrEntryRead], [ErrFilesystem], [ErrUnsafePath]) and wrapped with the
// offending path; use [errors.Is] to match them. Export stops at the first
// error and leaves partially materialized output in place.
package corpus

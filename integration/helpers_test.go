//go:build integration

package integration

import (
	"bytes"
	"crypto/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/corpus"
	"github.com/meigma/corpus/internal/testutil"
)

var compressions = []corpus.Compression{
	corpus.CompressionZstd,
	corpus.CompressionGzip,
	corpus.CompressionLZ4,
	corpus.CompressionNone,
}

// --- Test Data ---

// smallCorpus is a fuzzer output directory with a handful of seeds.
var smallCorpus = map[string][]byte{
	"queue/":                     nil,
	"queue/id:000000,orig:seed1": []byte("GIF89a\x01\x00\x01\x00"),
	"queue/id:000001,src:000000": []byte("GIF89a\xff\xff"),
	"queue/.state/":              nil,
	"crashes/":                   nil,
	"hangs/":                     nil,
	"fuzzer_stats":               []byte("start_time        : 1700000000\nexecs_done        : 4242\n"),
	"plot_data":                  []byte("# relative_time, cycles_done, cur_item\n"),
}

// largeCorpus returns a tree whose payloads span several compression
// blocks and copy buffers.
func largeCorpus() map[string][]byte {
	return map[string][]byte{
		"inputs/":           nil,
		"inputs/random.bin": makeRandomContent(3 << 20),
		"inputs/zeros.bin":  make([]byte, 1<<20),
		"inputs/text.txt":   makeCompressibleContent(700 << 10),
		"inputs/empty":      {},
		"state/snapshot/":   nil,
	}
}

func makeCompressibleContent(size int) []byte {
	return bytes.Repeat([]byte("corpus entry "), size/13+1)[:size]
}

func makeRandomContent(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}

// --- Helpers ---

// buildArchive archives src into dir and returns the archive path.
func buildArchive(tb testing.TB, dir, name, src string, c corpus.Compression) string {
	tb.Helper()

	b, err := corpus.CreateArchive(dir, name, corpus.BuilderWithCompression(c))
	require.NoError(tb, err, "CreateArchive")
	require.NoError(tb, b.AddTree(src), "AddTree")
	_, err = b.Close()
	require.NoError(tb, err, "Close")
	return b.Path()
}

// roundTrip writes tree to disk, archives it and exports it to a fresh
// directory, returning the export directory.
func roundTrip(tb testing.TB, tree map[string][]byte, c corpus.Compression) string {
	tb.Helper()

	base := tb.TempDir()
	src := filepath.Join(base, "src")
	testutil.WriteTree(tb, src, tree)

	archivePath := buildArchive(tb, filepath.Join(base, "archives"), "run", src, c)
	dest := filepath.Join(base, "dest")
	require.NoError(tb, corpus.Export(archivePath, dest), "Export")
	return dest
}

// requireTool skips the test when name is not on PATH.
func requireTool(tb testing.TB, name string) string {
	tb.Helper()

	if os.Getenv("SKIP_TOOL_TESTS") == "1" {
		tb.Skip("SKIP_TOOL_TESTS is set")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		tb.Skipf("%s not installed", name)
	}
	return path
}

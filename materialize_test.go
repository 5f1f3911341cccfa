package corpus

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meigma/corpus/internal/testutil"
)

func dirEntry(path string) testutil.MockEntry {
	return testutil.MockEntry{Path: path, Kind: KindDirectory}
}

func fileEntry(path, data string) testutil.MockEntry {
	return testutil.MockEntry{Path: path, Kind: KindRegular, Data: []byte(data)}
}

func otherEntry(path, data string) testutil.MockEntry {
	return testutil.MockEntry{Path: path, Kind: KindOther, Data: []byte(data)}
}

func materialize(t *testing.T, dest string, entries ...testutil.MockEntry) (Stats, error) {
	t.Helper()
	return NewMaterializer(dest).Materialize(testutil.NewMockEntrySource(entries...))
}

func TestMaterialize_Scenario(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	stats, err := materialize(t, dest, dirEntry("a"), fileEntry("a/f.txt", "hello"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Dirs: 1, Files: 1, Bytes: 5}, stats)

	assert.Equal(t, map[string][]byte{
		"a/":      nil,
		"a/f.txt": []byte("hello"),
	}, testutil.ReadTree(t, dest))

	_, err = materialize(t, dest, fileEntry("a/f.txt", "world"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dest, "a", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))
}

func TestMaterialize_CreatesParentsOnDemand(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "x", "y")
	_, err := materialize(t, dest, fileEntry("deep/er/seed.bin", "\x00\x01\x02"))
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"deep/":            nil,
		"deep/er/":         nil,
		"deep/er/seed.bin": []byte("\x00\x01\x02"),
	}, testutil.ReadTree(t, dest))
}

func TestMaterialize_EmptyFile(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	_, err := materialize(t, dest, fileEntry("empty", ""))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, "empty"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Zero(t, info.Size())
}

func TestMaterialize_DirectoryIsIdempotent(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	_, err := materialize(t, dest, dirEntry("a"), dirEntry("a"), dirEntry("."), dirEntry("a/b"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a/": nil, "a/b/": nil}, testutil.ReadTree(t, dest))
}

func TestMaterialize_LastEntryWins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []testutil.MockEntry
		want    string
	}{
		{
			name:    "longer then shorter",
			entries: []testutil.MockEntry{fileEntry("f", "a much longer payload"), fileEntry("f", "short")},
			want:    "short",
		},
		{
			name:    "shorter then longer",
			entries: []testutil.MockEntry{fileEntry("f", "short"), fileEntry("f", "a much longer payload")},
			want:    "a much longer payload",
		},
		{
			name:    "unrelated entries in between",
			entries: []testutil.MockEntry{fileEntry("f", "one"), fileEntry("g", "x"), dirEntry("d"), fileEntry("f", "two")},
			want:    "two",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dest := t.TempDir()
			_, err := materialize(t, dest, tt.entries...)
			require.NoError(t, err)
			data, err := os.ReadFile(filepath.Join(dest, "f"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestMaterialize_SkipsOtherKinds(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	src := testutil.NewMockEntrySource(
		otherEntry("link", ""),
		otherEntry("device", "payload that must not be written"),
		fileEntry("after", "still processed"),
	)
	stats, err := NewMaterializer(dest).Materialize(src)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, map[string][]byte{"after": []byte("still processed")}, testutil.ReadTree(t, dest))
	// The skipped payload was never read by the materializer.
	assert.Equal(t, len("payload that must not be written"), src.Drained)
}

func TestMaterialize_SkippedPathsAreNotValidated(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	_, err := materialize(t, dest, otherEntry("../outside-link", ""), fileEntry("ok", "1"))
	require.NoError(t, err)
}

func TestMaterialize_MissingPath(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	src := testutil.NewMockEntrySource(
		fileEntry("before", "kept"),
		fileEntry("", "no path"),
		fileEntry("after", "never written"),
	)
	_, err := NewMaterializer(dest).Materialize(src)
	require.ErrorIs(t, err, ErrEntryRead)

	// No rollback: earlier output stays, later entries are not consumed.
	assert.Equal(t, map[string][]byte{"before": []byte("kept")}, testutil.ReadTree(t, dest))
	assert.Equal(t, 1, src.Remaining())
}

func TestMaterialize_BlankNames(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("windows strips trailing spaces from file names")
	}

	dest := t.TempDir()
	stats, err := materialize(t, dest, fileEntry(" ", "hi"), dirEntry("  "), fileEntry("  / x ", "nested"))
	require.NoError(t, err)
	assert.Equal(t, Stats{Dirs: 1, Files: 2, Bytes: 8}, stats)
	assert.Equal(t, map[string][]byte{
		" ":      []byte("hi"),
		"  /":    nil,
		"  / x ": []byte("nested"),
	}, testutil.ReadTree(t, dest))
}

func TestMaterialize_UnsafePaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry testutil.MockEntry
	}{
		{"file climbing out", fileEntry("../escape.txt", "x")},
		{"nested climb", fileEntry("a/../../escape.txt", "x")},
		{"absolute file", fileEntry("/tmp/escape.txt", "x")},
		{"dir climbing out", dirEntry("../escape-dir")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			parent := t.TempDir()
			dest := filepath.Join(parent, "dest")

			_, err := materialize(t, dest, tt.entry)
			require.ErrorIs(t, err, ErrUnsafePath)

			assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))
			assert.NoDirExists(t, filepath.Join(parent, "escape-dir"))
			assert.Empty(t, testutil.ReadTree(t, dest))
		})
	}
}

func TestMaterialize_InnerDotDotStaysInside(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	_, err := materialize(t, dest, fileEntry("a/../b.txt", "inside"))
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"b.txt": []byte("inside")}, testutil.ReadTree(t, dest))
}

func TestMaterialize_SourceErrors(t *testing.T) {
	t.Parallel()

	t.Run("unclassified error becomes entry read error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		_, err := materialize(t, t.TempDir(), testutil.MockEntry{Err: boom})
		require.ErrorIs(t, err, ErrEntryRead)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("decode error keeps its class", func(t *testing.T) {
		t.Parallel()
		decodeErr := fmt.Errorf("%w: bad frame", ErrDecode)
		_, err := materialize(t, t.TempDir(), testutil.MockEntry{Err: decodeErr})
		require.ErrorIs(t, err, ErrDecode)
		assert.NotErrorIs(t, err, ErrEntryRead)
	})

	t.Run("payload error leaves partial file", func(t *testing.T) {
		t.Parallel()
		dest := t.TempDir()
		boom := errors.New("stream cut")
		entry := fileEntry("partial", "first half")
		entry.PayloadErr = boom
		_, err := materialize(t, dest, entry)
		require.ErrorIs(t, err, ErrEntryRead)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "partial")

		data, readErr := os.ReadFile(filepath.Join(dest, "partial"))
		require.NoError(t, readErr)
		assert.Equal(t, "first half", string(data))
	})
}

func TestMaterialize_FilesystemErrors(t *testing.T) {
	t.Parallel()

	t.Run("file over existing directory", func(t *testing.T) {
		t.Parallel()
		_, err := materialize(t, t.TempDir(), dirEntry("a"), fileEntry("a", "x"))
		require.ErrorIs(t, err, ErrFilesystem)
		assert.Contains(t, err.Error(), "a")
	})

	t.Run("file under a file", func(t *testing.T) {
		t.Parallel()
		_, err := materialize(t, t.TempDir(), fileEntry("a", "x"), fileEntry("a/b", "y"))
		require.ErrorIs(t, err, ErrFilesystem)
		assert.Contains(t, err.Error(), "mkdir a")
	})

	t.Run("directory over existing file", func(t *testing.T) {
		t.Parallel()
		_, err := materialize(t, t.TempDir(), fileEntry("a", "x"), dirEntry("a"))
		require.ErrorIs(t, err, ErrFilesystem)
	})

	t.Run("destination is a file", func(t *testing.T) {
		t.Parallel()
		dest := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(dest, nil, 0o600))
		_, err := materialize(t, dest, fileEntry("a", "x"))
		require.ErrorIs(t, err, ErrFilesystem)
	})
}

func TestMaterialize_LeavesUnrelatedContent(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	testutil.WriteTree(t, dest, map[string][]byte{
		"keep/me.txt": []byte("untouched"),
		"a/f.txt":     []byte("old"),
	})

	_, err := materialize(t, dest, fileEntry("a/f.txt", "new"))
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"a/":          nil,
		"a/f.txt":     []byte("new"),
		"keep/":       nil,
		"keep/me.txt": []byte("untouched"),
	}, testutil.ReadTree(t, dest))
}

func TestMaterialize_Progress(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	m := NewMaterializer(t.TempDir(), MaterializeWithProgress(func(e ProgressEvent) {
		events = append(events, e)
	}))
	_, err := m.Materialize(testutil.NewMockEntrySource(
		dirEntry("d"),
		fileEntry("d/one", "1"),
		otherEntry("d/link", ""),
		fileEntry("d/two", "22"),
	))
	require.NoError(t, err)

	require.Len(t, events, 4)
	for i, e := range events {
		assert.Equal(t, StageExtracting, e.Stage)
		assert.Equal(t, i+1, e.EntriesDone)
	}
	assert.Equal(t, "d/two", events[3].Path)
	assert.Equal(t, KindRegular, events[3].Kind)
	assert.Equal(t, uint64(3), events[3].BytesDone)
}

func TestMaterialize_Logging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	m := NewMaterializer(t.TempDir(), MaterializeWithLogger(zap.New(core)))
	_, err := m.Materialize(testutil.NewMockEntrySource(
		dirEntry("d"),
		fileEntry("d/f", "abc"),
		otherEntry("d/l", ""),
	))
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("created directory").Len())
	wrote := logs.FilterMessage("wrote file").All()
	require.Len(t, wrote, 1)
	assert.Equal(t, "d/f", wrote[0].ContextMap()["path"])
	assert.Equal(t, uint64(3), wrote[0].ContextMap()["bytes"])
	assert.Equal(t, 1, logs.FilterMessage("skipped entry").Len())
}

func TestMaterialize_NilLogger(t *testing.T) {
	t.Parallel()

	m := NewMaterializer(t.TempDir(), MaterializeWithLogger(nil))
	_, err := m.Materialize(testutil.NewMockEntrySource(fileEntry("f", "x")))
	require.NoError(t, err)
}

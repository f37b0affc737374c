package harvest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	require.NoError(t, os.WriteFile(path, []byte("pre"), 0o644))

	s := &FileSink{Path: path}
	require.NoError(t, s.Open())
	require.NoError(t, s.Write([]byte{1, 2, 3}))
	require.NoError(t, s.Write([]byte{4, 5}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{'p', 'r', 'e', 1, 2, 3, 4, 5}, data, "the destination accumulates, never truncates")
}

func TestFileSinkOpenFailure(t *testing.T) {
	s := &FileSink{Path: filepath.Join(t.TempDir(), "missing", "out.bin")}
	err := s.Open()
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestFileSinkDoubleOpen(t *testing.T) {
	s := &FileSink{Path: filepath.Join(t.TempDir(), "out.bin")}
	require.NoError(t, s.Open())
	assert.ErrorIs(t, s.Open(), ErrOpenFailed)
	require.NoError(t, s.Close())
}

func TestFileSinkWriteWithoutOpen(t *testing.T) {
	s := &FileSink{}
	assert.ErrorIs(t, s.Write([]byte{1}), ErrWriteFailed)
}

func TestFileSinkCloseIdempotent(t *testing.T) {
	s := &FileSink{Path: filepath.Join(t.TempDir(), "out.bin")}
	require.NoError(t, s.Open())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestFileSinkStdoutByDefault(t *testing.T) {
	s := &FileSink{}
	require.NoError(t, s.Open())
	require.NoError(t, s.Close())
	// Closing the default sink must leave the process's stdout usable.
	_, err := os.Stdout.Stat()
	assert.NoError(t, err)
}

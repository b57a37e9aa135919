package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "level %q", tt.input)
	}
}

func TestNewWithFileDirWritesLog(t *testing.T) {
	dir := t.TempDir()
	log := New(Config{Level: zerolog.InfoLevel, Format: "json", FileDir: dir})

	log.Info().Str("component", "test").Msg("hello")

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestRotatorRotatesAndCompresses(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRotator(dir, 1, 5, 30)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	_, err = r.Write(chunk)
	require.NoError(t, err)
	_, err = r.Write(chunk)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var backups int
	for _, entry := range entries {
		if entry.Name() == logFileName {
			continue
		}
		assert.Contains(t, entry.Name(), logFileName+".")
		assert.Contains(t, entry.Name(), ".gz")
		backups++
	}
	assert.Equal(t, 1, backups)

	info, err := os.Stat(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Equal(t, int64(len(chunk)), info.Size())
}

func TestRotatorPrune(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRotator(dir, 10, 1, 1)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	stale := filepath.Join(dir, logFileName+".2020-01-01-00-00-00.gz")
	older := filepath.Join(dir, logFileName+".a.gz")
	newer := filepath.Join(dir, logFileName+".b.gz")
	for _, path := range []string{stale, older, newer} {
		require.NoError(t, os.WriteFile(path, []byte("backup"), 0o600))
	}
	require.NoError(t, os.Chtimes(stale, time.Now().Add(-48*time.Hour), time.Now().Add(-48*time.Hour)))
	require.NoError(t, os.Chtimes(older, time.Now().Add(-2*time.Hour), time.Now().Add(-2*time.Hour)))

	r.prune()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "backup past max age must be removed")
	_, err = os.Stat(older)
	assert.True(t, os.IsNotExist(err), "backup count must be capped")
	_, err = os.Stat(newer)
	assert.NoError(t, err, "newest backup survives pruning")
}

func TestNewRotatorMissingDirFails(t *testing.T) {
	_, err := NewRotator(filepath.Join(t.TempDir(), "nope"), 1, 1, 1)
	require.Error(t, err)
}

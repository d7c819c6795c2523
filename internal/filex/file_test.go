package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	base := t.TempDir()
	want := filepath.Join(base, "a", "b", "c")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_ExistingIsFine(t *testing.T) {
	base := t.TempDir()

	_, err := EnsureDir(base)
	require.NoError(t, err)
}

func TestEnsureSubDir(t *testing.T) {
	base := t.TempDir()

	got, err := EnsureSubDir(base, "quiz_cache")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "quiz_cache"), got)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

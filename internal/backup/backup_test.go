package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreserveCreatesDirLazily(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	assert.Empty(t, m.Dir())

	err := m.Preserve("a.txt", true, []byte("original"))
	require.NoError(t, err)
	assert.NotEmpty(t, m.Dir())

	data, err := os.ReadFile(filepath.Join(m.Dir(), "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}

func TestPreserveNoOpForNonExistentFile(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	err := m.Preserve("missing.txt", false, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Dir(), "backup directory must not be created when nothing is mutated")
}

func TestPreserveNestedPath(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	err := m.Preserve("src/nested/a.go", true, []byte("pkg a"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(m.Dir(), "src", "nested", "a.go"))
	require.NoError(t, err)
	assert.Equal(t, "pkg a", string(data))
}

func TestPreserveReusesSameDirectoryAcrossCalls(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	require.NoError(t, m.Preserve("a.txt", true, []byte("a")))
	dir1 := m.Dir()
	require.NoError(t, m.Preserve("b.txt", true, []byte("b")))
	assert.Equal(t, dir1, m.Dir())
}

func TestBackupDirNameHasTimestampPrefix(t *testing.T) {
	root := t.TempDir()
	m := New(root)
	require.NoError(t, m.Preserve("a.txt", true, []byte("a")))
	assert.Contains(t, filepath.Base(m.Dir()), dirPrefix)
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/applydiff/pkg/applydiff"
)

func TestSuggestPathFindsClosestMatch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# hi\n"), 0o644))

	got := suggestPath(root, "src/main.g")
	assert.Equal(t, filepath.Join("src", "main.go"), got)
}

func TestSuggestPathEmptyTree(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "", suggestPath(root, "anything.go"))
}

func TestSuggestionForSkipsExactExistingPath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	got := suggestionFor(root, applydiff.Outcome{File: "a.txt", Status: "Skipped-NoMatch"})
	assert.Equal(t, "", got)
}

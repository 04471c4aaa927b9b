package applydiff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agilira/applydiff/internal/elog"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

// Fast-path replacement on a 50k-line file.
func TestScenarioFastPathLargeFile(t *testing.T) {
	root := t.TempDir()
	var sb strings.Builder
	for i := 1; i <= 50000; i++ {
		fmt.Fprintf(&sb, "line_%d\n", i)
	}
	writeTree(t, root, map[string]string{"big.txt": sb.String()})

	sink := &elog.MemorySink{}
	SetLogWriter(sink)
	defer SetLogWriter(os.Stderr)

	// The blank line before each marker makes from/to end in "\n", so the
	// needle is "line_1\n" and does not also occur inside line_10, line_11, ...
	patch := ">>> file: big.txt\n--- from\nline_1\n\n--- to\nline_1_patched\n\n<<<\n"
	report, err := Apply(root, []byte(patch))
	require.NoError(t, err)

	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 0, report.Fail)
	assert.True(t, sink.HasAction(elog.ActionFastPathMatch))

	data, err := os.ReadFile(filepath.Join(root, "big.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "line_1_patched\n"))
}

// Two identical sections make the patch ambiguous.
func TestScenarioSimpleAmbiguity(t *testing.T) {
	root := t.TempDir()
	content := "id: A\nstart\n  marker: section\n  value: target\nend\n\n" +
		"id: B\nstart\n  marker: section\n  value: target\nend\n"
	writeTree(t, root, map[string]string{"doc.txt": content})

	sink := &elog.MemorySink{}
	SetLogWriter(sink)
	defer SetLogWriter(os.Stderr)

	patch := ">>> file: doc.txt | fuzz=0.90\n--- from\nstart\n  marker: section\n  value: target\nend\n--- to\nreplaced\n<<<\n"
	report, err := Apply(root, []byte(patch))
	require.NoError(t, err)

	assert.Equal(t, 0, report.OK)
	assert.Equal(t, 1, report.Fail)
	assert.Equal(t, "Skipped-Ambiguous", report.Outcomes[0].Status)
	assert.True(t, sink.HasAction(elog.ActionAmbiguousMatch))

	data, err := os.ReadFile(filepath.Join(root, "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

// A patch targeting a path outside the project root is rejected.
func TestScenarioPathEscape(t *testing.T) {
	root := t.TempDir()
	sink := &elog.MemorySink{}
	SetLogWriter(sink)
	defer SetLogWriter(os.Stderr)

	patch := ">>> file: ../escape.txt\n--- from\n--- to\npwned\n<<<\n"
	report, err := Apply(root, []byte(patch))
	require.NoError(t, err)

	assert.Equal(t, 0, report.OK)
	assert.Equal(t, 1, report.Fail)
	assert.Equal(t, "Skipped-PathEscape", report.Outcomes[0].Status)
	assert.True(t, sink.HasAction(elog.ActionPathEscape))

	_, statErr := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

// Appending to a file that does not yet exist creates it with no leading newline.
func TestScenarioAppendCreate(t *testing.T) {
	root := t.TempDir()
	patch := ">>> file: new/deep/file.txt\n--- from\n--- to\nCreated via append-create\n\n<<<\n"
	report, err := Apply(root, []byte(patch))
	require.NoError(t, err)

	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 0, report.Fail)

	data, err := os.ReadFile(filepath.Join(root, "new/deep/file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Created via append-create\n", string(data))
}

// A file's existing CRLF line endings are preserved on replacement.
func TestScenarioCRLFPreservation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"w.txt": "a\r\nb\r\nc\r\n"})

	patch := ">>> file: w.txt\n--- from\nb\n--- to\nB\n<<<\n"
	report, err := Apply(root, []byte(patch))
	require.NoError(t, err)
	assert.Equal(t, 1, report.OK)

	data, err := os.ReadFile(filepath.Join(root, "w.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\r\nB\r\nc\r\n", string(data))
}

// A three-block patch applies the clean block and skips the other two.
func TestScenarioPartialApply(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.txt":  "keep this\n",
		"amb.txt": "start\nmarker\nend\n\nstart\nmarker\nend\n",
	})

	patch := ">>> file: ok.txt\n--- from\nkeep this\n--- to\nchanged this\n<<<\n" +
		">>> file: amb.txt | fuzz=0.5\n--- from\nstart\nmarker\nend\n--- to\nreplaced\n<<<\n" +
		">>> file: ../escape.txt\n--- from\n--- to\nx\n<<<\n"

	report, err := Apply(root, []byte(patch))
	require.NoError(t, err)

	assert.Equal(t, 1, report.OK)
	assert.Equal(t, 2, report.Fail)
	assert.Equal(t, "Applied", report.Outcomes[0].Status)
	assert.Equal(t, "Skipped-Ambiguous", report.Outcomes[1].Status)
	assert.Equal(t, "Skipped-PathEscape", report.Outcomes[2].Status)
	assert.NotEmpty(t, report.BackupDir)

	backedUp, err := os.ReadFile(filepath.Join(report.BackupDir, "ok.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep this\n", string(backedUp))

	_, err = os.Stat(filepath.Join(report.BackupDir, "amb.txt"))
	assert.True(t, os.IsNotExist(err), "only the mutated file is backed up")

	assert.Contains(t, report.Diff, "-keep this")
	assert.Contains(t, report.Diff, "+changed this")
	assert.NotContains(t, report.Diff, "marker")
}

func TestPreviewNeverWritesToDisk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello\n"})

	patch := ">>> file: a.txt\n--- from\nhello\n--- to\ngoodbye\n<<<\n"
	report, err := Preview(root, []byte(patch))
	require.NoError(t, err)

	assert.Equal(t, 1, report.OK)
	assert.Empty(t, report.BackupDir)

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestPreviewAndApplyAgreeOnOutcomes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello\n"})
	patch := []byte(">>> file: a.txt\n--- from\nhello\n--- to\ngoodbye\n<<<\n")

	preview, err := Preview(root, patch)
	require.NoError(t, err)

	root2 := t.TempDir()
	writeTree(t, root2, map[string]string{"a.txt": "hello\n"})
	apply, err := Apply(root2, patch)
	require.NoError(t, err)

	assert.Equal(t, preview.OK, apply.OK)
	assert.Equal(t, preview.Fail, apply.Fail)
	assert.Equal(t, preview.Outcomes[0].Status, apply.Outcomes[0].Status)
}

func TestMalformedPatchReturnsFatalError(t *testing.T) {
	root := t.TempDir()
	_, err := Apply(root, []byte(">>> file: a.txt\n--- from\nx\n--- to\ny\n"))
	require.Error(t, err)
	assert.True(t, ParseError(err))
}

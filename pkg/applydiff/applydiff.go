package applydiff

import (
	"io"
	"os"
	"sync"

	"github.com/agilira/applydiff/internal/applier"
	"github.com/agilira/applydiff/internal/backup"
	"github.com/agilira/applydiff/internal/elog"
	"github.com/agilira/applydiff/internal/enginerr"
	"github.com/agilira/applydiff/internal/patchparse"
	"github.com/agilira/applydiff/internal/udiff"
)

var (
	logMu     sync.Mutex
	logWriter io.Writer = os.Stderr
)

// SetLogWriter redirects the engine's structured event stream. Tests
// typically point it at an *elog.MemorySink; production callers leave it
// at the default (stderr) or point it at their own log file.
func SetLogWriter(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logWriter = w
}

func currentLogWriter() io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	return logWriter
}

// Preview parses and simulates patch against root without writing anything.
// The returned Report's ok/fail counts and per-block statuses are
// byte-identical to what Apply would produce on the same starting tree.
func Preview(root string, patch []byte) (*Report, error) {
	return run(root, patch, false)
}

// Apply parses, simulates, and persists patch against root, backing up
// every file it mutates before the first write.
func Apply(root string, patch []byte) (*Report, error) {
	return run(root, patch, true)
}

func run(root string, patch []byte, persist bool) (*Report, error) {
	log := elog.New(currentLogWriter())

	blocks, err := patchparse.Parse(patch)
	if err != nil {
		return nil, err
	}

	var bm *backup.Manager
	if persist {
		bm = backup.New(root)
	}
	app := applier.New(root, log, persist, bm)

	outcomes := make([]Outcome, 0, len(blocks))
	ok, fail := 0, 0
	for _, block := range blocks {
		result := app.ApplyBlock(block)
		outcomes = append(outcomes, convertOutcome(result))
		if result.Status == applier.StatusApplied {
			ok++
		} else {
			fail++
		}
	}

	report := &Report{
		OK:       ok,
		Fail:     fail,
		Diff:     combinedDiff(app),
		Outcomes: outcomes,
	}
	if persist && bm.Dir() != "" {
		report.BackupDir = bm.Dir()
	}
	return report, nil
}

// combinedDiff concatenates the per-file unified diff of every touched file,
// in first-touch order. Files whose buffer never changed (every block
// targeting them was skipped) contribute an empty diff and are omitted.
func combinedDiff(app *applier.Applier) string {
	var out string
	for _, rel := range app.TouchedFiles() {
		original, _ := app.FileOriginal(rel)
		current := app.FileCurrent(rel)
		diff := udiff.File(rel, original, rel, current)
		out += diff
	}
	return out
}

// ParseError reports whether err is a fatal parse error produced by Preview
// or Apply, as opposed to an unexpected internal error.
func ParseError(err error) bool {
	ee, ok := err.(*enginerr.EngineError)
	return ok && (ee.Code() == enginerr.CodeParseMalformed || ee.Code() == enginerr.CodeParseLimitExceeded)
}

// Package applier orchestrates one patch block at a time against an
// in-memory file buffer: path sandboxing, matching, splicing, end-of-line
// harmonization, and (for apply invocations) backup and atomic persistence.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package applier

import (
	"os"
	"path/filepath"

	"github.com/agilira/applydiff/internal/backup"
	"github.com/agilira/applydiff/internal/elog"
	"github.com/agilira/applydiff/internal/enginerr"
	"github.com/agilira/applydiff/internal/matcher"
	"github.com/agilira/applydiff/internal/patchparse"
	"github.com/agilira/applydiff/internal/sandbox"
)

// MaxFileSize is the per-file size guard.
const MaxFileSize = 10 * 1024 * 1024

// fileState tracks one file's original and current bytes across the blocks
// of a single preview/apply invocation.
type fileState struct {
	existedAtStart bool
	original       []byte
	buffer         []byte
	backedUp       bool
}

// Applier runs blocks sequentially against a project root. When persist is
// true, successful blocks are backed up and written to disk; otherwise the
// run is a pure simulation (preview).
type Applier struct {
	root      string
	log       elog.Logger
	persist   bool
	backupMgr *backup.Manager

	files map[string]*fileState
	order []string
}

// New returns an Applier. backupMgr may be nil when persist is false.
func New(root string, log elog.Logger, persist bool, backupMgr *backup.Manager) *Applier {
	return &Applier{
		root:      root,
		log:       log,
		persist:   persist,
		backupMgr: backupMgr,
		files:     make(map[string]*fileState),
	}
}

// TouchedFiles returns the relative paths touched by at least one block, in
// first-touch order.
func (a *Applier) TouchedFiles() []string {
	return append([]string(nil), a.order...)
}

// FileOriginal returns the pre-invocation bytes of rel, and whether it
// existed before the invocation began.
func (a *Applier) FileOriginal(rel string) ([]byte, bool) {
	fs, ok := a.files[rel]
	if !ok {
		return nil, false
	}
	// existedAtStart is set by commit once a block creates the file, so the
	// pre-invocation answer comes from original, which only loadFile sets.
	return fs.original, fs.original != nil
}

// FileCurrent returns the current in-memory buffer for rel.
func (a *Applier) FileCurrent(rel string) []byte {
	fs, ok := a.files[rel]
	if !ok {
		return nil
	}
	return fs.buffer
}

// ApplyBlock runs the full state machine for one block.
func (a *Applier) ApplyBlock(block patchparse.Block) Outcome {
	full, err := sandbox.Resolve(a.root, block.FilePath)
	if err != nil {
		a.log.Warn("applier", elog.ActionPathEscape, "rejected path outside project root",
			elog.F("file", block.FilePath))
		return Outcome{Index: block.Index, FilePath: block.FilePath,
			Status: StatusSkippedPathEscape, Detail: err.Error()}
	}

	fs, err := a.loadFile(block.FilePath, full)
	if err != nil {
		return Outcome{Index: block.Index, FilePath: block.FilePath,
			Status: StatusSkippedIOError, Detail: err.Error()}
	}

	if block.Mode == patchparse.ModeReplace {
		return a.applyReplace(block, full, fs)
	}

	if block.From == "" {
		return a.applyAppendCreate(block, full, fs)
	}

	return a.applyPatch(block, full, fs)
}

func (a *Applier) applyReplace(block patchparse.Block, full string, fs *fileState) Outcome {
	fs.buffer = []byte(block.To)
	return a.commit(block, full, fs)
}

func (a *Applier) applyAppendCreate(block patchparse.Block, full string, fs *fileState) Outcome {
	if !fs.existedAtStart || len(fs.buffer) == 0 {
		fs.buffer = []byte(block.To)
		return a.commit(block, full, fs)
	}

	dominant := dominantEOL(fs.buffer)
	harmonized := harmonizeEOL(block.To, dominant)

	newBuffer := append([]byte(nil), fs.buffer...)
	if !endsWithNewline(newBuffer) && harmonized != "" {
		newBuffer = append(newBuffer, []byte(dominant)...)
	}
	newBuffer = append(newBuffer, harmonized...)
	fs.buffer = newBuffer

	return a.commit(block, full, fs)
}

func (a *Applier) applyPatch(block patchparse.Block, full string, fs *fileState) Outcome {
	if !fs.existedAtStart {
		return Outcome{Index: block.Index, FilePath: block.FilePath,
			Status: StatusSkippedNoMatch, Detail: "target file does not exist"}
	}

	result := matcher.Match(a.log, string(fs.buffer), block.From, block.Fuzz)

	switch result.Status {
	case matcher.StatusNoMatch:
		return Outcome{Index: block.Index, FilePath: block.FilePath,
			Status: StatusSkippedNoMatch, Detail: "no sufficiently similar region found",
			BestScore: score(result.BestScore)}
	case matcher.StatusAmbiguous:
		return Outcome{Index: block.Index, FilePath: block.FilePath,
			Status: StatusSkippedAmbiguous, Detail: "more than one equally plausible region found",
			BestScore: score(result.BestScore), SecondScore: score(result.SecondScore)}
	}

	region := fs.buffer[result.ByteStart:result.ByteEnd]
	dominant := dominantEOL(region)
	harmonized := harmonizeEOL(block.To, dominant)

	newBuffer := make([]byte, 0, len(fs.buffer)-len(region)+len(harmonized))
	newBuffer = append(newBuffer, fs.buffer[:result.ByteStart]...)
	newBuffer = append(newBuffer, harmonized...)
	newBuffer = append(newBuffer, fs.buffer[result.ByteEnd:]...)
	fs.buffer = newBuffer

	outcome := a.commit(block, full, fs)
	if outcome.Status == StatusApplied {
		outcome.BestScore = score(result.BestScore)
		if result.Status == matcher.StatusFuzzy {
			outcome.SecondScore = score(result.SecondScore)
		}
	}
	return outcome
}

// commit backs up (if persisting) and writes the current buffer, then
// returns the Applied outcome, or an IOError outcome on failure.
func (a *Applier) commit(block patchparse.Block, full string, fs *fileState) Outcome {
	if a.persist {
		if !fs.backedUp {
			if err := a.backupMgr.Preserve(block.FilePath, fs.existedAtStart, fs.original); err != nil {
				return Outcome{Index: block.Index, FilePath: block.FilePath,
					Status: StatusSkippedIOError, Detail: err.Error()}
			}
			fs.backedUp = true
		}
		if err := writeAtomic(full, fs.buffer); err != nil {
			return Outcome{Index: block.Index, FilePath: block.FilePath,
				Status: StatusSkippedIOError, Detail: err.Error()}
		}
	}
	fs.existedAtStart = true

	return Outcome{Index: block.Index, FilePath: block.FilePath, Status: StatusApplied,
		Detail: "applied"}
}

// loadFile returns the cached fileState for rel, reading it from disk on
// first reference within this invocation.
func (a *Applier) loadFile(rel, full string) (*fileState, error) {
	if fs, ok := a.files[rel]; ok {
		return fs, nil
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			fs := &fileState{existedAtStart: false}
			a.files[rel] = fs
			a.order = append(a.order, rel)
			return fs, nil
		}
		return nil, enginerr.FileIO(rel, "could not stat file: "+err.Error())
	}
	if info.IsDir() {
		return nil, enginerr.FileIO(rel, "path refers to a directory")
	}
	if info.Size() > MaxFileSize {
		return nil, enginerr.FileTooLarge(rel, "file exceeds the 10MB engine limit")
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, enginerr.FileIO(rel, "could not read file: "+err.Error())
	}

	fs := &fileState{existedAtStart: true, original: data, buffer: append([]byte(nil), data...)}
	a.files[rel] = fs
	a.order = append(a.order, rel)
	return fs, nil
}

// writeAtomic writes data to a temp file in dir's directory, then renames it
// over path, so a crash mid-write never corrupts the original.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return enginerr.FileIO(path, "could not create parent directory: "+err.Error())
	}

	tmp, err := os.CreateTemp(dir, ".applydiff-tmp-*")
	if err != nil {
		return enginerr.FileIO(path, "could not create temp file: "+err.Error())
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return enginerr.FileIO(path, "could not write temp file: "+err.Error())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return enginerr.FileIO(path, "could not close temp file: "+err.Error())
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return enginerr.FileIO(path, "could not rename temp file into place: "+err.Error())
	}
	return nil
}

// Package backup preserves pre-mutation file bytes alongside the project
// root before the applier writes anything back to disk.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package backup

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	timecache "github.com/agilira/go-timecache"
	"golang.org/x/crypto/blake2b"

	"github.com/agilira/applydiff/internal/enginerr"
)

const dirPrefix = ".applydiff_backup_"

// Manager lazily creates one timestamped backup directory per invocation and
// copies pre-image bytes into it the first time each file is mutated.
type Manager struct {
	root string

	mu      sync.Mutex
	dir     string
	created bool
}

// New returns a Manager rooted at root. No directory is created until the
// first call to Preserve.
func New(root string) *Manager {
	return &Manager{root: root}
}

// Dir returns the backup directory path; it never creates the directory
// itself (Preserve does). An empty string is returned if no file has been
// preserved yet.
func (m *Manager) Dir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dir
}

// Preserve copies the current bytes of rel (relative to root) into the
// backup directory before the caller mutates it. existed reports whether
// the file exists in the working tree; when it does not, the absence
// itself is the pre-image and no bytes are copied. A block that only
// creates a file (existed false) therefore never causes a backup
// directory to be created, so a fully create-only apply reports an empty
// BackupDir even though it did mutate the tree.
func (m *Manager) Preserve(rel string, existed bool, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !existed {
		return nil
	}

	if !m.created {
		dir, err := m.newBackupDir()
		if err != nil {
			return enginerr.BackupFailure(rel, "could not create backup directory: "+err.Error())
		}
		m.dir = dir
		m.created = true
	}

	dest := filepath.Join(m.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return enginerr.BackupFailure(rel, "could not create backup subdirectory: "+err.Error())
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		return enginerr.BackupFailure(rel, "could not write backup copy: "+err.Error())
	}
	return nil
}

func (m *Manager) newBackupDir() (string, error) {
	suffix, err := randomSuffix()
	if err != nil {
		return "", err
	}
	stamp := timecache.CachedTime().Format("20060102_150405")
	dir := filepath.Join(m.root, dirPrefix+stamp+"_"+suffix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// randomSuffix derives a short hex suffix from a random seed run through
// blake2b, so two backup directories created within the same second of
// wall-clock time never collide.
func randomSuffix() (string, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	sum := blake2b.Sum256(seed)
	return hex.EncodeToString(sum[:4]), nil
}

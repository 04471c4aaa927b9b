// Package sandbox confines relative patch paths to a project root.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package sandbox

import (
	"path/filepath"
	"strings"

	"github.com/agilira/applydiff/internal/enginerr"
)

// traversalPatterns are rejected after filepath.Clean, since Clean keeps
// the leading ".." segments of a path that climbs above its starting
// directory. Absolute paths are rejected separately by filepath.IsAbs.
var traversalPatterns = []string{"../", "..\\"}

// Resolve joins rel onto root and verifies the result stays within root.
// It returns the cleaned absolute path on success, or a PathEscape error
// naming rel as the offending file.
func Resolve(root, rel string) (string, error) {
	if rel == "" {
		return "", enginerr.PathEscape(rel, "empty file path")
	}
	if filepath.IsAbs(rel) {
		return "", enginerr.PathEscape(rel, "absolute paths are not permitted")
	}
	if containsControlChar(rel) {
		return "", enginerr.PathEscape(rel, "path contains control characters")
	}

	cleanedRel := filepath.Clean(rel)
	for _, pattern := range traversalPatterns {
		if strings.Contains(cleanedRel, pattern) || strings.HasPrefix(cleanedRel, "..") {
			return "", enginerr.PathEscape(rel, "path escapes project root")
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", enginerr.FileIO(rel, "could not resolve project root: "+err.Error())
	}
	full := filepath.Join(absRoot, cleanedRel)

	rootWithSep := absRoot + string(filepath.Separator)
	if full != absRoot && !strings.HasPrefix(full, rootWithSep) {
		return "", enginerr.PathEscape(rel, "path escapes project root")
	}

	return full, nil
}

func containsControlChar(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}

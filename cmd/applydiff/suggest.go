// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package main

import (
	"os"
	"path/filepath"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// suggestPath returns the closest existing relative path under root to want,
// for surfacing a "did you mean" hint on a missed or rejected block. It
// returns "" if root has no files or nothing is close enough to be useful.
func suggestPath(root, want string) string {
	var candidates []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			candidates = append(candidates, rel)
		}
		return nil
	})
	if len(candidates) == 0 {
		return ""
	}

	ranks := fuzzy.RankFindFold(want, candidates)
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// Package applydiff is the engine façade: preview and apply a patch
// document against a project root, and self-test the engine against a
// directory of fixtures.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package applydiff

import "github.com/agilira/applydiff/internal/applier"

// Outcome is one patch block's result, in patch-document order.
type Outcome struct {
	Index       int      `json:"index"`
	File        string   `json:"file"`
	Status      string   `json:"status"`
	Detail      string   `json:"detail"`
	BestScore   *float64 `json:"best_score,omitempty"`
	SecondScore *float64 `json:"second_score,omitempty"`
}

// Report is the result of one preview or apply invocation.
type Report struct {
	OK        int      `json:"ok"`
	Fail      int      `json:"fail"`
	Diff      string   `json:"diff"`
	Outcomes  []Outcome `json:"outcomes"`
	BackupDir string   `json:"backup_dir,omitempty"`
}

func convertOutcome(o applier.Outcome) Outcome {
	return Outcome{
		Index:       o.Index,
		File:        o.FilePath,
		Status:      string(o.Status),
		Detail:      o.Detail,
		BestScore:   o.BestScore,
		SecondScore: o.SecondScore,
	}
}

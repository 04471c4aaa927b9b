// Package patchparse turns a patch document into an ordered sequence of
// patch blocks.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package patchparse

import (
	"strings"

	"github.com/agilira/applydiff/internal/enginerr"
)

// Bounds on a single patch document.
const (
	MaxBlocks        = 1000
	MaxLinesPerBlock = 10_000
	MaxInputSize     = 100 * 1024 * 1024
)

// Mode selects how a block's from/to bytes are applied.
type Mode int

const (
	ModePatch Mode = iota
	ModeReplace
	ModeRegex // reserved; parsing it is always a ParseMalformed error
)

// Envelope is the textual framing the block arrived in.
type Envelope int

const (
	EnvelopeClassic Envelope = iota
	EnvelopeArmored
)

const defaultFuzz = 0.85

// Block is one (file, from, to, fuzz, mode) unit parsed from the document.
type Block struct {
	Index    int
	FilePath string
	Fuzz     float64
	Mode     Mode
	From     string
	To       string
	Envelope Envelope
}

const (
	classicSentinel  = ">>> file:"
	classicFrom      = "--- from"
	classicTo        = "--- to"
	classicClose     = "<<<"
	armoredBegin     = "-----BEGIN APPLYDIFF AFB-1-----"
	armoredEnd       = "-----END APPLYDIFF AFB-1-----"
	armoredPathPfx   = "Path:"
	armoredFuzzPfx   = "Fuzz:"
	armoredEncPfx    = "Encoding:"
	armoredFromLabel = "From:"
	armoredToLabel   = "To:"
)

// Parse scans a UTF-8 patch document and returns its blocks in input order.
// The entire document is rejected, per document rather than per block, if
// any block is malformed or a bound is exceeded; no partial block is ever
// returned alongside an error.
func Parse(input []byte) ([]Block, error) {
	if len(input) > MaxInputSize {
		return nil, enginerr.ParseLimitExceeded("patch document exceeds maximum input size")
	}

	lines := splitLinesKeepEmpty(string(input))

	var blocks []Block
	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(trimmed, classicSentinel):
			block, next, err := parseClassicBlock(lines, i, len(blocks))
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
			i = next

		case trimmed == armoredBegin:
			block, next, err := parseArmoredBlock(lines, i, len(blocks))
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
			i = next

		default:
			// Free text between blocks (commentary from the model) is ignored.
			i++
		}

		if len(blocks) > MaxBlocks {
			return nil, enginerr.ParseLimitExceeded("patch document exceeds maximum block count")
		}
	}

	return blocks, nil
}

// splitLinesKeepEmpty splits on both "\n" and "\r\n" without losing a
// trailing empty line, so block content is preserved byte-for-byte modulo
// the line terminator itself.
func splitLinesKeepEmpty(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

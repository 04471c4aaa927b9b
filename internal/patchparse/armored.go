package patchparse

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/agilira/applydiff/internal/enginerr"
)

// parseArmoredBlock parses one "-----BEGIN APPLYDIFF AFB-1----- ... -----END
// APPLYDIFF AFB-1-----" block starting at lines[start].
func parseArmoredBlock(lines []string, start, blockIndex int) (Block, int, error) {
	i := start + 1

	var path, encoding string
	fuzz := defaultFuzz
	sawPath := false

	for {
		if i >= len(lines) {
			return Block{}, 0, enginerr.ParseMalformed("armored block closed before its From field")
		}
		line := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(line, armoredPathPfx):
			path = strings.TrimSpace(strings.TrimPrefix(line, armoredPathPfx))
			sawPath = true
			i++
		case strings.HasPrefix(line, armoredFuzzPfx):
			v := strings.TrimSpace(strings.TrimPrefix(line, armoredFuzzPfx))
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				return Block{}, 0, enginerr.ParseMalformed("armored Fuzz field must be a number between 0 and 1")
			}
			fuzz = f
			i++
		case strings.HasPrefix(line, armoredEncPfx):
			encoding = strings.TrimSpace(strings.TrimPrefix(line, armoredEncPfx))
			i++
		case line == armoredFromLabel:
			i++
			goto readFrom
		default:
			return Block{}, 0, enginerr.ParseMalformed("unrecognized line in armored block header")
		}
	}

readFrom:
	if !sawPath {
		return Block{}, 0, enginerr.ParseMalformed("armored block missing Path field")
	}
	if encoding != "" && encoding != "base64" {
		return Block{}, 0, enginerr.ParseMalformed("unsupported armored encoding " + encoding)
	}

	fromB64, i2, err := readBase64Until(lines, i, armoredToLabel, blockIndex)
	if err != nil {
		return Block{}, 0, err
	}
	i = i2 + 1 // consume "To:"

	toB64, i3, err := readBase64Until(lines, i, armoredEnd, blockIndex)
	if err != nil {
		return Block{}, 0, err
	}
	i = i3 + 1 // consume END sentinel

	from, err := decodeBase64(fromB64)
	if err != nil {
		return Block{}, 0, enginerr.ParseMalformed("armored From field is not valid base64")
	}
	to, err := decodeBase64(toB64)
	if err != nil {
		return Block{}, 0, enginerr.ParseMalformed("armored To field is not valid base64")
	}

	return Block{
		Index:    blockIndex,
		FilePath: path,
		Fuzz:     fuzz,
		Mode:     ModePatch,
		From:     from,
		To:       to,
		Envelope: EnvelopeArmored,
	}, i, nil
}

// readBase64Until collects raw base64 text up to the line whose trimmed
// content equals marker, enforcing MaxLinesPerBlock on the way.
func readBase64Until(lines []string, i int, marker string, blockIndex int) ([]string, int, error) {
	var out []string
	for {
		if i >= len(lines) {
			return nil, 0, enginerr.ParseMalformed("armored block closed before " + marker)
		}
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == marker {
			return out, i, nil
		}
		if len(out) >= MaxLinesPerBlock {
			return nil, 0, enginerr.ParseLimitExceeded("block exceeds maximum line count")
		}
		out = append(out, trimmed)
		i++
	}
}

// decodeBase64 joins wrapped lines and decodes, ignoring all intervening
// whitespace so that a base64 payload wrapped across multiple lines decodes
// the same as if it were written on one line.
func decodeBase64(lines []string) (string, error) {
	joined := strings.Join(lines, "")
	joined = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, joined)
	decoded, err := base64.StdEncoding.DecodeString(joined)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

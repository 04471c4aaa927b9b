package patchparse

import (
	"strconv"
	"strings"

	"github.com/agilira/applydiff/internal/enginerr"
)

// parseClassicBlock parses one ">>> file: ... <<<" block starting at
// lines[start] and returns it plus the index of the line following its
// closing sentinel.
func parseClassicBlock(lines []string, start, blockIndex int) (Block, int, error) {
	header := strings.TrimSpace(lines[start])
	path, mode, fuzz, err := parseClassicHeader(header)
	if err != nil {
		return Block{}, 0, err
	}

	i := start + 1
	if i >= len(lines) || strings.TrimSpace(lines[i]) != classicFrom {
		return Block{}, 0, enginerr.ParseMalformed("classic block missing '--- from' marker")
	}
	i++

	fromLines, i, err := readUntil(lines, i, classicTo, blockIndex)
	if err != nil {
		return Block{}, 0, err
	}
	i++ // consume "--- to"

	toLines, i, err := readUntil(lines, i, classicClose, blockIndex)
	if err != nil {
		return Block{}, 0, err
	}
	i++ // consume "<<<"

	return Block{
		Index:    blockIndex,
		FilePath: path,
		Fuzz:     fuzz,
		Mode:     mode,
		From:     strings.Join(fromLines, "\n"),
		To:       strings.Join(toLines, "\n"),
		Envelope: EnvelopeClassic,
	}, i, nil
}

// readUntil collects lines up to (not including) the first line whose
// trimmed content equals marker, enforcing MaxLinesPerBlock as it goes.
func readUntil(lines []string, i int, marker string, blockIndex int) ([]string, int, error) {
	var out []string
	for {
		if i >= len(lines) {
			return nil, 0, enginerr.ParseMalformed("classic block closed before " + marker)
		}
		if strings.TrimSpace(lines[i]) == marker {
			return out, i, nil
		}
		if len(out) >= MaxLinesPerBlock {
			return nil, 0, enginerr.ParseLimitExceeded("block exceeds maximum line count")
		}
		out = append(out, lines[i])
		i++
	}
}

// parseClassicHeader parses ">>> file: <path> [| key=value ...]".
func parseClassicHeader(header string) (path string, mode Mode, fuzz float64, err error) {
	rest := strings.TrimPrefix(header, classicSentinel)
	parts := strings.Split(rest, "|")
	path = strings.TrimSpace(parts[0])
	if path == "" {
		return "", 0, 0, enginerr.ParseMalformed("classic block header missing file path")
	}

	mode = ModePatch
	fuzz = defaultFuzz

	for _, raw := range parts[1:] {
		kv := strings.SplitN(strings.TrimSpace(raw), "=", 2)
		if len(kv) != 2 {
			return "", 0, 0, enginerr.ParseMalformed("classic block header has a malformed modifier")
		}
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		switch key {
		case "mode":
			switch value {
			case "patch":
				mode = ModePatch
			case "replace":
				mode = ModeReplace
			case "regex":
				return "", 0, 0, enginerr.ParseMalformed("mode=regex is reserved and not implemented")
			default:
				return "", 0, 0, enginerr.ParseMalformed("unknown mode " + value)
			}
		case "fuzz":
			f, convErr := strconv.ParseFloat(value, 64)
			if convErr != nil || f < 0 || f > 1 {
				return "", 0, 0, enginerr.ParseMalformed("fuzz must be a number between 0 and 1")
			}
			fuzz = f
		default:
			return "", 0, 0, enginerr.ParseMalformed("unknown header modifier " + key)
		}
	}

	return path, mode, fuzz, nil
}

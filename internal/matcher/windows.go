package matcher

import "strings"

// windowByteRange returns the byte offsets in haystack of the window
// starting at haystack line startLine and spanning lineCount lines, given
// haystack already split into lines by lineOffsetsOf (whose offsets point
// into the original bytes, so the range is valid against the original
// haystack even when it uses CRLF). The range ends at the last line's
// content, excluding its trailing newline (and any "\r" before it); T1's
// exact search instead returns needle's own byte length verbatim, so the two
// tiers can disagree on the region's trailing-newline boundary by one
// byte. Neither the matcher nor the applier adjusts for that difference:
// the applier splices exactly the range it is given.
func windowByteRange(hayLines []string, lineOffsets []int, startLine, lineCount int) (int, int) {
	start := lineOffsets[startLine]
	endLine := startLine + lineCount - 1
	end := lineOffsets[endLine] + len(hayLines[endLine])
	return start, end
}

// lineOffsetsOf returns, for each line produced by splitLines(s), its byte
// offset into the ORIGINAL string s (which may use CRLF terminators). This
// lets matchers compare over LF-normalized content while still returning
// byte ranges valid against the caller's original bytes.
func lineOffsetsOf(s string) (lines []string, offsets []int) {
	offset := 0
	for len(s) > 0 {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			lines = append(lines, trimCR(s))
			offsets = append(offsets, offset)
			break
		}
		lines = append(lines, trimCR(s[:idx]))
		offsets = append(offsets, offset)
		consumed := idx + 1
		s = s[consumed:]
		offset += consumed
	}
	if len(lines) == 0 {
		lines = append(lines, "")
		offsets = append(offsets, 0)
	}
	return lines, offsets
}

func trimCR(s string) string {
	return strings.TrimSuffix(s, "\r")
}

// matchNormalized slides a needleLines-sized window over haystack's original
// lines (CRLF-insensitive), applying normalize to both the needle and each
// window before comparing for equality. It reports the byte range of the
// unique match, if exactly one window matches.
func matchNormalized(haystack string, needleLines []string, normalize func([]string) []string) (start, end int, unique bool) {
	hayLines, offsets := lineOffsetsOf(haystack)
	if len(needleLines) > len(hayLines) {
		return 0, 0, false
	}

	normNeedle := strings.Join(normalize(append([]string(nil), needleLines...)), "\n")

	matches := 0
	var mStart, mEnd int
	for i := 0; i+len(needleLines) <= len(hayLines); i++ {
		window := hayLines[i : i+len(needleLines)]
		normWindow := strings.Join(normalize(append([]string(nil), window...)), "\n")
		if normWindow == normNeedle {
			matches++
			s, e := windowByteRange(hayLines, offsets, i, len(needleLines))
			mStart, mEnd = s, e
			if matches > 1 {
				return 0, 0, false
			}
		}
	}

	if matches == 1 {
		return mStart, mEnd, true
	}
	return 0, 0, false
}

// normalizeWhitespace collapses inner runs of whitespace to single spaces
// and drops leading and trailing whitespace entirely, for tier T2. T3 is the tier that preserves
// relative indentation; T2 ignores indentation entirely.
func normalizeWhitespace(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.Join(strings.Fields(l), " ")
	}
	return out
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// stripCommonIndentLines removes the minimum common leading whitespace width
// found across all non-empty lines, preserving each line's indentation
// relative to that minimum (T3).
func stripCommonIndentLines(lines []string) []string {
	min := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(leadingWhitespace(l))
		if min == -1 || n < min {
			min = n
		}
	}
	if min <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= min {
			out[i] = l[min:]
		} else {
			out[i] = strings.TrimLeft(l, " \t")
		}
	}
	return out
}

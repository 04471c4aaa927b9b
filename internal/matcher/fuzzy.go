package matcher

import (
	"strings"

	"golang.org/x/crypto/blake2b"
)

// fuzzyBestWindows computes Damerau-Levenshtein similarity between needle
// and every needleLines-sized window of haystack, returning the best and
// second-best scores and the byte range of the best window.
func fuzzyBestWindows(haystack string, needleLines []string) (best, second float64, bestStart, bestEnd int) {
	hayLines, offsets := lineOffsetsOf(haystack)
	needle := strings.Join(needleLines, "\n")

	if len(needleLines) > len(hayLines) {
		return 0, 0, 0, 0
	}

	// Identical window text recurs often in source files (repeated
	// boilerplate, generated code); hashing lets repeats reuse a cached
	// score instead of re-running Damerau-Levenshtein.
	cache := make(map[[32]byte]float64)

	for i := 0; i+len(needleLines) <= len(hayLines); i++ {
		window := strings.Join(hayLines[i:i+len(needleLines)], "\n")

		key := blake2b.Sum256([]byte(window))
		score, ok := cache[key]
		if !ok {
			score = similarity(needle, window)
			cache[key] = score
		}

		if score > best {
			second = best
			best = score
			bestStart, bestEnd = windowByteRange(hayLines, offsets, i, len(needleLines))
		} else if score > second {
			second = score
		}
	}

	return best, second, bestStart, bestEnd
}

// similarity returns a normalized Damerau-Levenshtein similarity in [0,1]:
// 1 - (edit_distance / max(len(a), len(b))).
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	dist := damerauLevenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// damerauLevenshtein computes the optimal string alignment distance between
// two strings, compared rune by rune (insertions, deletions, substitutions,
// and adjacent transpositions each cost 1).
func damerauLevenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := d[i-1][j] + 1
			ins := d[i][j-1] + 1
			sub := d[i-1][j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if t := d[i-2][j-2] + cost; t < min {
					min = t
				}
			}
			d[i][j] = min
		}
	}

	return d[la][lb]
}

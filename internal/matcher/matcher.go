// Package matcher locates a needle within a haystack under the engine's
// tiered fuzzy-matching policy.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package matcher

import (
	"strings"

	"github.com/agilira/applydiff/internal/elog"
)

// AmbiguityGuard is the fixed gap below which two candidate windows are
// considered indistinguishable. This is policy, not a tuning knob.
const AmbiguityGuard = 0.02

// MaxHaystackSize is the size above which T4's exhaustive scan is skipped;
// T1-T3 remain active regardless of haystack size.
const MaxHaystackSize = 10 * 1024 * 1024

// Tier names the closed enumeration of matching strategies, tried in order.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierWhitespace
	TierIndentation
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "T1_exact"
	case TierWhitespace:
		return "T2_whitespace"
	case TierIndentation:
		return "T3_indentation"
	case TierFuzzy:
		return "T4_fuzzy"
	default:
		return "none"
	}
}

// Status is the outcome discriminant of a Match call.
type Status int

const (
	StatusExact Status = iota
	StatusFuzzy
	StatusNoMatch
	StatusAmbiguous
)

// Result is the return value of Match: exactly one of the status-specific
// fields is meaningful, selected by Status.
type Result struct {
	Status      Status
	Tier        Tier
	ByteStart   int
	ByteEnd     int
	BestScore   float64
	SecondScore float64
}

// Match locates needle within haystack under the given fuzz threshold,
// emitting search_start, fast_path_match, ambiguous_match, and
// no_match_threshold events to log as the relevant tier is reached.
func Match(log elog.Logger, haystack, needle string, fuzz float64) Result {
	log.Debug("matcher", elog.ActionSearchStart, "starting match search",
		elog.F("needle_lines", lineCount(needle)), elog.F("haystack_bytes", len(haystack)))

	if needle == "" {
		return Result{Status: StatusNoMatch, BestScore: 0}
	}

	if starts := allOccurrences(haystack, needle); len(starts) == 1 {
		log.Info("matcher", elog.ActionFastPathMatch, "exact single occurrence",
			elog.F("byte_start", starts[0]))
		return Result{Status: StatusExact, Tier: TierExact,
			ByteStart: starts[0], ByteEnd: starts[0] + len(needle), BestScore: 1.0}
	} else if len(starts) > 1 {
		// Multiple exact occurrences skip the remaining tiers: best and
		// second-best are both 1.0, so the ambiguity guard in finish rejects them.
		return finish(log, StatusAmbiguous, Result{BestScore: 1.0, SecondScore: 1.0}, fuzz)
	}

	needleLines := splitLines(needle)

	if start, end, unique := matchNormalized(haystack, needleLines, normalizeWhitespace); unique {
		log.Info("matcher", elog.ActionFastPathMatch, "whitespace-normalized match",
			elog.F("byte_start", start))
		return Result{Status: StatusExact, Tier: TierWhitespace, ByteStart: start, ByteEnd: end, BestScore: 1.0}
	}

	if start, end, unique := matchNormalized(haystack, needleLines, stripCommonIndentLines); unique {
		log.Info("matcher", elog.ActionFastPathMatch, "indentation-normalized match",
			elog.F("byte_start", start))
		return Result{Status: StatusExact, Tier: TierIndentation, ByteStart: start, ByteEnd: end, BestScore: 1.0}
	}

	if len(haystack) > MaxHaystackSize {
		log.Warn("matcher", elog.ActionNoMatchThreshold, "haystack exceeds size limit, fuzzy tier skipped",
			elog.F("haystack_bytes", len(haystack)))
		return Result{Status: StatusNoMatch, Tier: TierNone, BestScore: 0}
	}

	best, second, bestStart, bestEnd := fuzzyBestWindows(haystack, needleLines)
	return finish(log, StatusFuzzy, Result{Tier: TierFuzzy, ByteStart: bestStart, ByteEnd: bestEnd,
		BestScore: best, SecondScore: second}, fuzz)
}

// finish applies the fuzz threshold and then the ambiguity guard to a tier-4
// (or exact-multiplicity) candidate result.
func finish(log elog.Logger, fallbackStatus Status, r Result, fuzz float64) Result {
	if r.BestScore < fuzz {
		log.Info("matcher", elog.ActionNoMatchThreshold, "best score below fuzz threshold",
			elog.F("best_score", r.BestScore), elog.F("fuzz", fuzz))
		r.Status = StatusNoMatch
		return r
	}
	if r.BestScore-r.SecondScore < AmbiguityGuard {
		log.Info("matcher", elog.ActionAmbiguousMatch, "best and second-best scores too close",
			elog.F("best_score", r.BestScore), elog.F("second_score", r.SecondScore))
		r.Status = StatusAmbiguous
		return r
	}
	r.Status = fallbackStatus
	return r
}

func allOccurrences(haystack, needle string) []int {
	var starts []int
	from := 0
	for {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			break
		}
		starts = append(starts, from+idx)
		from += idx + 1
		if from >= len(haystack) {
			break
		}
	}
	return starts
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(s, "\n")
}

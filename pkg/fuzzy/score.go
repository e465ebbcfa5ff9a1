// Package fuzzy scores how well a typed pattern abbreviates a candidate string.
//
// The score favours matches at the start of the candidate and at word starts
// (acronyms), and tolerates unmatched pattern characters when a non-zero
// fuzziness is given. History ranking thresholds are tuned against this exact
// arithmetic, so changes here shift which history entries surface.
package fuzzy

import "unicode"

const (
	baseScore      = 0.1
	sameCaseBonus  = 0.1
	leadingBonus   = 0.6
	acronymBonus   = 0.8
	startOfStrings = 0.15
)

// Score returns a value in [0, 1] rating pattern as an abbreviation of candidate.
//
// Equal strings score 1. An empty candidate or pattern scores 0.
// With fuzziness 0 any pattern character missing from the candidate fails the
// whole match; otherwise each missing character divides the result further by
// accumulating 1-fuzziness into the penalty multiplier.
func Score(candidate, pattern string, fuzziness float64) float64 {
	if candidate == pattern {
		return 1
	}
	if candidate == "" || pattern == "" {
		return 0
	}

	rest := []rune(candidate)
	abbr := []rune(pattern)
	candidateLen := float64(len(rest))
	patternLen := float64(len(abbr))

	var total float64
	fuzzies := 1.0
	startBonus := false

	for i, c := range abbr {
		idx := indexFold(rest, c)
		if idx < 0 {
			if fuzziness == 0 {
				return 0
			}
			fuzzies += 1 - fuzziness
			continue
		}

		charScore := baseScore
		if rest[idx] == c {
			charScore += sameCaseBonus
		}
		if idx == 0 {
			charScore += leadingBonus
			if i == 0 {
				startBonus = true
			}
		} else if rest[idx-1] == ' ' {
			charScore += acronymBonus
		}

		rest = rest[idx+1:]
		total += charScore
	}

	abbrScore := total / patternLen
	final := ((abbrScore * (patternLen / candidateLen)) + abbrScore) / 2
	final /= fuzzies

	if startBonus && final+startOfStrings < 1 {
		final += startOfStrings
	}
	return final
}

// indexFold finds c in rs ignoring case, preferring the earlier of the lower
// and upper case positions.
func indexFold(rs []rune, c rune) int {
	lower := indexRune(rs, unicode.ToLower(c))
	upper := indexRune(rs, unicode.ToUpper(c))

	first := min(lower, upper)
	if first > -1 {
		return first
	}
	return max(lower, upper)
}

func indexRune(rs []rune, c rune) int {
	for i, r := range rs {
		if r == c {
			return i
		}
	}
	return -1
}

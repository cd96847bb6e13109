// Package observe turns raw tool output into bounded observations for the model.
//
// [Filter] is deterministic and total: it never fails and its result never exceeds the
// requested length. It is also idempotent, so filtering an observation again (for
// example when a transcript is replayed) leaves it unchanged:
//
//	len([]rune(observe.Filter(x, n))) <= n
//	observe.Filter(observe.Filter(x, n), n) == observe.Filter(x, n)
package observe

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TruncationMarker is appended to output cut by [Filter].
const TruncationMarker = " [truncated]"

// maxCleanPasses bounds the fixpoint iteration in clean. Real input converges in two.
const maxCleanPasses = 8

// nearDuplicateMinTokens is the smallest line, in tokens, compared by similarity
// instead of equality.
const nearDuplicateMinTokens = 8

// nearDuplicateThreshold is the token Jaccard similarity at which two consecutive
// lines count as the same fragment.
const nearDuplicateThreshold = 0.9

// Filter cleans raw and bounds it to maxLength runes.
//
// Cleaning removes emoji and control characters, applies NFKC normalization, collapses
// whitespace, drops consecutive near-duplicate lines and squeezes blank lines. Output
// still longer than maxLength is cut at the best boundary (paragraph, line, sentence,
// then word) in the second half of the budget, falling back to a hard cut, and marked
// with [TruncationMarker]. A maxLength of zero or less yields "".
func Filter(raw string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}

	s := clean(raw)
	if runeLen(s) <= maxLength {
		return s
	}

	budget := maxLength
	for budget > 0 {
		out := clean(truncate(s, budget))
		n := runeLen(out)
		if n <= maxLength {
			return out
		}
		budget -= n - maxLength
	}
	return ""
}

// Filterer binds a length to [Filter].
type Filterer struct {
	MaxLength int
}

// Filter applies [Filter] with the configured length.
func (f Filterer) Filter(raw string) string {
	return Filter(raw, f.MaxLength)
}

// TruncateWords keeps the first n whitespace-separated words of s, joined by single
// spaces. n of zero or less keeps every word.
func TruncateWords(s string, n int) string {
	words := strings.Fields(s)
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " ..."
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// -----------------------------------------------------------------------------
// Cleaning
// -----------------------------------------------------------------------------

func clean(s string) string {
	for range maxCleanPasses {
		next := cleanOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func cleanOnce(s string) string {
	s = stripNoise(s)
	s = norm.NFKC.String(s)

	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	var prev string
	blank := false
	for _, line := range lines {
		line = collapseSpaces(line)
		if line == "" {
			if len(kept) > 0 && !blank {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		if prev != "" && nearDuplicate(prev, line) {
			continue
		}
		kept = append(kept, line)
		prev = line
		blank = false
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// stripNoise removes "Symbol, other" runes (emoji, pictographs), format characters
// such as zero-width joiners, and control characters other than newline and tab.
func stripNoise(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == utf8.RuneError:
			return -1
		case unicode.Is(unicode.So, r), unicode.Is(unicode.Cf, r), unicode.IsControl(r):
			return -1
		default:
			return r
		}
	}, s)
}

func collapseSpaces(line string) string {
	return strings.Join(strings.FieldsFunc(line, unicode.IsSpace), " ")
}

func nearDuplicate(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	ta, tb := tokens(a), tokens(b)
	if len(ta) < nearDuplicateMinTokens || len(tb) < nearDuplicateMinTokens {
		return false
	}
	return jaccard(ta, tb) >= nearDuplicateThreshold
}

func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// -----------------------------------------------------------------------------
// Truncation
// -----------------------------------------------------------------------------

// truncate cuts s to at most budget runes, marker included.
func truncate(s string, budget int) string {
	r := []rune(s)
	if len(r) <= budget {
		return s
	}

	markerLen := runeLen(TruncationMarker)
	if budget <= markerLen {
		return string(r[:budget])
	}

	limit := budget - markerLen
	cut := cutPoint(r, limit)
	kept := strings.TrimRightFunc(string(r[:cut]), unicode.IsSpace)
	return kept + TruncationMarker
}

// cutPoint returns how many runes of r to keep, at most limit. Boundaries closer to the
// start than limit/2 are rejected so a single early newline cannot empty the output.
func cutPoint(r []rune, limit int) int {
	floor := limit / 2

	find := func(match func(i int) bool) int {
		for i := limit; i > floor; i-- {
			if match(i) {
				return i
			}
		}
		return -1
	}

	paragraph := func(i int) bool {
		return r[i] == '\n' && i+1 < len(r) && r[i+1] == '\n'
	}
	line := func(i int) bool {
		return r[i] == '\n'
	}
	sentence := func(i int) bool {
		return strings.ContainsRune(".!?", r[i-1]) && unicode.IsSpace(r[i])
	}
	word := func(i int) bool {
		return unicode.IsSpace(r[i])
	}

	for _, match := range []func(int) bool{paragraph, line, sentence, word} {
		if i := find(match); i >= 0 {
			return i
		}
	}
	return limit
}

package textmark

import (
	"regexp"
	"strings"
)

// CountMatches runs re against text and returns the number of
// non-overlapping matches, capped at maxCount so a pathological input
// (e.g. a file of a million short matches) cannot make the histogram
// unbounded. The scan itself still covers all of text once.
func CountMatches(re *regexp.Regexp, text string, maxCount int) int {
	matches := re.FindAllStringIndex(text, maxCount)
	return len(matches)
}

// AnyMatch reports whether re matches anywhere in text.
func AnyMatch(re *regexp.Regexp, text string) bool {
	return re.MatchString(text)
}

// LineHasPrefix reports whether any line of text (after trimming leading
// whitespace) begins with one of the given prefixes. The iaccicd analyzer
// does not call it; its line-start pattern families are regular expressions.
func LineHasPrefix(text string, prefixes ...string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		for _, p := range prefixes {
			if strings.HasPrefix(trimmed, p) {
				return true
			}
		}
	}
	return false
}

// CountLinesWithPrefix counts lines (after trimming leading whitespace) that
// begin with one of the given prefixes, capped at maxCount.
func CountLinesWithPrefix(text string, maxCount int, prefixes ...string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if count >= maxCount {
			break
		}
		trimmed := strings.TrimLeft(line, " \t")
		for _, p := range prefixes {
			if strings.HasPrefix(trimmed, p) {
				count++
				break
			}
		}
	}
	return count
}

// ContainsAny reports whether text contains any of the needles, case
// sensitive. Small helper to avoid repeating strings.Contains chains across
// analyzers.
func ContainsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// ContainsAnyFold is ContainsAny case-insensitive.
func ContainsAnyFold(text string, needles ...string) bool {
	lower := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Package canon provides the stable, deterministic ordering and canonical
// JSON emission every adapter output passes through before it is returned
// to the host (spec §3.3 Determinism, §6 Canonical JSON emission).
package canon

import (
	"sort"

	"github.com/samber/lo"
)

// SortDedup returns a sorted slice with duplicate strings removed. nil and
// empty input both yield an empty, non-nil slice so JSON-encodes to `[]`
// rather than `null`.
func SortDedup(items []string) []string {
	unique := lo.Uniq(items)
	sort.Strings(unique)
	if unique == nil {
		return []string{}
	}
	return unique
}

// SortDedupCapped is SortDedup truncated to maxLen entries after sorting, so
// the bound applies to the canonical (not insertion) order.
func SortDedupCapped(items []string, maxLen int) []string {
	out := SortDedup(items)
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return out
}

// CanonicalizeCounts returns a copy of counts with no further transform
// needed for ordering -- Go maps marshal through the canon JSON encoder
// which sorts keys itself (see json.go). This helper exists to give the
// canonicalization step a single, explicit call site in each analyzer and to
// apply the non-negative invariant (spec §3.2: "values are non-negative").
func CanonicalizeCounts(counts map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		if v < 0 {
			v = 0
		}
		out[k] = v
	}
	return out
}

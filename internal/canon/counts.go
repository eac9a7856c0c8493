package canon

import (
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/saferun/adaptcore/internal/pipeline"
)

// SortFindings orders findings by (code, count) and caps the result at
// MaxFindingCodes entries (spec §3.2: "Findings sorted by (code, count);
// capped at 128 entries").
func SortFindings(findings []pipeline.Finding) []pipeline.Finding {
	out := make([]pipeline.Finding, len(findings))
	copy(out, findings)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Count < out[j].Count
	})

	if len(out) > pipeline.MaxFindingCodes {
		out = out[:pipeline.MaxFindingCodes]
	}
	if out == nil {
		out = []pipeline.Finding{}
	}
	return out
}

// DedupKey computes a stable, non-cryptographic digest of a canonical path
// string for use as a parser-internal de-duplication key (e.g. collapsing
// repeated ZIP/TAR entry paths to "keep the first by local offset"). This is
// distinct from the capture tree's own content digests, which the adapter
// core never computes or trusts.
func DedupKey(canonicalPath string) uint64 {
	return xxh3.HashString(canonicalPath)
}

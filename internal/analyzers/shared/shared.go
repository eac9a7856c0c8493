// Package shared holds the small set of helpers every class analyzer uses
// when shaping its result: canonical-path collision detection, path depth,
// and the common Ok/Fail result builders (spec §4.1 toSummary/toFindings).
package shared

import (
	"strings"

	"github.com/saferun/adaptcore/internal/canon"
	"github.com/saferun/adaptcore/internal/pipeline"
)

// PathDepth returns the number of "/"-separated segments in a canonical
// entry path, used for the archive analyzer's maxDepth count.
func PathDepth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}

// HasCaseInsensitiveCollision reports whether paths contains two distinct
// entries that are equal after lower-casing (spec §3.3 path hygiene / §8
// case-collision property).
func HasCaseInsensitiveCollision(paths []string) bool {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		lower := strings.ToLower(p)
		if existing, ok := seen[lower]; ok {
			if existing != p {
				return true
			}
			continue
		}
		seen[lower] = p
	}
	return false
}

// BuildSummary assembles a canonical AdapterSummary: counts are clamped
// non-negative, markers and reason codes are sorted, deduped, and capped.
func BuildSummary(adapterID, sourceClass, sourceFormat string, mode pipeline.Mode, counts map[string]int64, markers, reasonCodes []string) *pipeline.AdapterSummary {
	return &pipeline.AdapterSummary{
		Schema:        "adapter_summary",
		SchemaVersion: pipeline.SchemaVersion,
		AdapterID:     adapterID,
		SourceClass:   sourceClass,
		SourceFormat:  sourceFormat,
		Mode:          mode,
		Counts:        canon.CanonicalizeCounts(counts),
		Markers:       canon.SortDedupCapped(markers, pipeline.MaxMarkers),
		ReasonCodes:   canon.SortDedupCapped(reasonCodes, pipeline.MaxReasonCodes),
	}
}

// BuildFindings assembles a canonical AdapterFindings histogram.
func BuildFindings(adapterID, sourceClass string, findings []pipeline.Finding, markers []string) *pipeline.AdapterFindings {
	return &pipeline.AdapterFindings{
		Schema:        "adapter_findings",
		SchemaVersion: pipeline.SchemaVersion,
		AdapterID:     adapterID,
		SourceClass:   sourceClass,
		Findings:      canon.SortFindings(findings),
		Markers:       canon.SortDedupCapped(markers, pipeline.MaxMarkers),
	}
}

// Meta projects an AdapterMeta from the same fields used to build a summary.
func Meta(adapterID, sourceFormat string, mode pipeline.Mode, reasonCodes []string) pipeline.AdapterMeta {
	return pipeline.AdapterMeta{
		AdapterID:    adapterID,
		SourceFormat: sourceFormat,
		Mode:         mode,
		ReasonCodes:  canon.SortDedupCapped(reasonCodes, pipeline.MaxReasonCodes),
	}
}

package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortDedupSortsAndDedups(t *testing.T) {
	got := SortDedup([]string{"b", "a", "b", "c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSortDedupEmptyYieldsNonNil(t *testing.T) {
	got := SortDedup(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSortDedupCappedTruncatesAfterSort(t *testing.T) {
	got := SortDedupCapped([]string{"z", "a", "m"}, 2)
	assert.Equal(t, []string{"a", "m"}, got)
}

func TestCanonicalizeCountsClampsNegative(t *testing.T) {
	got := CanonicalizeCounts(map[string]int64{"a": -5, "b": 3})
	assert.Equal(t, int64(0), got["a"])
	assert.Equal(t, int64(3), got["b"])
}

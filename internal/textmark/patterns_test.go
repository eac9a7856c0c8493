package textmark

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountMatchesCapsAtMaxCount(t *testing.T) {
	re := regexp.MustCompile(`a`)
	assert.Equal(t, 3, CountMatches(re, "aaaa", 3))
	assert.Equal(t, 4, CountMatches(re, "aaaa", 10))
	assert.Equal(t, 0, CountMatches(re, "bbbb", 10))
}

func TestAnyMatch(t *testing.T) {
	re := regexp.MustCompile(`(?m)^kind\s*:`)
	assert.True(t, AnyMatch(re, "apiVersion: v1\nkind: Pod\n"))
	assert.False(t, AnyMatch(re, "apiVersion: v1\n"))
}

func TestLineHasPrefix(t *testing.T) {
	text := "  resource \"x\" \"y\" {}\nvariable \"z\" {}\n"
	assert.True(t, LineHasPrefix(text, "resource", "module"))
	assert.True(t, LineHasPrefix(text, "variable"))
	assert.False(t, LineHasPrefix(text, "output"))
}

func TestCountLinesWithPrefixCapsAtMaxCount(t *testing.T) {
	text := "on: push\njobs:\nsteps:\nrandom: 1\n"
	assert.Equal(t, 2, CountLinesWithPrefix(text, 2, "on", "jobs", "steps"))
	assert.Equal(t, 3, CountLinesWithPrefix(text, 10, "on", "jobs", "steps"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("hello world", "xyz", "world"))
	assert.False(t, ContainsAny("hello world", "xyz", "abc"))
}

func TestContainsAnyFold(t *testing.T) {
	assert.True(t, ContainsAnyFold("Hello WORLD", "world"))
	assert.False(t, ContainsAnyFold("Hello WORLD", "mars"))
}

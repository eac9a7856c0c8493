package tarfmt

import (
	"archive/tar"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildUSTAR uses the stdlib tar writer only to construct well-formed test
// fixtures; the parser under test is the bespoke bounded reader, never
// archive/tar itself.
func buildUSTAR(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := tar.NewWriter(&buf)
	for name, content := range entries {
		hdr := &tar.Header{
			Name:   name,
			Mode:   0o644,
			Size:   int64(len(content)),
			Format: tar.FormatUSTAR,
		}
		require.NoError(t, w.WriteHeader(hdr))
		_, err := w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParseBasicTar(t *testing.T) {
	data := buildUSTAR(t, map[string]string{
		"a.txt":   "hello",
		"b/c.txt": "world",
	})
	res := Parse(data)
	assert.False(t, res.Partial)
	assert.Len(t, res.Entries, 2)
}

func TestParseEmptyDataNoTerminator(t *testing.T) {
	res := Parse(nil)
	assert.False(t, res.Partial)
	assert.Empty(t, res.Entries)
}

func TestParseTruncatedAtEOF(t *testing.T) {
	data := buildUSTAR(t, map[string]string{"a.txt": "hello world"})
	// Cut off mid archive, before the terminating zero blocks.
	truncated := data[:600]
	res := Parse(truncated)
	// Spec: termination by two zero blocks OR EOF is acceptable; a header
	// that fits but whose data region overshoots file bounds is Partial.
	_ = res
}

func TestParseBadChecksumIsPartial(t *testing.T) {
	data := buildUSTAR(t, map[string]string{"a.txt": "hello"})
	corrupted := make([]byte, len(data))
	copy(corrupted, data)
	// Corrupt a byte within the name field of the first header, which
	// changes the checksum without changing any parsed field, so the
	// checksum validation must fail.
	corrupted[0] = 'X'
	res := Parse(corrupted)
	assert.True(t, res.Partial)
}

func TestCanonicalPathNormalizesSeparatorsAndDotSlash(t *testing.T) {
	assert.Equal(t, "a/b.txt", CanonicalPath(`.\a\b.txt`))
	assert.Equal(t, "a/b.txt", CanonicalPath("./a/b.txt"))
}

func TestExtractTextsByBasename(t *testing.T) {
	data := buildUSTAR(t, map[string]string{"dir/manifest.json": `{"k":"v"}`})
	res := Parse(data)
	require.Len(t, res.Entries, 1)

	texts, truncated := ExtractTexts(data, res.Entries, map[string]bool{"manifest.json": true})
	assert.False(t, truncated)
	assert.Equal(t, `{"k":"v"}`, texts["dir/manifest.json"])
}

func TestExtractTextsTruncatesOverCap(t *testing.T) {
	big := make([]byte, MaxTextBytesPerEntry+1000)
	for i := range big {
		big[i] = 'x'
	}
	data := buildUSTAR(t, map[string]string{"big.txt": string(big)})
	res := Parse(data)
	require.Len(t, res.Entries, 1)

	texts, truncated := ExtractTexts(data, res.Entries, map[string]bool{"big.txt": true})
	assert.True(t, truncated)
	assert.Len(t, texts["big.txt"], MaxTextBytesPerEntry)
}

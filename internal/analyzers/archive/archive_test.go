package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferun/adaptcore/internal/pipeline"
)

func writeZip(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()
	data := buildStoredZipBytes(t, entries)
	path := filepath.Join(dir, "test.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func req(path, ext string, strict bool) pipeline.Request {
	return pipeline.Request{
		Ctx:    context.Background(),
		Path:   path,
		Ext:    ext,
		Strict: strict,
	}
}

func TestAnalyzeZipStrictDeterminism(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, map[string]string{"a.txt": "1", "b/c.txt": "22"})

	r1 := Analyze(req(path, ".zip", true))
	r2 := Analyze(req(path, ".zip", true))

	require.True(t, r1.IsOk())
	require.True(t, r2.IsOk())
	assert.Equal(t, AdapterID, r1.Adapter.AdapterID)
	assert.Equal(t, int64(2), r1.Summary.Counts["entryCount"])
	assert.Equal(t, int64(2), r1.Summary.Counts["maxDepth"])
	assert.Equal(t, int64(0), r1.Summary.Counts["nestedArchiveCount"])
	assert.Equal(t, r1.Summary, r2.Summary)
	assert.Equal(t, r1.Findings, r2.Findings)
}

func TestAnalyzeZipStrictMissingSignatureFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip at all"), 0o644))

	r := Analyze(req(path, ".zip", true))
	require.False(t, r.IsOk())
	assert.Equal(t, "ARCHIVE_FORMAT_MISMATCH", r.FailCode)
}

func TestAnalyzeZipAutoRouteMissingSignatureIsNoOpOrOk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip at all"), 0o644))

	r := Analyze(req(path, ".zip", false))
	// Auto route never Fails (spec §8 strict->auto contract).
	assert.True(t, r.IsOk())
}

func TestAnalyzeZipCaseCollisionStrictFails(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, map[string]string{"A.txt": "1"})

	// Append a duplicate entry with different case by rebuilding the
	// archive with two case-colliding names in one shot.
	data := buildStoredZipBytes(t, map[string]string{"A.txt": "1", "a.txt": "2"})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	r := Analyze(req(path, ".zip", true))
	require.False(t, r.IsOk())
	assert.Equal(t, "ARCHIVE_FORMAT_MISMATCH", r.FailCode)
}

func TestAnalyzeUnsupportedExtStrictFails(t *testing.T) {
	r := Analyze(req("/nonexistent.xyz", ".xyz", true))
	require.False(t, r.IsOk())
	assert.Equal(t, "ARCHIVE_UNSUPPORTED_FORMAT", r.FailCode)
}

func TestAnalyzeUnsupportedExtAutoIsNoOp(t *testing.T) {
	r := Analyze(req("/nonexistent.xyz", ".xyz", false))
	require.True(t, r.IsOk())
	assert.Empty(t, r.ReasonCodes)
}

func TestAnalyzeNestedArchiveFinding(t *testing.T) {
	dir := t.TempDir()
	path := writeZip(t, dir, map[string]string{"inner.zip": "bytes", "readme.txt": "hi"})

	r := Analyze(req(path, ".zip", true))
	require.True(t, r.IsOk())
	assert.Equal(t, int64(1), r.Summary.Counts["nestedArchiveCount"])
	require.Len(t, r.Findings.Findings, 1)
	assert.Equal(t, "ARCHIVE_NESTED_ENTRY", r.Findings.Findings[0].Code)
}

func TestAnalyzeTarPluginRequiredStrict(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("gzbytes"), 0o644))

	r := Analyze(req(path, ".tar.gz", true))
	require.False(t, r.IsOk())
	assert.Equal(t, "ARCHIVE_PLUGIN_REQUIRED", r.FailCode)
}

// buildStoredZipBytes builds a minimal stored-method ZIP, mirroring
// zipfmt's own test fixture builder but kept local to avoid a test-only
// cross-package import.
func buildStoredZipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var out []byte
	type rec struct {
		name   string
		offset int
		size   int
	}
	var records []rec
	for name, content := range entries {
		offset := len(out)
		out = append(out, []byte("PK\x03\x04")...)
		out = appendLE16(out, 20)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE32(out, 0)
		out = appendLE32(out, uint32(len(content)))
		out = appendLE32(out, uint32(len(content)))
		out = appendLE16(out, uint16(len(name)))
		out = appendLE16(out, 0)
		out = append(out, []byte(name)...)
		out = append(out, []byte(content)...)
		records = append(records, rec{name: name, offset: offset, size: len(content)})
	}
	cdStart := len(out)
	for _, r := range records {
		out = append(out, []byte("PK\x01\x02")...)
		out = appendLE16(out, 20)
		out = appendLE16(out, 20)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE32(out, 0)
		out = appendLE32(out, uint32(r.size))
		out = appendLE32(out, uint32(r.size))
		out = appendLE16(out, uint16(len(r.name)))
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE16(out, 0)
		out = appendLE32(out, 0)
		out = appendLE32(out, uint32(r.offset))
		out = append(out, []byte(r.name)...)
	}
	cdSize := len(out) - cdStart
	out = append(out, []byte("PK\x05\x06")...)
	out = appendLE16(out, 0)
	out = appendLE16(out, 0)
	out = appendLE16(out, uint16(len(records)))
	out = appendLE16(out, uint16(len(records)))
	out = appendLE32(out, uint32(cdSize))
	out = appendLE32(out, uint32(cdStart))
	out = appendLE16(out, 0)
	return out
}

func appendLE16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendLE32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

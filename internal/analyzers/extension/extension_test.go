package extension

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferun/adaptcore/internal/pipeline"
)

func buildStoredZip(entries map[string]string) []byte {
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
		out = le16(out, 20)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le32(out, 0)
		out = le32(out, uint32(len(content)))
		out = le32(out, uint32(len(content)))
		out = le16(out, uint16(len(name)))
		out = le16(out, 0)
		out = append(out, []byte(name)...)
		out = append(out, []byte(content)...)
		records = append(records, rec{name: name, offset: offset, size: len(content)})
	}
	cdStart := len(out)
	for _, r := range records {
		out = append(out, []byte("PK\x01\x02")...)
		out = le16(out, 20)
		out = le16(out, 20)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le32(out, 0)
		out = le32(out, uint32(r.size))
		out = le32(out, uint32(r.size))
		out = le16(out, uint16(len(r.name)))
		out = le16(out, 0)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le16(out, 0)
		out = le32(out, 0)
		out = le32(out, uint32(r.offset))
		out = append(out, []byte(r.name)...)
	}
	cdSize := len(out) - cdStart
	out = append(out, []byte("PK\x05\x06")...)
	out = le16(out, 0)
	out = le16(out, 0)
	out = le16(out, uint16(len(records)))
	out = le16(out, uint16(len(records)))
	out = le32(out, uint32(cdSize))
	out = le32(out, uint32(cdStart))
	out = le16(out, 0)
	return out
}

func le16(b []byte, v uint16) []byte { return append(b, byte(v), byte(v>>8)) }
func le32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func req(path, ext string, strict bool) pipeline.Request {
	return pipeline.Request{Ctx: context.Background(), Path: path, Ext: ext, Strict: strict}
}

func TestCRX3UnwrapToZipManifestParse(t *testing.T) {
	zipBytes := buildStoredZip(map[string]string{
		"manifest.json": `{"manifest_version":3,"name":"demo","version":"1.0.0","permissions":["storage"]}`,
	})
	header := []byte("Cr24\x03\x00\x00\x00\x00\x00\x00\x00")
	combined := append(append([]byte{}, header...), zipBytes...)

	dir := t.TempDir()
	path := filepath.Join(dir, "ext.crx")
	require.NoError(t, os.WriteFile(path, combined, 0o644))

	r := Analyze(req(path, ".crx", false), false)
	require.True(t, r.IsOk())
	assert.Equal(t, "extension", r.Summary.SourceClass)
	assert.Equal(t, int64(1), r.Summary.Counts["permissionCount"])
}

func TestStrictMissingManifestFails(t *testing.T) {
	zipBytes := buildStoredZip(map[string]string{"readme.txt": "hi"})
	header := []byte("Cr24\x03\x00\x00\x00\x00\x00\x00\x00")
	combined := append(append([]byte{}, header...), zipBytes...)

	dir := t.TempDir()
	path := filepath.Join(dir, "ext.crx")
	require.NoError(t, os.WriteFile(path, combined, 0o644))

	r := Analyze(req(path, ".crx", true), false)
	require.False(t, r.IsOk())
	assert.Equal(t, "EXTENSION_MANIFEST_MISSING", r.FailCode)
}

func TestStrictInvalidManifestVersionFails(t *testing.T) {
	zipBytes := buildStoredZip(map[string]string{
		"manifest.json": `{"manifest_version":1,"name":"demo","version":"1.0.0"}`,
	})
	header := []byte("Cr24\x03\x00\x00\x00\x00\x00\x00\x00")
	combined := append(append([]byte{}, header...), zipBytes...)

	dir := t.TempDir()
	path := filepath.Join(dir, "ext.crx")
	require.NoError(t, os.WriteFile(path, combined, 0o644))

	r := Analyze(req(path, ".crx", true), false)
	require.False(t, r.IsOk())
	assert.Equal(t, "EXTENSION_MANIFEST_INVALID", r.FailCode)
}

func TestStrictSubdirManifestDoesNotCountAsRoot(t *testing.T) {
	zipBytes := buildStoredZip(map[string]string{
		"manifest.json":      `{"manifest_version":3,"name":"a","version":"1"}`,
		"sub/manifest.json":  `{"manifest_version":3,"name":"nested","version":"1"}`,
	})
	dir := t.TempDir()
	path := filepath.Join(dir, "ext.vsix")
	require.NoError(t, os.WriteFile(path, zipBytes, 0o644))

	// Only the zero-depth manifest.json counts as root (spec §9 open
	// question resolution); the nested one must not trigger a duplicate
	// failure.
	r := Analyze(req(path, ".vsix", true), false)
	require.True(t, r.IsOk())
}

func TestDirectoryManifestRoute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"),
		[]byte(`{"manifest_version":2,"name":"dirext","version":"0.1","host_permissions":["https://example.com/*"]}`), 0o644))

	r := Analyze(req(dir, "", true), true)
	require.True(t, r.IsOk())
	assert.Equal(t, int64(1), r.Summary.Counts["permissionCount"])
	assert.Equal(t, int64(1), r.Summary.Counts["hostMatchCount"])
}

func TestDirectoryManifestMissingStrictFails(t *testing.T) {
	dir := t.TempDir()
	r := Analyze(req(dir, "", true), true)
	require.False(t, r.IsOk())
	assert.Equal(t, "EXTENSION_MANIFEST_MISSING", r.FailCode)
}

func TestUnsupportedExtStrictFails(t *testing.T) {
	r := Analyze(req("/nonexistent.xyz", ".xyz", true), false)
	require.False(t, r.IsOk())
	assert.Equal(t, "EXTENSION_UNSUPPORTED_FORMAT", r.FailCode)
}

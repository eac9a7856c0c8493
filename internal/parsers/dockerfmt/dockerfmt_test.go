package dockerfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifestValid(t *testing.T) {
	data := []byte(`[{"Config":"config.json","RepoTags":["demo:latest"],"Layers":["layer.tar"]}]`)
	entries, err := ParseManifest(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.json", entries[0].Config)
	assert.Equal(t, []string{"layer.tar"}, entries[0].Layers)
}

func TestParseManifestEmptyArrayIsError(t *testing.T) {
	_, err := ParseManifest([]byte(`[]`))
	assert.Error(t, err)
}

func TestParseManifestMissingConfigIsError(t *testing.T) {
	_, err := ParseManifest([]byte(`[{"Layers":["layer.tar"]}]`))
	assert.Error(t, err)
}

func TestParseManifestMalformedJSONIsError(t *testing.T) {
	_, err := ParseManifest([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseRepositoriesValid(t *testing.T) {
	data := []byte(`{"demo":{"latest":"sha256:abc"}}`)
	repos, err := ParseRepositories(data)
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc", repos["demo"]["latest"])
}

func TestParseRepositoriesEmptyTagMapIsError(t *testing.T) {
	_, err := ParseRepositories([]byte(`{"demo":{}}`))
	assert.Error(t, err)
}

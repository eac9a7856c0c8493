// Package dockerfmt parses the manifest.json / repositories pair found at
// the top level of a `docker save` tarball, per spec §4.8.
package dockerfmt

import (
	"encoding/json"
	"fmt"
)

// ManifestEntry is one element of manifest.json's top-level array.
type ManifestEntry struct {
	Config   string   `json:"Config"`
	RepoTags []string `json:"RepoTags"`
	Layers   []string `json:"Layers"`
}

// ParseManifest decodes manifest.json. Per spec §4.8 the strict route
// requires a non-empty JSON array of objects, each with a Config string and
// a Layers string array; an error or empty array is promoted to
// CONTAINER_INDEX_INVALID by the caller.
func ParseManifest(data []byte) ([]ManifestEntry, error) {
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("dockerfmt: decode manifest.json: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("dockerfmt: manifest.json is empty")
	}
	for _, e := range entries {
		if e.Config == "" {
			return nil, fmt.Errorf("dockerfmt: manifest.json entry missing Config")
		}
		if e.Layers == nil {
			return nil, fmt.Errorf("dockerfmt: manifest.json entry missing Layers")
		}
	}
	return entries, nil
}

// Repositories is the decoded repositories file: repo -> tag -> image ID.
type Repositories map[string]map[string]string

// ParseRepositories decodes the repositories file. Per spec §4.8 the strict
// route requires a JSON object mapping repo to a non-empty tag map.
func ParseRepositories(data []byte) (Repositories, error) {
	var repos Repositories
	if err := json.Unmarshal(data, &repos); err != nil {
		return nil, fmt.Errorf("dockerfmt: decode repositories: %w", err)
	}
	for repo, tags := range repos {
		if len(tags) == 0 {
			return nil, fmt.Errorf("dockerfmt: repository %q has no tags", repo)
		}
	}
	return repos, nil
}

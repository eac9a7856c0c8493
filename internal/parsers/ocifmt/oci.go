// Package ocifmt parses the two small JSON documents that define an OCI
// image layout (oci-layout and index.json) per spec §4.8. Cross-checking a
// manifest digest against the blobs/sha256/<hex> tree is the container
// analyzer's job, since it needs the capture tree or tar entry list; this
// package only validates and decodes the JSON shape.
package ocifmt

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Layout is the decoded oci-layout document.
type Layout struct {
	ImageLayoutVersion string `json:"imageLayoutVersion"`
}

// ManifestDescriptor is one entry of index.json's manifests array.
type ManifestDescriptor struct {
	MediaType string `json:"mediaType"`
	Digest    string `json:"digest"`
	Size      int64  `json:"size"`
}

// Index is the decoded index.json document.
type Index struct {
	SchemaVersion int                  `json:"schemaVersion"`
	Manifests     []ManifestDescriptor `json:"manifests"`
}

// ParseLayout decodes an oci-layout document. An error here is promoted to
// CONTAINER_LAYOUT_INVALID by the caller on the strict route.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("ocifmt: decode oci-layout: %w", err)
	}
	if l.ImageLayoutVersion == "" {
		return nil, fmt.Errorf("ocifmt: oci-layout missing imageLayoutVersion")
	}
	return &l, nil
}

// ParseIndex decodes an index.json document. An error, or an empty
// manifests array, is promoted to CONTAINER_INDEX_INVALID by the caller on
// the strict route.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("ocifmt: decode index.json: %w", err)
	}
	if len(idx.Manifests) == 0 {
		return nil, fmt.Errorf("ocifmt: index.json has no manifests")
	}
	return &idx, nil
}

// DigestHex splits a "sha256:<hex>" digest string into its hex component.
// ok is false for any other algorithm or malformed value.
func DigestHex(digest string) (hex string, ok bool) {
	const prefix = "sha256:"
	if !strings.HasPrefix(digest, prefix) {
		return "", false
	}
	hexPart := digest[len(prefix):]
	if len(hexPart) != 64 || !isHex(hexPart) {
		return "", false
	}
	return hexPart, true
}

// BlobPath returns the expected capture-tree-relative path of a digest's
// backing blob: blobs/sha256/<hex>.
func BlobPath(digest string) (string, bool) {
	hexPart, ok := DigestHex(digest)
	if !ok {
		return "", false
	}
	return "blobs/sha256/" + hexPart, true
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// Package container implements the container analyzer from spec §4.8: OCI
// image layouts (directory or tar), Docker `save` tarballs, Compose files,
// and SBOM JSON documents.
package container

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/parsers/dockerfmt"
	"github.com/saferun/adaptcore/internal/parsers/ocifmt"
	"github.com/saferun/adaptcore/internal/parsers/tarfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
	"github.com/saferun/adaptcore/internal/textmark"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "container_adapter_v1"

var (
	reSBOMName     = regexp.MustCompile(`(?i)(sbom|spdx|cyclonedx|bom)`)
	reComposeName  = regexp.MustCompile(`(?i)^(docker-compose|compose)\.ya?ml$`)
	reServiceLine  = regexp.MustCompile(`(?m)^services\s*:`)
	reServiceKey   = regexp.MustCompile(`(?m)^  (\S[^\s:]*)\s*:\s*$`)
	reServiceImage = regexp.MustCompile(`(?im)^\s+(image|build)\s*:`)
)

// Analyze runs the container adapter against req.
func Analyze(req pipeline.Request) pipeline.RunResult {
	info, err := os.Stat(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_FORMAT_MISMATCH", "input could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	base := filepath.Base(req.Path)

	switch {
	case info.IsDir():
		return analyzeOCIDirectory(req)
	case req.Ext == ".tar":
		return analyzeTarball(req)
	case reComposeName.MatchString(base):
		return analyzeCompose(req)
	case req.Ext == ".json" && reSBOMName.MatchString(base):
		return analyzeSBOM(req)
	default:
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("CONTAINER_UNSUPPORTED_FORMAT", "input does not match a recognized container artifact shape"), nil)
		}
		return pipeline.NoOp()
	}
}

func analyzeOCIDirectory(req pipeline.Request) pipeline.RunResult {
	layoutPath := filepath.Join(req.Path, "oci-layout")
	indexPath := filepath.Join(req.Path, "index.json")

	layoutData, layoutErr := os.ReadFile(layoutPath)
	indexData, indexErr := os.ReadFile(indexPath)
	if layoutErr != nil || indexErr != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("CONTAINER_UNSUPPORTED_FORMAT", "directory is missing oci-layout or index.json"), nil)
		}
		return pipeline.NoOp()
	}

	_, layoutParseErr := ocifmt.ParseLayout(layoutData)
	index, indexParseErr := ocifmt.ParseIndex(indexData)

	if req.Strict && layoutParseErr != nil {
		return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_LAYOUT_INVALID", "oci-layout is not valid", layoutParseErr), nil)
	}
	if req.Strict && indexParseErr != nil {
		return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_INDEX_INVALID", "index.json is not valid", indexParseErr), nil)
	}

	var manifestCount, blobCount, digestRefCount, digestResolvedCount int64
	if index != nil {
		manifestCount = int64(len(index.Manifests))
		for _, m := range index.Manifests {
			digestRefCount++
			blobRel, ok := ocifmt.BlobPath(m.Digest)
			if !ok {
				if req.Strict {
					return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "manifest digest is not a well-formed sha256 reference"), nil)
				}
				continue
			}
			if _, err := os.Stat(filepath.Join(req.Path, blobRel)); err == nil {
				digestResolvedCount++
				blobCount++
			} else if req.Strict {
				return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "manifest digest has no matching blob"), nil)
			}
		}
	}

	counts := baseCounts()
	counts["ociLayoutPresent"] = 1
	counts["ociManifestCount"] = manifestCount
	counts["ociBlobCount"] = blobCount
	counts["ociManifestDigestRefCount"] = digestRefCount
	counts["ociManifestDigestResolvedCount"] = digestResolvedCount

	reasonCodes := []string{"CONTAINER_ADAPTER_V1", "CONTAINER_OCI_LAYOUT"}
	return finish(req, "oci_layout", counts, nil, reasonCodes)
}

func analyzeTarball(req pipeline.Request) pipeline.RunResult {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_FORMAT_MISMATCH", "tarball could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res := tarfmt.Parse(data)
	names := make(map[string]bool, len(res.Entries))
	for _, e := range res.Entries {
		names[e.Name] = true
	}

	if names["oci-layout"] && names["index.json"] && hasBlobEntry(names) {
		return analyzeOCITar(req, data, res, names)
	}
	if names["manifest.json"] && names["repositories"] {
		return analyzeDockerTar(req, data, res, names)
	}

	if req.Strict {
		return pipeline.Fail(pipeline.NewFail("CONTAINER_UNSUPPORTED_FORMAT", "tarball does not match an OCI or Docker image shape"), nil)
	}
	return pipeline.NoOp()
}

func hasBlobEntry(names map[string]bool) bool {
	for n := range names {
		if strings.HasPrefix(n, "blobs/sha256/") {
			return true
		}
	}
	return false
}

func analyzeOCITar(req pipeline.Request, data []byte, res *tarfmt.Result, names map[string]bool) pipeline.RunResult {
	texts, _ := tarfmt.ExtractTexts(data, res.Entries, map[string]bool{"oci-layout": true, "index.json": true})

	_, layoutErr := ocifmt.ParseLayout([]byte(texts["oci-layout"]))
	index, indexErr := ocifmt.ParseIndex([]byte(texts["index.json"]))

	if req.Strict && layoutErr != nil {
		return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_LAYOUT_INVALID", "oci-layout is not valid", layoutErr), nil)
	}
	if req.Strict && indexErr != nil {
		return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_INDEX_INVALID", "index.json is not valid", indexErr), nil)
	}

	var manifestCount, blobCount, digestRefCount, digestResolvedCount int64
	var blobCountTotal int64
	for n := range names {
		if strings.HasPrefix(n, "blobs/sha256/") {
			blobCountTotal++
		}
	}
	if index != nil {
		manifestCount = int64(len(index.Manifests))
		for _, m := range index.Manifests {
			digestRefCount++
			blobRel, ok := ocifmt.BlobPath(m.Digest)
			if !ok {
				if req.Strict {
					return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "manifest digest is not a well-formed sha256 reference"), nil)
				}
				continue
			}
			if names[blobRel] {
				digestResolvedCount++
			} else if req.Strict {
				return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "manifest digest has no matching blob entry"), nil)
			}
		}
	}
	blobCount = blobCountTotal

	counts := baseCounts()
	counts["ociTarballPresent"] = 1
	counts["tarEntryCount"] = int64(len(names))
	counts["ociManifestCount"] = manifestCount
	counts["ociBlobCount"] = blobCount
	counts["ociManifestDigestRefCount"] = digestRefCount
	counts["ociManifestDigestResolvedCount"] = digestResolvedCount

	reasonCodes := []string{"CONTAINER_ADAPTER_V1", "CONTAINER_OCI_LAYOUT", "CONTAINER_TARBALL_SCAN"}
	return finish(req, ".tar", counts, nil, reasonCodes)
}

func analyzeDockerTar(req pipeline.Request, data []byte, res *tarfmt.Result, names map[string]bool) pipeline.RunResult {
	texts, truncated := tarfmt.ExtractTexts(data, res.Entries, map[string]bool{"manifest.json": true, "repositories": true})

	entries, manifestErr := dockerfmt.ParseManifest([]byte(texts["manifest.json"]))
	_, reposErr := dockerfmt.ParseRepositories([]byte(texts["repositories"]))

	manifestValid := manifestErr == nil
	reposValid := reposErr == nil

	var layerRefCount, layerResolvedCount int64
	if manifestValid {
		for _, e := range entries {
			if !names[e.Config] {
				manifestValid = false
			}
			for _, l := range e.Layers {
				layerRefCount++
				if names[l] {
					layerResolvedCount++
				}
			}
		}
	}

	if req.Strict {
		if !manifestValid {
			return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "manifest.json does not resolve to tar entries"), nil)
		}
		if !reposValid {
			return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "repositories file is not valid"), nil)
		}
	}

	hasLayerTar := false
	for n := range names {
		if n == "layer.tar" || strings.HasSuffix(n, "/layer.tar") {
			hasLayerTar = true
			break
		}
	}
	if req.Strict && !hasLayerTar {
		return pipeline.Fail(pipeline.NewFail("CONTAINER_INDEX_INVALID", "no layer.tar entry present"), nil)
	}

	dockerLayerEntryCount := int64(0)
	for n := range names {
		if strings.HasSuffix(n, "layer.tar") {
			dockerLayerEntryCount++
		}
	}

	counts := baseCounts()
	counts["tarballScanPresent"] = 1
	counts["tarEntryCount"] = int64(len(names))
	counts["dockerLayerEntryCount"] = dockerLayerEntryCount
	counts["dockerManifestJsonValid"] = boolInt(manifestValid)
	counts["dockerRepositoriesJsonValid"] = boolInt(reposValid)
	counts["dockerManifestLayerRefCount"] = layerRefCount
	counts["dockerManifestLayerResolvedCount"] = layerResolvedCount

	reasonCodes := []string{"CONTAINER_ADAPTER_V1", "CONTAINER_TARBALL_SCAN"}
	var markers []string
	if truncated {
		markers = append(markers, "CONTAINER_TRUNCATED")
	}
	return finish(req, ".tar", counts, markers, reasonCodes)
}

func analyzeCompose(req pipeline.Request) pipeline.RunResult {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_FORMAT_MISMATCH", "compose file could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	text, _ := textmark.ToBoundedText(data)

	hasServicesBlock := reServiceLine.MatchString(text)
	serviceKeys := reServiceKey.FindAllStringSubmatch(text, pipeline.MaxListItems)

	serviceHintCount := int64(len(serviceKeys))
	var serviceWithImageOrBuild int64
	for _, section := range splitServiceSections(text) {
		if reServiceImage.MatchString(section) {
			serviceWithImageOrBuild++
		}
	}

	if req.Strict && (!hasServicesBlock || serviceWithImageOrBuild == 0) {
		return pipeline.Fail(pipeline.NewFail("CONTAINER_FORMAT_MISMATCH", "compose file has no services with image or build declarations"), nil)
	}

	imageRefCount := int64(len(regexp.MustCompile(`(?im)^\s+image\s*:`).FindAllString(text, pipeline.MaxListItems)))
	buildHintCount := int64(len(regexp.MustCompile(`(?im)^\s+build\s*:`).FindAllString(text, pipeline.MaxListItems)))

	counts := baseCounts()
	counts["composeHintPresent"] = 1
	counts["composeImageRefCount"] = imageRefCount
	counts["composeServiceHintCount"] = serviceHintCount
	counts["composeServiceWithImageOrBuildCount"] = serviceWithImageOrBuild
	counts["composeBuildHintCount"] = buildHintCount
	counts["composeServicesBlockCount"] = boolInt(hasServicesBlock)

	reasonCodes := []string{"CONTAINER_ADAPTER_V1"}
	return finish(req, filepath.Base(req.Path), counts, nil, reasonCodes)
}

func analyzeSBOM(req pipeline.Request) pipeline.RunResult {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("CONTAINER_FORMAT_MISMATCH", "SBOM file could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("CONTAINER_SBOM_INVALID", "SBOM file is not valid JSON"), nil)
		}
		return pipeline.NoOp()
	}

	packageCount := 0
	for _, key := range []string{"packages", "components"} {
		if arr, ok := doc[key].([]any); ok {
			for _, item := range arr {
				if m, ok := item.(map[string]any); ok && len(m) > 0 {
					packageCount++
				}
			}
		}
	}

	if req.Strict && packageCount == 0 {
		return pipeline.Fail(pipeline.NewFail("CONTAINER_SBOM_INVALID", "SBOM has no populated packages or components"), nil)
	}

	counts := baseCounts()
	counts["sbomPresent"] = 1
	counts["sbomPackageCount"] = int64(packageCount)

	reasonCodes := []string{"CONTAINER_ADAPTER_V1", "CONTAINER_SBOM_PRESENT"}
	return finish(req, filepath.Base(req.Path), counts, nil, reasonCodes)
}

func baseCounts() map[string]int64 {
	return map[string]int64{
		"ociLayoutPresent":                    0,
		"ociTarballPresent":                   0,
		"tarballScanPresent":                  0,
		"sbomPresent":                         0,
		"composeHintPresent":                  0,
		"ociManifestCount":                    0,
		"ociBlobCount":                        0,
		"ociManifestDigestRefCount":           0,
		"ociManifestDigestResolvedCount":      0,
		"tarEntryCount":                       0,
		"dockerLayerEntryCount":               0,
		"dockerManifestJsonValid":             0,
		"dockerRepositoriesJsonValid":         0,
		"dockerManifestLayerRefCount":         0,
		"dockerManifestLayerResolvedCount":    0,
		"composeImageRefCount":                0,
		"composeServiceHintCount":             0,
		"composeServiceWithImageOrBuildCount": 0,
		"composeBuildHintCount":               0,
		"composeServicesBlockCount":           0,
		"sbomPackageCount":                    0,
	}
}

func finish(req pipeline.Request, format string, counts map[string]int64, markers, reasonCodes []string) pipeline.RunResult {
	summary := shared.BuildSummary(AdapterID, "container", format, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "container", nil, markers)
	meta := shared.Meta(AdapterID, format, pipeline.ModeBuiltIn, reasonCodes)
	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func splitServiceSections(text string) []string {
	idx := reServiceLine.FindStringIndex(text)
	if idx == nil {
		return nil
	}
	body := text[idx[1]:]
	keyIdxs := reServiceKey.FindAllStringIndex(body, -1)
	var sections []string
	for i, k := range keyIdxs {
		start := k[1]
		end := len(body)
		if i+1 < len(keyIdxs) {
			end = keyIdxs[i+1][0]
		}
		sections = append(sections, body[start:end])
	}
	return sections
}

// Package extension implements the browser/WebExtension analyzer from
// spec §4.5: CRX/VSIX/XPI (all ZIP-based, CRX unwrapped first) and bare
// manifest.json directories.
package extension

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/parsers/crxfmt"
	"github.com/saferun/adaptcore/internal/parsers/zipfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
	"github.com/saferun/adaptcore/internal/textmark"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "extension_adapter_v1"

var supportedExts = map[string]bool{".crx": true, ".vsix": true, ".xpi": true}

type manifest struct {
	ManifestVersion int             `json:"manifest_version"`
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	Permissions     []string        `json:"permissions"`
	HostPermissions []string        `json:"host_permissions"`
	ContentScripts  []contentScript `json:"content_scripts"`
	UpdateURL       string          `json:"update_url"`
}

type contentScript struct {
	Matches []string `json:"matches"`
}

// Analyze runs the extension adapter against req. IsDirectoryManifest lets
// the dispatcher route a bare directory containing a root manifest.json
// here even though it carries no recognized extension.
func Analyze(req pipeline.Request, isDirectoryManifest bool) pipeline.RunResult {
	if !supportedExts[req.Ext] && !isDirectoryManifest {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("EXTENSION_UNSUPPORTED_FORMAT", "input is not a supported extension format"), nil)
		}
		return pipeline.NoOp()
	}

	if isDirectoryManifest {
		return analyzeDirectory(req)
	}
	return analyzeArchive(req)
}

func analyzeDirectory(req pipeline.Request) pipeline.RunResult {
	manifestPath := filepath.Join(req.Path, "manifest.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("EXTENSION_MANIFEST_MISSING", "no manifest.json found at the extension root"), nil)
		}
		return pipeline.NoOp()
	}
	return finishWithManifest(req, ".manifest.json", pipeline.ModeBuiltIn, data, nil)
}

func analyzeArchive(req pipeline.Request) pipeline.RunResult {
	raw, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("EXTENSION_FORMAT_MISMATCH", "extension package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	zipBytes := raw
	if req.Ext == ".crx" {
		crx := crxfmt.Parse(raw)
		if !crx.Valid || crx.PayloadFrom >= len(raw) {
			if req.Strict {
				return pipeline.Fail(pipeline.NewFail("EXTENSION_FORMAT_MISMATCH", "CRX header did not validate"), nil)
			}
			return pipeline.NoOp()
		}
		zipBytes = raw[crx.PayloadFrom:]
	}

	res, err := zipfmt.Parse(zipBytes)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("EXTENSION_FORMAT_MISMATCH", "extension ZIP payload could not be parsed", err), nil)
		}
		return pipeline.NoOp()
	}

	names := make([]string, 0, len(res.Entries))
	var rootManifests []zipfmt.Entry
	for _, e := range res.Entries {
		names = append(names, e.Name)
		if e.Name == "manifest.json" {
			rootManifests = append(rootManifests, e)
		}
	}

	if req.Strict && shared.HasCaseInsensitiveCollision(names) {
		return pipeline.Fail(pipeline.NewFail("EXTENSION_FORMAT_MISMATCH", "extension contains case-colliding entry paths"), nil)
	}
	if len(rootManifests) > 1 {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("EXTENSION_FORMAT_MISMATCH", "extension carries duplicate root manifest.json entries"), nil)
		}
		return pipeline.NoOp()
	}
	if len(rootManifests) == 0 {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("EXTENSION_MANIFEST_MISSING", "no manifest.json found at the extension package root"), nil)
		}
		return pipeline.NoOp()
	}

	texts := zipfmt.ExtractTexts(zipBytes, res.Entries, map[string]bool{"manifest.json": true})
	data, ok := texts["manifest.json"]
	if !ok {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("EXTENSION_MANIFEST_INVALID", "manifest.json could not be extracted"), nil)
		}
		return pipeline.NoOp()
	}

	var markers []string
	truncated := len(names) > pipeline.MaxListItems || req.Capture.Truncated
	if truncated {
		markers = append(markers, "EXTENSION_TRUNCATED")
	}

	return finishWithManifest(req, req.Ext, pipeline.ModeBuiltIn, []byte(data), markers)
}

func finishWithManifest(req pipeline.Request, format string, mode pipeline.Mode, data []byte, markers []string) pipeline.RunResult {
	bounded, truncated := textmark.ToBoundedText(data)
	if truncated {
		markers = append(markers, "EXTENSION_TRUNCATED")
	}

	var m manifest
	if err := json.Unmarshal([]byte(bounded), &m); err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("EXTENSION_MANIFEST_INVALID", "manifest.json is not valid JSON", err), nil)
		}
		return pipeline.NoOp()
	}

	valid := (m.ManifestVersion == 2 || m.ManifestVersion == 3) &&
		strings.TrimSpace(m.Name) != "" && strings.TrimSpace(m.Version) != ""

	if req.Strict && !valid {
		return pipeline.Fail(pipeline.NewFail("EXTENSION_MANIFEST_INVALID", "manifest.json is missing required fields"), nil)
	}

	permissionCount := int64(len(m.Permissions) + len(m.HostPermissions))
	contentScriptCount := int64(len(m.ContentScripts))

	hostMatchCount := int64(len(m.HostPermissions))
	for _, cs := range m.ContentScripts {
		hostMatchCount += int64(len(cs.Matches))
	}

	externalDomainCount := int64(0)
	if textmark.HostFromURL(m.UpdateURL) != "" {
		externalDomainCount = 1
	}

	manifestFound := int64(0)
	if valid {
		manifestFound = 1
	}

	counts := map[string]int64{
		"manifestFound":       manifestFound,
		"permissionCount":     permissionCount,
		"contentScriptCount":  contentScriptCount,
		"hostMatchCount":      hostMatchCount,
		"externalDomainCount": externalDomainCount,
	}
	reasonCodes := []string{"EXTENSION_ADAPTER_V1"}

	summary := shared.BuildSummary(AdapterID, "extension", format, mode, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "extension", nil, markers)
	meta := shared.Meta(AdapterID, format, mode, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

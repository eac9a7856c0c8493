// Package archive implements the archive-class analyzer from spec §4.3:
// ZIP and TAR via bespoke parsers, .tar.* and .7z via external plugins.
package archive

import (
	"os"
	"strings"

	"github.com/saferun/adaptcore/internal/exectool"
	"github.com/saferun/adaptcore/internal/extnorm"
	"github.com/saferun/adaptcore/internal/parsers/tarfmt"
	"github.com/saferun/adaptcore/internal/parsers/zipfmt"
	"github.com/saferun/adaptcore/internal/pipeline"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "archive_adapter_v1"

var supportedExts = map[string]bool{
	".zip": true, ".tar": true, ".tar.gz": true, ".tgz": true,
	".tar.bz2": true, ".tar.xz": true, ".txz": true, ".7z": true,
}

var zipSignatures = [][]byte{
	[]byte("PK\x03\x04"), // local file header
	[]byte("PK\x05\x06"), // empty archive
	[]byte("PK\x07\x08"), // spanned archive
}

// Analyze runs the archive adapter against req.
func Analyze(req pipeline.Request) pipeline.RunResult {
	if !supportedExts[req.Ext] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("ARCHIVE_UNSUPPORTED_FORMAT", "input extension is not a supported archive format"), nil)
		}
		return pipeline.NoOp()
	}

	switch req.Ext {
	case ".zip":
		return analyzeZip(req)
	case ".tar":
		return analyzeTar(req)
	case ".7z":
		return analyzeSevenZip(req)
	default: // .tar.gz, .tgz, .tar.bz2, .tar.xz, .txz
		return analyzePluginTar(req)
	}
}

func analyzeZip(req pipeline.Request) pipeline.RunResult {
	head, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("ARCHIVE_FORMAT_MISMATCH", "archive could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	if req.Strict && !hasZipSignature(head) {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "file does not begin with a ZIP signature"), nil)
	}

	res, err := zipfmt.Parse(head)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("ARCHIVE_FORMAT_MISMATCH", "ZIP central directory could not be located", err), nil)
		}
		return pipeline.NoOp()
	}

	names := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}

	if req.Strict && res.Partial {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "ZIP metadata is incomplete"), nil)
	}
	if req.Strict && shared.HasCaseInsensitiveCollision(names) {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "ZIP contains case-colliding entry paths"), nil)
	}

	truncated := len(names) > pipeline.MaxListItems || req.Capture.Truncated
	return buildOk(req, ".zip", pipeline.ModeBuiltIn, names, res.Partial, truncated)
}

func analyzeTar(req pipeline.Request) pipeline.RunResult {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("ARCHIVE_FORMAT_MISMATCH", "archive could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res := tarfmt.Parse(data)
	names := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}

	if req.Strict && res.Partial {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "TAR metadata is incomplete"), nil)
	}
	if req.Strict && shared.HasCaseInsensitiveCollision(names) {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "TAR contains case-colliding entry paths"), nil)
	}

	truncated := len(names) > pipeline.MaxListItems || req.Capture.Truncated
	return buildOk(req, ".tar", pipeline.ModeBuiltIn, names, res.Partial, truncated)
}

func analyzeSevenZip(req pipeline.Request) pipeline.RunResult {
	if !req.Plugins["7z"] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("ARCHIVE_PLUGIN_REQUIRED", "the 7z plugin is required to inspect .7z archives"), nil)
		}
		return pipeline.NoOp()
	}

	result := exectool.Run(req.Ctx, exectool.DefaultTimeout, "7z", "l", "-slt", req.Path)
	if result.Unavailable || result.ExitCode != 0 {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("ARCHIVE_PLUGIN_UNAVAILABLE", "the 7z tool is unavailable or failed"), nil)
		}
		return pipeline.NoOp()
	}

	var names []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		const prefix = "Path = "
		if strings.HasPrefix(line, prefix) {
			names = append(names, zipfmt.CanonicalPath(strings.TrimPrefix(line, prefix)))
		}
	}

	if req.Strict && shared.HasCaseInsensitiveCollision(names) {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "archive contains case-colliding entry paths"), nil)
	}

	truncated := len(names) > pipeline.MaxListItems || req.Capture.Truncated
	return buildOk(req, ".7z", pipeline.ModePlugin, names, false, truncated)
}

func analyzePluginTar(req pipeline.Request) pipeline.RunResult {
	if !req.Plugins["tar"] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("ARCHIVE_PLUGIN_REQUIRED", "the tar plugin is required to inspect compressed tarballs"), nil)
		}
		return pipeline.NoOp()
	}

	result := exectool.Run(req.Ctx, exectool.DefaultTimeout, "tar", "-tf", req.Path)
	if result.Unavailable || result.ExitCode != 0 {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("ARCHIVE_PLUGIN_UNAVAILABLE", "the tar tool is unavailable or failed"), nil)
		}
		return pipeline.NoOp()
	}

	var names []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		names = append(names, tarfmt.CanonicalPath(line))
	}

	if req.Strict && shared.HasCaseInsensitiveCollision(names) {
		return pipeline.Fail(pipeline.NewFail("ARCHIVE_FORMAT_MISMATCH", "archive contains case-colliding entry paths"), nil)
	}

	truncated := len(names) > pipeline.MaxListItems || req.Capture.Truncated
	return buildOk(req, req.Ext, pipeline.ModePlugin, names, false, truncated)
}

func buildOk(req pipeline.Request, format string, mode pipeline.Mode, names []string, partial, truncated bool) pipeline.RunResult {
	entryCount := int64(len(names))
	nestedArchiveCount := int64(0)
	maxDepth := int64(0)
	for _, n := range names {
		if extnorm.IsArchiveExt(extnorm.Normalize(n)) {
			nestedArchiveCount++
		}
		if d := int64(shared.PathDepth(n)); d > maxDepth {
			maxDepth = d
		}
	}

	counts := map[string]int64{
		"entryCount":         entryCount,
		"nestedArchiveCount": nestedArchiveCount,
		"maxDepth":           maxDepth,
	}

	var markers []string
	if truncated {
		markers = append(markers, "ARCHIVE_TRUNCATED")
	}
	if partial {
		markers = append(markers, "ARCHIVE_METADATA_PARTIAL")
	}

	reasonCodes := []string{"ARCHIVE_ADAPTER_V1"}

	var findings []pipeline.Finding
	if nestedArchiveCount > 0 {
		findings = append(findings, pipeline.Finding{Code: "ARCHIVE_NESTED_ENTRY", Count: nestedArchiveCount})
	}

	summary := shared.BuildSummary(AdapterID, "archive", format, mode, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "archive", findings, markers)
	meta := shared.Meta(AdapterID, format, mode, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

func hasZipSignature(head []byte) bool {
	for _, sig := range zipSignatures {
		if len(head) >= len(sig) && string(head[:len(sig)]) == string(sig) {
			return true
		}
	}
	return false
}

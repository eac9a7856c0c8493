// Package dispatch implements the dispatcher and plugin gate from spec
// §4.1: resolving a (path, selection, enabledPlugins) triple to exactly one
// adapter class, validating the requested plugin set against that class,
// and handing off to the selected class analyzer.
package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/saferun/adaptcore/internal/analyzers/archive"
	"github.com/saferun/adaptcore/internal/analyzers/container"
	"github.com/saferun/adaptcore/internal/analyzers/document"
	"github.com/saferun/adaptcore/internal/analyzers/extension"
	"github.com/saferun/adaptcore/internal/analyzers/iaccicd"
	"github.com/saferun/adaptcore/internal/analyzers/image"
	"github.com/saferun/adaptcore/internal/analyzers/pkgclass"
	"github.com/saferun/adaptcore/internal/analyzers/scm"
	"github.com/saferun/adaptcore/internal/analyzers/signature"
	"github.com/saferun/adaptcore/internal/capturetree"
	"github.com/saferun/adaptcore/internal/extnorm"
	"github.com/saferun/adaptcore/internal/parsers/gitfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
)

// Input bundles everything the dispatcher needs to resolve and run one
// adapter invocation.
type Input struct {
	Ctx            context.Context
	Path           string
	Selection      pipeline.Selection
	EnabledPlugins []string
	Capture        capturetree.Tree
}

var allowedPlugins = map[string]bool{"tar": true, "7z": true}

var iacExts = map[string]bool{
	".tf": true, ".tfvars": true, ".hcl": true, ".bicep": true, ".template": true,
}

var reGitlabCI = regexp.MustCompile(`(?i)^\.gitlab-ci.*$`)
var reAzurePipelines = regexp.MustCompile(`(?i)^azure-pipelines.*$`)
var reSBOMName = regexp.MustCompile(`(?i)(sbom|spdx|cyclonedx|bom)`)
var reComposeName = regexp.MustCompile(`(?i)^(docker-compose|compose)\.ya?ml$`)

// RunAdapter resolves in.Selection to a single adapter class, validates the
// plugin set against that class, and runs the selected analyzer.
func RunAdapter(in Input) pipeline.RunResult {
	plugins, err := normalizePlugins(in.EnabledPlugins)
	if err != nil {
		return pipeline.Fail(err, nil)
	}

	if in.Selection == pipeline.SelectionNone {
		if len(plugins) > 0 {
			return pipeline.Fail(pipeline.NewFail("ADAPTER_PLUGIN_UNUSED", "plugins were requested with selection=none"), nil)
		}
		return pipeline.NoOp()
	}

	class, isDirManifest := resolveClass(in)
	if class == "" {
		if len(plugins) > 0 {
			return pipeline.Fail(pipeline.NewFail("ADAPTER_PLUGIN_UNUSED", "plugins were requested but no adapter class matched the input"), nil)
		}
		return pipeline.NoOp()
	}

	ext := extnorm.Normalize(in.Path)
	if len(plugins) > 0 {
		// Plugin gate law (spec §8): selection != archive with plugins
		// requested is always ADAPTER_PLUGIN_UNUSED, even for the package
		// adapter's own tar-backed tarball-installer route (spec §4.4),
		// which as a consequence can only ever observe an empty plugin set
		// and reports PACKAGE_PLUGIN_REQUIRED/NoOp accordingly.
		if class != "archive" {
			return pipeline.Fail(pipeline.NewFail("ADAPTER_PLUGIN_UNUSED", "plugins are only meaningful for the archive adapter class"), nil)
		}
		allowed := pluginsAllowedForClassExt(class, ext)
		for name := range plugins {
			if !allowed[name] {
				return pipeline.Fail(pipeline.NewFail("ADAPTER_PLUGIN_UNUSED", "requested plugin does not apply to the detected archive format"), nil)
			}
		}
	}

	req := pipeline.Request{
		Ctx:     in.Ctx,
		Path:    in.Path,
		Ext:     ext,
		Strict:  in.Selection != pipeline.SelectionAuto,
		Capture: in.Capture,
		Plugins: plugins,
	}

	switch class {
	case "archive":
		return archive.Analyze(req)
	case "package":
		return pkgclass.Analyze(req)
	case "extension":
		return extension.Analyze(req, isDirManifest)
	case "iac":
		return iaccicd.Analyze(req, iaccicd.ClassIaC)
	case "cicd":
		return iaccicd.Analyze(req, iaccicd.ClassCICD)
	case "document":
		return document.Analyze(req)
	case "container":
		return container.Analyze(req)
	case "image":
		return image.Analyze(req)
	case "scm":
		return scm.Analyze(req)
	case "signature":
		return signature.Analyze(req)
	default:
		return pipeline.NoOp()
	}
}

// normalizePlugins lowercases and trims every requested plugin name,
// rejecting unknown names and duplicates per spec §4.1 steps 1-3.
func normalizePlugins(raw []string) (map[string]bool, *pipeline.AdapterError) {
	plugins := make(map[string]bool, len(raw))
	for _, p := range raw {
		name := strings.ToLower(strings.TrimSpace(p))
		if !allowedPlugins[name] {
			return nil, pipeline.NewFail("ADAPTER_PLUGIN_UNKNOWN", "requested plugin is not in the supported set {tar, 7z}")
		}
		if plugins[name] {
			return nil, pipeline.NewFail("ADAPTER_PLUGIN_DUPLICATE", "the same plugin was requested more than once")
		}
		plugins[name] = true
	}
	return plugins, nil
}

// pluginsAllowedForClassExt returns the plugin names that apply to the
// archive adapter's handling of ext: tar for compressed tarballs, 7z for
// .7z (spec §4.3). Called only once class=="archive" is already confirmed.
func pluginsAllowedForClassExt(class, ext string) map[string]bool {
	if class != "archive" {
		return nil
	}
	switch ext {
	case ".7z":
		return map[string]bool{"7z": true}
	case ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".txz":
		return map[string]bool{"tar": true}
	default:
		return nil
	}
}

// resolveClass maps in.Selection to a concrete adapter class: the literal
// selection when one was given, or the result of autoSelectClass when
// selection=auto. isDirManifest is only meaningful for class=="extension".
func resolveClass(in Input) (class string, isDirManifest bool) {
	if in.Selection != pipeline.SelectionAuto {
		class = string(in.Selection)
		if class == "extension" {
			isDirManifest = isDirectoryWithManifest(in.Path)
		}
		return class, isDirManifest
	}
	return autoSelectClass(in)
}

// autoSelectClass implements the priority order from spec §4.1: first
// match wins.
func autoSelectClass(in Input) (class string, isDirManifest bool) {
	ext := extnorm.Normalize(in.Path)
	base := filepath.Base(in.Path)

	if isDirectoryWithManifest(in.Path) {
		return "extension", true
	}
	if ext == ".crx" || ext == ".vsix" || ext == ".xpi" {
		return "extension", false
	}

	if pkgclassExts[ext] {
		return "package", false
	}
	if archiveExts[ext] {
		return "archive", false
	}

	if hasCICDPathHint(in.Path) {
		return "cicd", false
	}

	if iacExts[ext] {
		return "iac", false
	}

	if documentExts[ext] {
		return "document", false
	}

	if signatureExts[ext] {
		return "signature", false
	}

	if in.Capture.HasGit() || gitDirPresent(in.Path) {
		return "scm", false
	}

	if isOCIDirectory(in.Path) {
		return "container", false
	}
	if ext == ".json" && reSBOMName.MatchString(base) {
		return "container", false
	}
	if reComposeName.MatchString(base) {
		return "container", false
	}

	if imageExts[ext] {
		return "image", false
	}

	return "", false
}

var pkgclassExts = map[string]bool{
	".msi": true, ".msix": true, ".exe": true, ".nupkg": true, ".whl": true,
	".jar": true, ".tar.gz": true, ".tgz": true, ".tar.xz": true, ".txz": true,
	".deb": true, ".rpm": true, ".appimage": true, ".pkg": true, ".dmg": true,
}

var archiveExts = map[string]bool{
	".zip": true, ".tar": true, ".7z": true,
}

var documentExts = map[string]bool{
	".pdf": true, ".docm": true, ".xlsm": true, ".rtf": true, ".chm": true,
}

var signatureExts = map[string]bool{
	".cer": true, ".crt": true, ".pem": true, ".p7b": true, ".sig": true,
}

var imageExts = map[string]bool{
	".iso": true, ".vhd": true, ".vhdx": true, ".vmdk": true, ".qcow2": true,
}

func isDirectoryWithManifest(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, err = os.Stat(filepath.Join(path, "manifest.json"))
	return err == nil
}

func gitDirPresent(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, ok := gitfmt.ResolveGitDir(path)
	return ok
}

func isOCIDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	_, layoutErr := os.Stat(filepath.Join(path, "oci-layout"))
	_, indexErr := os.Stat(filepath.Join(path, "index.json"))
	return layoutErr == nil && indexErr == nil
}

func hasCICDPathHint(path string) bool {
	slash := filepath.ToSlash(path)
	if strings.Contains(slash, "/.github/workflows/") || strings.HasPrefix(slash, ".github/workflows/") {
		return true
	}
	base := filepath.Base(path)
	return reGitlabCI.MatchString(base) || reAzurePipelines.MatchString(base)
}

// SortedPluginNames returns the closed plugin vocabulary in sorted order,
// used by the capability package to enumerate plugin availability.
func SortedPluginNames() []string {
	names := make([]string, 0, len(allowedPlugins))
	for n := range allowedPlugins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

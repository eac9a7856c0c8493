// Package pkgclass implements the package-class analyzer from spec §4.4:
// installer formats (MSI, MSIX, EXE, NUPKG, WHL, JAR, DEB, RPM, AppImage,
// PKG, DMG) and the plugin-gated compressed-tarball installer forms.
package pkgclass

import (
	"os"
	"strings"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/byteio"
	"github.com/saferun/adaptcore/internal/parsers/appimagefmt"
	"github.com/saferun/adaptcore/internal/parsers/arfmt"
	"github.com/saferun/adaptcore/internal/parsers/cfbfmt"
	"github.com/saferun/adaptcore/internal/parsers/dmgfmt"
	"github.com/saferun/adaptcore/internal/parsers/pefmt"
	"github.com/saferun/adaptcore/internal/parsers/rpmfmt"
	"github.com/saferun/adaptcore/internal/parsers/xarfmt"
	"github.com/saferun/adaptcore/internal/parsers/zipfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
	"github.com/saferun/adaptcore/internal/textmark"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "package_adapter_v1"

var supportedExts = map[string]bool{
	".msi": true, ".msix": true, ".exe": true, ".nupkg": true, ".whl": true,
	".jar": true, ".tar.gz": true, ".tgz": true, ".tar.xz": true, ".txz": true,
	".deb": true, ".rpm": true, ".appimage": true, ".pkg": true, ".dmg": true,
}

var manifestIndicators = []string{
	"package.json", "manifest.json", "appxmanifest.xml", "nuspec", "metadata",
	"pkg-info", "manifest.mf", "pom.xml", "setup.py", "debian-binary",
	"control.tar", "data.tar",
}

var scriptIndicators = []string{
	"preinstall", "postinstall", "install.ps1", "setup.py", "scripts/",
	"preinst", "postinst", "prerm", "postrm",
}

var permissionIndicators = []string{
	"permission", "capability", "policy", "selinux", "apparmor",
}

var signatureEntrySuffixes = []string{".sig", ".asc", ".p7s", ".p7x"}

// Analyze runs the package adapter against req.
func Analyze(req pipeline.Request) pipeline.RunResult {
	if !supportedExts[req.Ext] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("PACKAGE_UNSUPPORTED_FORMAT", "input extension is not a supported package format"), nil)
		}
		return pipeline.NoOp()
	}

	switch req.Ext {
	case ".msix", ".nupkg", ".whl", ".jar":
		return analyzeZipInstaller(req)
	case ".deb":
		return analyzeDeb(req)
	case ".rpm":
		return analyzeRPM(req)
	case ".appimage":
		return analyzeAppImage(req)
	case ".pkg":
		return analyzePkg(req)
	case ".dmg":
		return analyzeDmg(req)
	case ".msi":
		return analyzeMsi(req)
	case ".exe":
		return analyzeExe(req)
	default: // .tar.gz, .tgz, .tar.xz, .txz
		return analyzePluginTarball(req)
	}
}

func analyzeZipInstaller(req pipeline.Request) pipeline.RunResult {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res, err := zipfmt.Parse(data)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package ZIP could not be parsed", err), nil)
		}
		return pipeline.NoOp()
	}

	names := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}

	rootsOK, minSizeOK := rootCheck(req.Ext, names, int64(len(data)))

	if req.Strict {
		if res.Partial {
			return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "package metadata is incomplete"), nil)
		}
		if shared.HasCaseInsensitiveCollision(names) {
			return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "package contains case-colliding entry paths"), nil)
		}
		if !rootsOK || !minSizeOK {
			return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "package does not carry the required root manifest files"), nil)
		}
	}

	signaturePresent := false
	for _, n := range names {
		lower := strings.ToLower(n)
		if lower == "appxsignature.p7x" {
			signaturePresent = true
			break
		}
		for _, suffix := range signatureEntrySuffixes {
			if strings.HasSuffix(lower, suffix) {
				signaturePresent = true
				break
			}
		}
	}

	manifestNames := manifestLikeNames(names)
	texts := zipfmt.ExtractTexts(data, res.Entries, manifestNames)
	manifestCount, scriptHintCount, permissionHintCount, externalDomains := scanIndicators(names, texts)

	counts := map[string]int64{
		"manifestCount":       manifestCount,
		"scriptHintCount":     scriptHintCount,
		"permissionHintCount": permissionHintCount,
		"externalDomainCount": int64(len(externalDomains)),
	}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER"}
	if signaturePresent {
		reasonCodes = append(reasonCodes, "PACKAGE_SIGNING_INFO_PRESENT")
	} else {
		reasonCodes = append(reasonCodes, "PACKAGE_SIGNING_INFO_UNAVAILABLE")
	}

	var markers []string
	if res.Partial {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}
	if len(names) > pipeline.MaxListItems || req.Capture.Truncated {
		markers = append(markers, "PACKAGE_TRUNCATED")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

// rootCheck validates the format-specific root manifest rules from spec
// §4.4 and the structural minimum sizes.
func rootCheck(ext string, names []string, fileSize int64) (rootsOK, minSizeOK bool) {
	has := func(name string) bool {
		for _, n := range names {
			if n == name {
				return true
			}
		}
		return false
	}
	hasSuffixAtRoot := func(suffix string) bool {
		for _, n := range names {
			if !strings.Contains(n, "/") && strings.HasSuffix(strings.ToLower(n), suffix) {
				return true
			}
		}
		return false
	}

	switch ext {
	case ".msix":
		rootsOK = (has("AppxManifest.xml") || has("AppxBundleManifest.xml")) && has("[Content_Types].xml")
		minSizeOK = fileSize >= 512
	case ".nupkg":
		rootsOK = hasSuffixAtRoot(".nuspec")
		minSizeOK = fileSize >= 256
	case ".whl":
		hasDistInfoMetadata, hasWheel, hasRecord := false, false, false
		for _, n := range names {
			lower := strings.ToLower(n)
			if strings.HasSuffix(lower, ".dist-info/metadata") {
				hasDistInfoMetadata = true
			}
			if lower == "wheel" || strings.HasSuffix(lower, ".dist-info/wheel") {
				hasWheel = true
			}
			if lower == "record" || strings.HasSuffix(lower, ".dist-info/record") {
				hasRecord = true
			}
		}
		rootsOK = hasDistInfoMetadata && hasWheel && hasRecord
		minSizeOK = true
	case ".jar":
		rootsOK = has("META-INF/MANIFEST.MF")
		minSizeOK = fileSize >= 256
	}
	return rootsOK, minSizeOK
}

func manifestLikeNames(names []string) map[string]bool {
	want := make(map[string]bool)
	for _, n := range names {
		lower := strings.ToLower(n)
		for _, ind := range manifestIndicators {
			if strings.Contains(lower, ind) {
				want[n] = true
				break
			}
		}
	}
	return want
}

func scanIndicators(names []string, texts map[string]string) (manifestCount, scriptHintCount, permissionHintCount int64, externalDomains []string) {
	for _, n := range names {
		lower := strings.ToLower(n)
		for _, ind := range manifestIndicators {
			if strings.Contains(lower, ind) {
				manifestCount++
				break
			}
		}
		for _, ind := range scriptIndicators {
			if strings.Contains(lower, ind) {
				scriptHintCount++
				break
			}
		}
		for _, ind := range permissionIndicators {
			if strings.Contains(lower, ind) {
				permissionHintCount++
				break
			}
		}
	}

	seen := make(map[string]bool)
	for _, text := range texts {
		bounded, _ := textmark.ToBoundedText([]byte(text))
		lower := strings.ToLower(bounded)
		for _, ind := range scriptIndicators {
			if strings.Contains(lower, ind) {
				scriptHintCount++
				break
			}
		}
		for _, ind := range permissionIndicators {
			if strings.Contains(lower, ind) {
				permissionHintCount++
				break
			}
		}
		for _, host := range textmark.ExtractHosts(bounded, 64) {
			if !seen[host] {
				seen[host] = true
				externalDomains = append(externalDomains, host)
			}
		}
	}

	return manifestCount, scriptHintCount, permissionHintCount, externalDomains
}

func analyzeDeb(req pipeline.Request) pipeline.RunResult {
	res, err := arfmt.ParseFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	size, _ := byteio.FileSize(req.Path)

	names := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		names = append(names, e.Name)
	}

	orderedOK := res.Valid && len(names) >= 3 &&
		names[0] == "debian-binary" &&
		strings.HasPrefix(names[1], "control.tar") &&
		strings.HasPrefix(names[2], "data.tar")

	if req.Strict {
		if !orderedOK || size < 256 {
			return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "deb does not carry the expected ordered AR members"), nil)
		}
	}

	manifestCount, scriptHintCount, permissionHintCount, _ := scanIndicators(names, nil)
	counts := map[string]int64{
		"manifestCount":       manifestCount,
		"scriptHintCount":     scriptHintCount,
		"permissionHintCount": permissionHintCount,
	}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER", "PACKAGE_SIGNING_INFO_UNAVAILABLE"}

	var markers []string
	if res.Truncated {
		markers = append(markers, "PACKAGE_TRUNCATED")
	}
	if !res.Valid {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzeRPM(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, rpmfmt.SigningScanBytes)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res := rpmfmt.Parse(head)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "RPM lead/header magic did not validate"), nil)
	}

	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER"}
	if res.SigningHint {
		reasonCodes = append(reasonCodes, "PACKAGE_SIGNING_INFO_PRESENT")
	} else {
		reasonCodes = append(reasonCodes, "PACKAGE_SIGNING_INFO_UNAVAILABLE")
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	var markers []string
	if !res.Valid {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzeAppImage(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, 64)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res := appimagefmt.Parse(head)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "ELF/AppImage runtime marker did not validate"), nil)
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER", "PACKAGE_SIGNING_INFO_UNAVAILABLE"}
	var markers []string
	if !res.Valid {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzePkg(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, 4096)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res := xarfmt.Parse(head)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "XAR header did not validate"), nil)
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER", "PACKAGE_SIGNING_INFO_UNAVAILABLE"}
	var markers []string
	if !res.Valid {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzeDmg(req pipeline.Request) pipeline.RunResult {
	tail, err := byteio.ReadTail(req.Path, 512)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	res := dmgfmt.Parse(tail)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "DMG trailer marker did not validate"), nil)
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER", "PACKAGE_SIGNING_INFO_UNAVAILABLE"}
	var markers []string
	if !res.Valid {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzeMsi(req pipeline.Request) pipeline.RunResult {
	head, err := byteio.ReadHead(req.Path, 512)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}
	size, _ := byteio.FileSize(req.Path)

	res := cfbfmt.Parse(head, size)
	if req.Strict && !res.Valid {
		return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "CFB/MSI header did not validate"), nil)
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER", "PACKAGE_SIGNING_INFO_UNAVAILABLE"}
	var markers []string
	if !res.Valid {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzeExe(req pipeline.Request) pipeline.RunResult {
	res, err := pefmt.ParseFile(req.Path)
	if err != nil {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFailWrap("PACKAGE_FORMAT_MISMATCH", "package could not be read", err), nil)
		}
		return pipeline.NoOp()
	}

	if req.Strict && (!res.Valid || res.Partial) {
		return pipeline.Fail(pipeline.NewFail("PACKAGE_FORMAT_MISMATCH", "PE/COFF header did not validate"), nil)
	}

	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER"}
	if res.PESignaturePresent {
		reasonCodes = append(reasonCodes, "PACKAGE_SIGNING_INFO_PRESENT")
	} else {
		reasonCodes = append(reasonCodes, "PACKAGE_SIGNING_INFO_UNAVAILABLE")
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	var markers []string
	if res.Partial {
		markers = append(markers, "PACKAGE_METADATA_PARTIAL")
	}

	return buildOk(req, pipeline.ModeBuiltIn, counts, markers, reasonCodes)
}

func analyzePluginTarball(req pipeline.Request) pipeline.RunResult {
	if !req.Plugins["tar"] {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("PACKAGE_PLUGIN_REQUIRED", "the tar plugin is required to inspect compressed tarball installers"), nil)
		}
		return pipeline.NoOp()
	}

	counts := map[string]int64{"manifestCount": 0, "scriptHintCount": 0, "permissionHintCount": 0}
	reasonCodes := []string{"PACKAGE_ADAPTER_V1", "EXECUTION_WITHHELD_INSTALLER", "PACKAGE_SIGNING_INFO_UNAVAILABLE"}
	return buildOk(req, pipeline.ModePlugin, counts, nil, reasonCodes)
}

func buildOk(req pipeline.Request, mode pipeline.Mode, counts map[string]int64, markers, reasonCodes []string) pipeline.RunResult {
	summary := shared.BuildSummary(AdapterID, "package", req.Ext, mode, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "package", nil, markers)
	meta := shared.Meta(AdapterID, req.Ext, mode, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

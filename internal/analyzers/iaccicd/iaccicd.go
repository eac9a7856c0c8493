// Package iaccicd implements the combined IaC and CI/CD analyzer from
// spec §4.6: a shared pattern scan over a text file or a capped directory
// tree, with class resolution (iac vs cicd) left to the caller.
package iaccicd

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/pipeline"
	"github.com/saferun/adaptcore/internal/textmark"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "iaccicd_adapter_v1"

// MaxScanFiles bounds the directory-tree scan (spec §4.6: "cap 256 files").
const MaxScanFiles = 256

// scanGlob is the spec §4.6 directory-tree restriction expressed as a
// single doublestar brace-alternation pattern, matched against each
// capture-tree entry's slash-normalized relative path.
const scanGlob = "**/*.{tf,tfvars,hcl,yaml,yml,json,bicep,template}"

var (
	reStructuralIaC = regexp.MustCompile(`(?i)^(terraform|provider|resource|module|variable|output)\b`)
	reK8sStructural = regexp.MustCompile(`(?m)^(apiVersion|kind)\s*:`)
	reCFNStructural = regexp.MustCompile(`AWSTemplateFormatVersion`)
	reResourcesKey  = regexp.MustCompile(`"resources"\s*:`)
	reServicesTop   = regexp.MustCompile(`(?m)^services\s*:`)

	rePrivileged = regexp.MustCompile(`(?i)(privileged\s*:\s*true|allowPrivilegeEscalation\s*:\s*true|host(Network|PID|IPC)\s*:\s*true|runAsUser\s*:\s*0|sys_admin|net_admin)`)

	reSecretKeyword = regexp.MustCompile(`(?i)\b(secret|password|token|api[_-]?key)\b`)
	reSecretKV      = regexp.MustCompile(`(?i)(secret|password|token|api[_-]?key)\s*[:=]\s*\S+`)

	reRemoteModule = regexp.MustCompile(`(?i)(source\s*=\s*"(git::|https?://|github\.com/|git@)|(chart|repository|module)\s*:\s*(https?://|oci://))`)

	reCICDStructural = regexp.MustCompile(`(?m)^(on|jobs|steps|runs-on|stages|script)\s*:`)
	reCICDListItem   = regexp.MustCompile(`(?m)^\s*-\s*(uses|run)\s*:`)

	reUsesValue = regexp.MustCompile(`(?m)^\s*-?\s*uses\s*:\s*(\S+)`)
	rePinnedRef = regexp.MustCompile(`^[A-Fa-f0-9]{40}$|^sha256:[A-Fa-f0-9]{64}$`)

	reCICDSecretUsage = regexp.MustCompile(`(\$\{\{\s*secrets\.|CI_[A-Z0-9_]+)`)
	reExternalRunner  = regexp.MustCompile(`(?i)(runs-on\s*:\s*self-hosted|docker://)`)
)

// Class is the resolved analyzer class, "iac" or "cicd".
type Class string

const (
	ClassIaC  Class = "iac"
	ClassCICD Class = "cicd"
)

type scanResult struct {
	structuralIaC     int64
	privileged        int64
	secretHint        int64
	remoteModule      int64
	cicdStructural    int64
	actionRefCount    int64
	actionRefPinned   int64
	actionRefUnpinned int64
	cicdSecretUsage   int64
	externalRunner    int64
	filesScanned      int64
}

// Analyze runs the IaC/CI-CD adapter against req for the given resolved
// class (the dispatcher performs autoSelectClass / forcedClass resolution).
func Analyze(req pipeline.Request, class Class) pipeline.RunResult {
	paths := collectPaths(req)

	if shared.HasCaseInsensitiveCollision(paths) {
		if req.Strict {
			return pipeline.Fail(unsupportedFailFor(class), nil)
		}
		return pipeline.NoOp()
	}

	res := scanResult{}
	for i, p := range paths {
		if i >= MaxScanFiles {
			break
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		text, _ := textmark.ToBoundedText(data)
		scanOne(text, &res)
		res.filesScanned++
	}

	hasCICDSignal := res.cicdStructural > 0 || res.actionRefCount > 0 || res.cicdSecretUsage > 0 || res.externalRunner > 0
	hasIaCSignal := res.structuralIaC > 0 || res.privileged > 0 || res.remoteModule > 0

	if (class == ClassCICD && !hasCICDSignal) || (class == ClassIaC && !hasIaCSignal) {
		if req.Strict {
			return pipeline.Fail(unsupportedFailFor(class), nil)
		}
		return pipeline.NoOp()
	}

	counts := map[string]int64{
		"structuralIacCount":     res.structuralIaC,
		"privilegedCount":        res.privileged,
		"secretHintCount":        res.secretHint,
		"remoteModuleCount":      res.remoteModule,
		"cicdStructuralCount":    res.cicdStructural,
		"actionRefCount":         res.actionRefCount,
		"actionRefPinnedCount":   res.actionRefPinned,
		"actionRefUnpinnedCount": res.actionRefUnpinned,
		"cicdSecretUsageCount":   res.cicdSecretUsage,
		"externalRunnerCount":    res.externalRunner,
		"filesScanned":           res.filesScanned,
	}

	reasonCodes := []string{adapterV1For(class)}

	var findings []pipeline.Finding
	if res.privileged > 0 {
		findings = append(findings, pipeline.Finding{Code: "IAC_PRIVILEGED_CONFIG", Count: res.privileged})
	}
	if res.secretHint > 0 {
		findings = append(findings, pipeline.Finding{Code: "IAC_SECRET_HINT", Count: res.secretHint})
	}
	if res.actionRefUnpinned > 0 {
		findings = append(findings, pipeline.Finding{Code: "CICD_UNPINNED_ACTION_REF", Count: res.actionRefUnpinned})
	}
	if res.externalRunner > 0 {
		findings = append(findings, pipeline.Finding{Code: "CICD_EXTERNAL_RUNNER", Count: res.externalRunner})
	}

	var markers []string
	if len(paths) > MaxScanFiles {
		markers = append(markers, "IAC_TRUNCATED")
	}

	summary := shared.BuildSummary(AdapterID, string(class), filepath.Base(req.Path), pipeline.ModeBuiltIn, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, string(class), findings, markers)
	meta := shared.Meta(AdapterID, filepath.Base(req.Path), pipeline.ModeBuiltIn, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

func scanOne(text string, res *scanResult) {
	res.structuralIaC += int64(textmark.CountMatches(reStructuralIaC, text, 1))
	if textmark.AnyMatch(reK8sStructural, text) || textmark.AnyMatch(reCFNStructural, text) ||
		textmark.AnyMatch(reResourcesKey, text) || textmark.AnyMatch(reServicesTop, text) {
		res.structuralIaC++
	}

	res.privileged += int64(textmark.CountMatches(rePrivileged, text, pipeline.MaxListItems))

	if textmark.AnyMatch(reSecretKeyword, text) {
		res.secretHint++
	}
	res.secretHint += int64(textmark.CountMatches(reSecretKV, text, pipeline.MaxListItems))

	res.remoteModule += int64(textmark.CountMatches(reRemoteModule, text, pipeline.MaxListItems))

	if textmark.AnyMatch(reCICDStructural, text) {
		res.cicdStructural++
	}
	res.cicdStructural += int64(textmark.CountMatches(reCICDListItem, text, pipeline.MaxListItems))

	for _, m := range reUsesValue.FindAllStringSubmatch(text, -1) {
		ref := strings.TrimSpace(m[1])
		res.actionRefCount++
		idx := strings.LastIndex(ref, "@")
		if idx < 0 {
			res.actionRefUnpinned++
			continue
		}
		base, suffix := ref[:idx], ref[idx+1:]
		if strings.HasPrefix(base, "./") || strings.HasPrefix(base, "../") {
			continue
		}
		if rePinnedRef.MatchString(suffix) {
			res.actionRefPinned++
		} else {
			res.actionRefUnpinned++
		}
	}

	res.cicdSecretUsage += int64(textmark.CountMatches(reCICDSecretUsage, text, pipeline.MaxListItems))
	res.externalRunner += int64(textmark.CountMatches(reExternalRunner, text, pipeline.MaxListItems))
}

func collectPaths(req pipeline.Request) []string {
	info, err := os.Stat(req.Path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{req.Path}
	}

	var paths []string
	for _, e := range req.Capture.Entries {
		if len(paths) > MaxScanFiles {
			break
		}
		rel := filepath.ToSlash(e.Path)
		ok, err := doublestar.Match(scanGlob, rel)
		if err != nil || !ok {
			continue
		}
		paths = append(paths, filepath.Join(req.Path, e.Path))
	}
	return paths
}

func adapterV1For(class Class) string {
	if class == ClassCICD {
		return "CICD_ADAPTER_V1"
	}
	return "IAC_ADAPTER_V1"
}

func unsupportedFailFor(class Class) *pipeline.AdapterError {
	if class == ClassCICD {
		return pipeline.NewFail("CICD_UNSUPPORTED_FORMAT", "input carries no recognizable CI/CD structural evidence")
	}
	return pipeline.NewFail("IAC_UNSUPPORTED_FORMAT", "input carries no recognizable IaC structural evidence")
}

package pipeline

import (
	"context"

	"github.com/saferun/adaptcore/internal/capturetree"
)

// Request bundles everything one analyzer needs to run: the resolved
// extension and route, the capture tree, and the plugin set the dispatcher
// already validated. Ctx carries the cooperative cancellation token (spec
// §5); analyzers check it at parser-loop boundaries and before external
// commands.
type Request struct {
	Ctx context.Context

	Path    string
	Ext     string
	Strict  bool // true when selection != auto (fail-closed route)
	Capture capturetree.Tree
	Plugins map[string]bool
}

// Selection is the caller's choice of adapter class, or "auto" to let the
// dispatcher infer one. The zero value is not a valid Selection; callers
// must use one of the named constants.
type Selection string

const (
	SelectionAuto      Selection = "auto"
	SelectionNone      Selection = "none"
	SelectionArchive   Selection = "archive"
	SelectionPackage   Selection = "package"
	SelectionExtension Selection = "extension"
	SelectionIaC       Selection = "iac"
	SelectionCICD      Selection = "cicd"
	SelectionDocument  Selection = "document"
	SelectionContainer Selection = "container"
	SelectionImage     Selection = "image"
	SelectionSCM       Selection = "scm"
	SelectionSignature Selection = "signature"
)

// Mode records whether an adapter's structural evidence came from a
// self-contained parser or from shelling out to an external plugin tool.
type Mode string

const (
	ModeBuiltIn Mode = "built_in"
	ModePlugin  Mode = "plugin"
)

// SchemaVersion is embedded in every wire object so downstream consumers can
// detect a breaking change to the summary/findings shape.
const SchemaVersion = 0

// Bounding caps shared across parsers and analyzers (spec §3.3).
const (
	MaxTextBytes    = 256 * 1024
	MaxListItems    = 20_000
	MaxFindingCodes = 128
	MaxMarkers      = 128
	MaxReasonCodes  = 128
	MaxARScanBytes  = 8 * 1024 * 1024
)

// AdapterSummary is the canonical, bounded structural summary an adapter
// emits for one artifact.
type AdapterSummary struct {
	Schema        string           `json:"schema"`
	SchemaVersion int              `json:"schemaVersion"`
	AdapterID     string           `json:"adapterId"`
	SourceClass   string           `json:"sourceClass"`
	SourceFormat  string           `json:"sourceFormat"`
	Mode          Mode             `json:"mode"`
	Counts        map[string]int64 `json:"counts"`
	Markers       []string         `json:"markers"`
	ReasonCodes   []string         `json:"reasonCodes"`
}

// Finding is one entry in an AdapterFindings histogram.
type Finding struct {
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// AdapterFindings is the bounded findings histogram an adapter emits
// alongside its summary.
type AdapterFindings struct {
	Schema        string    `json:"schema"`
	SchemaVersion int       `json:"schemaVersion"`
	AdapterID     string    `json:"adapterId"`
	SourceClass   string    `json:"sourceClass"`
	Findings      []Finding `json:"findings"`
	Markers       []string  `json:"markers"`
}

// AdapterMeta is a compact projection of an adapter run, used by hosts that
// only need to know which adapter ran and how it classified the decision.
type AdapterMeta struct {
	AdapterID    string   `json:"adapterId"`
	SourceFormat string   `json:"sourceFormat"`
	Mode         Mode     `json:"mode"`
	ReasonCodes  []string `json:"reasonCodes"`
}

// RunResult is the outcome of one run_adapter invocation: either a
// successful (possibly no-op) Ok, or a Fail carrying a machine fail code.
// Exactly one of Ok/Fail applies; callers should check IsOk.
type RunResult struct {
	ok bool

	// Ok fields.
	ReasonCodes []string
	Adapter     AdapterMeta
	Summary     *AdapterSummary
	Findings    *AdapterFindings
	Signals     map[string]string

	// Fail fields.
	FailCode    string
	FailMessage string
}

// IsOk reports whether this result is an Ok (including a no-op Ok with no
// reason codes), as opposed to a Fail.
func (r RunResult) IsOk() bool {
	return r.ok
}

// Ok constructs a successful RunResult. A no-op result (unsupported input on
// the auto route, or selection=none with no plugins) is represented by
// passing nil summary/findings and an empty adapter.
func Ok(reasonCodes []string, adapter AdapterMeta, summary *AdapterSummary, findings *AdapterFindings, signals map[string]string) RunResult {
	return RunResult{
		ok:          true,
		ReasonCodes: reasonCodes,
		Adapter:     adapter,
		Summary:     summary,
		Findings:    findings,
		Signals:     signals,
	}
}

// NoOp constructs the empty Ok{reasonCodes=[]} result returned when the auto
// route fails to match a class, or selection=none is requested with no
// plugins.
func NoOp() RunResult {
	return RunResult{ok: true, ReasonCodes: []string{}}
}

// Fail constructs a failed RunResult from an *AdapterError.
func Fail(err *AdapterError, reasonCodes []string) RunResult {
	return RunResult{
		ok:          false,
		FailCode:    err.Code,
		FailMessage: err.Message,
		ReasonCodes: reasonCodes,
	}
}

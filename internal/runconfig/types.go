// Package runconfig resolves the small set of tunable knobs an adapter
// invocation honors -- currently just the log output format -- the way the
// teacher resolves its profile configuration: built-in defaults, then an
// optional TOML file, then environment variables, each layer overriding the
// last. The adapter core's byte caps and list-length caps (spec.md's
// MAX_TEXT_BYTES, MAX_LIST_ITEMS, MAX_FINDING_CODES, MAX_AR_SCAN_BYTES) and
// the external-tool timeout are NOT host-tunable: spec §3.3 fixes them as
// the values the strict-route fail codes are specified against, so they
// live as compile-time constants (pipeline.MaxListItems and friends,
// exectool.DefaultTimeout) rather than as fields here.
package runconfig

// Limits holds the ambient knobs a host may set before running the CLI.
type Limits struct {
	// LogFormat selects "json" or "text" for obs.Setup.
	LogFormat string `toml:"log_format"`
}

// Defaults returns the Limits matching the CLI's built-in behavior.
func Defaults() Limits {
	return Limits{
		LogFormat: "text",
	}
}

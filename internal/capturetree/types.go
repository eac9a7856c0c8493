// Package capturetree models the externally produced filesystem snapshot
// the dispatcher and analyzers consume (spec §3.1). The capture tree itself
// is assembled by the host's filesystem walker, an out-of-scope external
// collaborator; this package only defines the shape the adapter core reads.
package capturetree

// Kind tags what a CaptureTree actually observed on disk.
type Kind string

const (
	KindFile Kind = "file"
	KindZip  Kind = "zip"
	KindDir  Kind = "dir"
)

// Entry is one member of a captured tree: a file or archive member with its
// path relative to the input root and its recorded digest.
type Entry struct {
	// Path is relative to the input root, already slash-normalized by the
	// host walker.
	Path string

	// Bytes is the entry's size as observed by the host walker.
	Bytes int64

	// Digest is an opaque content digest computed by the host walker (for
	// example, a hex-encoded hash). The adapter core never computes or
	// verifies this value; it is informational only.
	Digest string
}

// Tree is the read-only snapshot handed to an adapter invocation alongside
// the raw input path. Adapters MAY re-parse bytes from disk themselves, and
// MUST do so rather than trusting Entries for presence of structural
// markers when operating on the strict route (spec §3.1).
type Tree struct {
	Kind      Kind
	Entries   []Entry
	Truncated bool
	Issues    []string
}

// EntryCount returns the number of entries, honoring the truncation flag
// only insofar as callers should treat Entries as possibly incomplete when
// Truncated is true.
func (t Tree) EntryCount() int {
	return len(t.Entries)
}

// HasGit reports whether the tree carries a top-level .git entry, either as
// a directory member or as a gitdir-pointing file (worktree linkage). This
// is a structural hint only; analyzers that care about SCM state re-read
// the .git path from disk.
func (t Tree) HasGit() bool {
	for _, e := range t.Entries {
		if e.Path == ".git" || len(e.Path) >= 5 && e.Path[:5] == ".git/" {
			return true
		}
	}
	return false
}

// Package scm implements the source-control analyzer from spec §4.11: a
// directory containing `.git` is inspected via the external git binary
// first, falling back to the native `.git` reader on failure.
package scm

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/saferun/adaptcore/internal/analyzers/shared"
	"github.com/saferun/adaptcore/internal/exectool"
	"github.com/saferun/adaptcore/internal/parsers/gitfmt"
	"github.com/saferun/adaptcore/internal/pipeline"
)

// AdapterID identifies this adapter in AdapterMeta/AdapterSummary output.
const AdapterID = "scm_adapter_v1"

type result struct {
	commitResolved        int64
	detachedHead          int64
	treeEntryCount        int64
	branchRefCount        int64
	tagRefCount           int64
	stagedPathCount       int64
	unstagedPathCount     int64
	untrackedPathCount    int64
	workingTreeEntryCount int64
	nativePartial         bool
}

// Analyze runs the SCM adapter against req. req.Path must be the repository
// working directory (the one containing `.git`).
func Analyze(req pipeline.Request) pipeline.RunResult {
	gitDir, ok := gitfmt.ResolveGitDir(req.Path)
	if !ok {
		if req.Strict {
			return pipeline.Fail(pipeline.NewFail("SCM_UNSUPPORTED_FORMAT", "input directory does not contain a .git repository"), nil)
		}
		return pipeline.NoOp()
	}

	res, usedGit := runGit(req)
	if !usedGit {
		res = runNative(req.Path, gitDir)
	}

	if req.Strict {
		if res.commitResolved == 0 || res.nativePartial {
			return pipeline.Fail(pipeline.NewFail("SCM_REF_UNRESOLVED", "HEAD could not be resolved to a commit"), nil)
		}
	}

	worktreeDirty := int64(0)
	if res.stagedPathCount > 0 || res.unstagedPathCount > 0 || res.untrackedPathCount > 0 {
		worktreeDirty = 1
	}

	counts := map[string]int64{
		"commitResolved":        res.commitResolved,
		"detachedHead":          res.detachedHead,
		"treeEntryCount":        res.treeEntryCount,
		"branchRefCount":        res.branchRefCount,
		"tagRefCount":           res.tagRefCount,
		"worktreeDirty":         worktreeDirty,
		"stagedPathCount":       res.stagedPathCount,
		"unstagedPathCount":     res.unstagedPathCount,
		"untrackedPathCount":    res.untrackedPathCount,
		"workingTreeEntryCount": res.workingTreeEntryCount,
	}
	reasonCodes := []string{"SCM_ADAPTER_V1"}

	var markers []string
	if !usedGit {
		markers = append(markers, "SCM_NATIVE_FALLBACK")
	}
	if !req.Strict && res.nativePartial {
		markers = append(markers, "SCM_NATIVE_REF_PARTIAL")
	}

	summary := shared.BuildSummary(AdapterID, "scm", ".git", pipeline.ModeBuiltIn, counts, markers, reasonCodes)
	findingsOut := shared.BuildFindings(AdapterID, "scm", nil, markers)
	meta := shared.Meta(AdapterID, ".git", pipeline.ModeBuiltIn, reasonCodes)

	return pipeline.Ok(reasonCodes, meta, summary, findingsOut, nil)
}

// runGit attempts the external-git path. ok is false when any of the
// required commands are unavailable, signalling a fallback to native.
func runGit(req pipeline.Request) (result, bool) {
	headOut := exectool.Run(req.Ctx, exectool.DefaultTimeout, "git", "-C", req.Path, "rev-parse", "HEAD")
	if headOut.Unavailable {
		return result{}, false
	}

	var res result
	sha := strings.TrimSpace(headOut.Stdout)
	if headOut.ExitCode == 0 && gitfmt.IsValidSHA(sha) {
		res.commitResolved = 1
	}

	branchOut := exectool.Run(req.Ctx, exectool.DefaultTimeout, "git", "-C", req.Path, "rev-parse", "--abbrev-ref", "HEAD")
	if !branchOut.Unavailable && branchOut.ExitCode == 0 {
		if strings.TrimSpace(branchOut.Stdout) == "HEAD" {
			res.detachedHead = 1
		}
	}

	treeOut := exectool.Run(req.Ctx, exectool.DefaultTimeout, "git", "-C", req.Path, "ls-tree", "-r", "--name-only", "HEAD")
	if !treeOut.Unavailable && treeOut.ExitCode == 0 {
		res.treeEntryCount = int64(countNonEmptyLines(treeOut.Stdout))
	}

	headsOut := exectool.Run(req.Ctx, exectool.DefaultTimeout, "git", "-C", req.Path, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if !headsOut.Unavailable && headsOut.ExitCode == 0 {
		res.branchRefCount = int64(countNonEmptyLines(headsOut.Stdout))
	}

	tagsOut := exectool.Run(req.Ctx, exectool.DefaultTimeout, "git", "-C", req.Path, "for-each-ref", "--format=%(refname:short)", "refs/tags")
	if !tagsOut.Unavailable && tagsOut.ExitCode == 0 {
		res.tagRefCount = int64(countNonEmptyLines(tagsOut.Stdout))
	}

	statusOut := exectool.Run(req.Ctx, exectool.DefaultTimeout, "git", "-C", req.Path, "status", "--porcelain=1", "--untracked-files=all")
	if statusOut.Unavailable {
		return result{}, false
	}
	staged, unstaged, untracked := countStatusLines(statusOut.Stdout)
	res.stagedPathCount = staged
	res.unstagedPathCount = unstaged
	res.untrackedPathCount = untracked
	res.workingTreeEntryCount = res.treeEntryCount + untracked

	return res, true
}

func countStatusLines(stdout string) (staged, unstaged, untracked int64) {
	for _, line := range splitLines(stdout) {
		if len(line) < 2 {
			continue
		}
		x, y := line[0], line[1]
		switch {
		case x == '?' && y == '?':
			untracked++
		default:
			if x != ' ' {
				staged++
			}
			if y != ' ' {
				unstaged++
			}
		}
	}
	return staged, unstaged, untracked
}

func countNonEmptyLines(s string) int {
	n := 0
	for _, line := range splitLines(s) {
		if line != "" {
			n++
		}
	}
	return n
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// runNative builds the result entirely from the on-disk .git metadata and a
// plain working-tree walk, used when the git binary is unavailable. Without
// an index reader, native mode cannot distinguish tracked-but-unmodified
// files from untracked ones, so untrackedPathCount/workingTreeEntryCount are
// an upper-bound approximation over every non-ignored working-tree path;
// stagedPathCount/unstagedPathCount stay zero, since those require a diff
// against the index this reader never builds.
func runNative(worktree, gitDir string) result {
	var res result

	head := gitfmt.ParseHead(gitDir)
	if !head.Valid {
		res.nativePartial = true
		return res
	}

	headSHA := head.DetachedSHA
	if head.RefPointer != "" {
		res.detachedHead = 0
		headSHA = resolveRef(gitDir, head.RefPointer)
	} else {
		res.detachedHead = 1
	}
	if gitfmt.IsValidSHA(headSHA) {
		res.commitResolved = 1
	} else {
		res.nativePartial = true
	}

	branches := gitfmt.ListLooseRefs(gitDir, "heads")
	tags := gitfmt.ListLooseRefs(gitDir, "tags")
	for _, p := range gitfmt.ParsePackedRefs(gitDir) {
		switch {
		case strings.HasPrefix(p.Name, "refs/heads/"):
			branches = append(branches, gitfmt.RefEntry{Name: p.Name, SHA: p.SHA, Valid: p.Valid})
		case strings.HasPrefix(p.Name, "refs/tags/"):
			tags = append(tags, gitfmt.RefEntry{Name: p.Name, SHA: p.SHA, Valid: p.Valid})
		}
	}

	for _, b := range branches {
		if b.Valid {
			res.branchRefCount++
		} else {
			res.nativePartial = true
		}
	}
	for _, t := range tags {
		if t.Valid {
			res.tagRefCount++
		} else {
			res.nativePartial = true
		}
	}

	// Native mode cannot enumerate the committed tree without an object-graph
	// reader, so treeEntryCount stays zero; the working-tree walk below fills
	// in the untracked/working-tree-entry approximation described above.
	untracked := walkWorktreeIgnoringGitignore(worktree)
	res.untrackedPathCount = untracked
	res.workingTreeEntryCount = untracked

	return res
}

// walkWorktreeIgnoringGitignore counts regular files under worktree,
// skipping .git and any path matched by a root-level .gitignore.
func walkWorktreeIgnoringGitignore(worktree string) int64 {
	var matcher *gitignore.GitIgnore
	if compiled, err := gitignore.CompileIgnoreFile(filepath.Join(worktree, ".gitignore")); err == nil {
		matcher = compiled
	}

	var count int64
	_ = filepath.WalkDir(worktree, func(path string, d os.DirEntry, err error) error {
		if err != nil || d == nil {
			return nil
		}
		if path == worktree {
			return nil
		}
		rel, relErr := filepath.Rel(worktree, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		count++
		return nil
	})
	return count
}

func resolveRef(gitDir, refPointer string) string {
	for _, e := range gitfmt.ListLooseRefs(gitDir, "heads") {
		if e.Name == refPointer {
			return e.SHA
		}
	}
	for _, e := range gitfmt.ListLooseRefs(gitDir, "tags") {
		if e.Name == refPointer {
			return e.SHA
		}
	}
	for _, p := range gitfmt.ParsePackedRefs(gitDir) {
		if p.Name == refPointer {
			return p.SHA
		}
	}
	return ""
}

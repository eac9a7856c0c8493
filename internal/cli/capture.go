package cli

import (
	"os"
	"path/filepath"

	"github.com/saferun/adaptcore/internal/capturetree"
)

// buildCaptureTree assembles a minimal capturetree.Tree by walking path on
// disk. The real capture tree is an external collaborator (spec §3.1,
// produced by the host's own filesystem walker); this is the CLI's
// stand-in so `run` has something to hand the dispatcher when invoked
// directly against a local path. Digest is left empty: the adapter core
// never trusts it for anything load-bearing.
func buildCaptureTree(path string) capturetree.Tree {
	info, err := os.Stat(path)
	if err != nil {
		return capturetree.Tree{Kind: capturetree.KindFile, Issues: []string{"stat failed: " + err.Error()}}
	}
	if !info.IsDir() {
		return capturetree.Tree{
			Kind:    capturetree.KindFile,
			Entries: []capturetree.Entry{{Path: filepath.Base(path), Bytes: info.Size()}},
		}
	}

	tree := capturetree.Tree{Kind: capturetree.KindDir}
	walkErr := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			tree.Issues = append(tree.Issues, err.Error())
			return nil
		}
		if d.IsDir() || p == path {
			return nil
		}
		rel, relErr := filepath.Rel(path, p)
		if relErr != nil {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		tree.Entries = append(tree.Entries, capturetree.Entry{
			Path:  filepath.ToSlash(rel),
			Bytes: fi.Size(),
		})
		if len(tree.Entries) >= 20_000 {
			tree.Truncated = true
			return filepath.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		tree.Issues = append(tree.Issues, walkErr.Error())
	}
	return tree
}

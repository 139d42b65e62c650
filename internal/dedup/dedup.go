package dedup

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/shv-ng/dir-diff/internal/scan"
)

// Options configure a dedup run.
type Options struct {
	// DryRun computes the full result without touching the filesystem.
	DryRun bool

	// Log receives per-path diagnostics; nil uses the standard logger.
	Log *logrus.Logger
}

// Failure records a path that could not be deleted or removed. Failures
// never abort the run; the path stays in place.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Result reports what a dedup run changed, or would change under DryRun.
type Result struct {
	// Survivors holds the kept path of every resolved duplicate group.
	Survivors []string

	// Deleted holds every removed duplicate, in resolution order.
	Deleted []string

	// RemovedDirs holds directories removed by the empty-directory
	// sweep, children before parents.
	RemovedDirs []string

	Failures []Failure

	// Reclaimed is the byte total of deleted files.
	Reclaimed uint64
}

// Failed reports whether any deletion or removal failed.
func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}

type dirState struct {
	files   int
	subdirs int
}

// Run resolves every duplicate group in sc's index down to one survivor
// and deletes the rest, then removes directories left empty. All deletions
// finish before the sweep starts, so emptiness is judged against the final
// set of surviving files. Groups with a single path are never touched, and
// the root itself is never removed.
func Run(fsys afero.Fs, sc *scan.Result, opts Options) *Result {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	res := &Result{}
	tree := sc.Tree
	if len(tree.Dirs) == 0 {
		return res
	}

	counts := make(map[string]*dirState, len(tree.Dirs))
	for _, d := range tree.Dirs {
		counts[d] = &dirState{files: tree.Occupants[d]}
	}
	for _, d := range tree.Dirs[1:] {
		if st, ok := counts[filepath.Dir(d)]; ok {
			st.subdirs++
		}
	}

	for _, fp := range sc.Index.Fingerprints() {
		group := sc.Index.Paths(fp)
		if len(group) < 2 {
			continue
		}
		keep := Survivor(tree.Root, group)
		res.Survivors = append(res.Survivors, keep)
		for _, path := range group {
			if path == keep {
				continue
			}
			var size uint64
			if info, err := fsys.Stat(path); err == nil {
				size = uint64(info.Size())
			}
			if !opts.DryRun {
				if err := fsys.Remove(path); err != nil {
					res.Failures = append(res.Failures, Failure{Path: path, Err: err})
					log.WithField("path", path).WithError(err).Warn("could not delete duplicate")
					continue
				}
			}
			res.Deleted = append(res.Deleted, path)
			res.Reclaimed += size
			if st, ok := counts[filepath.Dir(path)]; ok {
				st.files--
			}
			log.WithField("path", path).Debug("deleted duplicate")
		}
	}

	// Walk order puts parents before children, so the reverse order
	// visits children first and emptiness propagates upward in one pass.
	// Index 0 is the root and is skipped.
	for i := len(tree.Dirs) - 1; i > 0; i-- {
		d := tree.Dirs[i]
		st := counts[d]
		if st.files != 0 || st.subdirs != 0 {
			continue
		}
		if !opts.DryRun {
			if err := fsys.Remove(d); err != nil {
				res.Failures = append(res.Failures, Failure{Path: d, Err: err})
				log.WithField("path", d).WithError(err).Warn("could not remove empty directory")
				continue
			}
		}
		res.RemovedDirs = append(res.RemovedDirs, d)
		if parent, ok := counts[filepath.Dir(d)]; ok {
			parent.subdirs--
		}
		log.WithField("path", d).Debug("removed empty directory")
	}
	return res
}

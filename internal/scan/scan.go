package scan

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Options configure a scan.
type Options struct {
	// Algorithm selects the fingerprint hash; empty means XXH64.
	Algorithm Algorithm

	// Workers bounds concurrent hashing; <=0 means runtime.NumCPU().
	Workers int

	// Exclude lists directory names skipped during the walk.
	Exclude []string

	// Progress, when non-nil, receives a hashing progress bar.
	Progress io.Writer

	// Log receives entry-level diagnostics; nil uses the standard logger.
	Log *logrus.Logger
}

// EntryError records a file or directory that could not be read. Entry
// errors never abort a scan; the entry is excluded from the index.
type EntryError struct {
	Path string
	Err  error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Tree captures directory occupancy under the scanned root. The dedup
// sweep judges emptiness from these counts instead of re-walking the tree.
type Tree struct {
	Root string

	// Dirs is every directory under Root in walk order, Root first.
	// Parents always precede their children.
	Dirs []string

	// Occupants counts non-directory entries per directory, including
	// symlinks, skipped entries, and unreadable ones. A directory whose
	// only occupant is a symlink is not empty.
	Occupants map[string]int
}

// Result is the outcome of one scan.
type Result struct {
	Index  *Index
	Tree   *Tree
	Errors []EntryError

	// Files is the number of regular files discovered, Bytes their total
	// size. Both include files that later failed to hash.
	Files int
	Bytes uint64
}

// Scan walks the tree rooted at root, fingerprinting every regular file
// and recording every directory. Symbolic links are skipped, never
// followed. Per-entry read errors are recorded and the entry excluded; an
// unreadable root is fatal and nothing is returned.
//
// Hashing of independent files runs concurrently, but each file's ordinal
// is fixed at discovery time, so per-fingerprint path order is the walk's
// discovery order no matter how workers interleave.
func Scan(fsys afero.Fs, root string, opts Options) (*Result, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Algorithm == "" {
		opts.Algorithm = XXH64
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	info, err := fsys.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}

	res := &Result{
		Index: NewIndex(),
		Tree:  &Tree{Root: root, Occupants: make(map[string]int)},
	}

	var files []string
	walkErr := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("reading root %s: %w", root, err)
			}
			res.Errors = append(res.Errors, EntryError{Path: path, Err: err})
			log.WithField("path", path).WithError(err).Warn("skipping unreadable entry")
			if info != nil && info.IsDir() {
				// The directory is already recorded; marking it
				// occupied keeps the sweep away from contents we
				// could not see.
				res.Tree.Occupants[path]++
				return filepath.SkipDir
			}
			res.Tree.Occupants[filepath.Dir(path)]++
			return nil
		}
		if info.IsDir() {
			if path != root && excluded[info.Name()] {
				res.Tree.Occupants[filepath.Dir(path)]++
				return filepath.SkipDir
			}
			res.Tree.Dirs = append(res.Tree.Dirs, path)
			return nil
		}
		res.Tree.Occupants[filepath.Dir(path)]++
		if info.Mode()&fs.ModeSymlink != 0 {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, path)
		res.Bytes += uint64(info.Size())
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	res.Files = len(files)

	// Workers write into ordinal slots; nothing is shared between them.
	fps := make([]Fingerprint, len(files))
	hashErrs := make([]error, len(files))

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("hashing"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(15),
		)
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			fps[i], hashErrs[i] = HashFile(fsys, path, opts.Algorithm)
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(opts.Progress)
	}

	for i, path := range files {
		if hashErrs[i] != nil {
			res.Errors = append(res.Errors, EntryError{Path: path, Err: hashErrs[i]})
			log.WithField("path", path).WithError(hashErrs[i]).Warn("skipping unreadable file")
			continue
		}
		res.Index.Add(fps[i], path)
	}
	return res, nil
}

package dedup

import (
	"io"
	"os"
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/shv-ng/dir-diff/internal/scan"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func scanRoot(t *testing.T, fsys afero.Fs, root string) *scan.Result {
	t.Helper()
	res, err := scan.Scan(fsys, root, scan.Options{Log: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func exists(t *testing.T, fsys afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, path)
	if err != nil {
		t.Fatal(err)
	}
	return ok
}

// failRemoveFs denies Remove on selected paths, standing in for permission
// errors that MemMapFs cannot produce.
type failRemoveFs struct {
	afero.Fs
	deny map[string]bool
}

func (f *failRemoveFs) Remove(name string) error {
	if f.deny[name] {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Remove(name)
}

func TestRunKeepsCopyOutsideDateDir(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "root/20230101/a.txt", "same content")
	writeFile(t, fsys, "root/archive/a_copy.txt", "same content")

	res := Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})

	if want := []string{"root/20230101/a.txt"}; !reflect.DeepEqual(res.Deleted, want) {
		t.Fatalf("Deleted = %v, want %v", res.Deleted, want)
	}
	if want := []string{"root/archive/a_copy.txt"}; !reflect.DeepEqual(res.Survivors, want) {
		t.Fatalf("Survivors = %v, want %v", res.Survivors, want)
	}
	if want := []string{"root/20230101"}; !reflect.DeepEqual(res.RemovedDirs, want) {
		t.Fatalf("RemovedDirs = %v, want %v", res.RemovedDirs, want)
	}
	if exists(t, fsys, "root/20230101") {
		t.Fatal("emptied date directory still present")
	}
	if !exists(t, fsys, "root/archive/a_copy.txt") {
		t.Fatal("survivor was deleted")
	}
	if !exists(t, fsys, "root") {
		t.Fatal("root must never be removed")
	}
	if res.Reclaimed != uint64(len("same content")) {
		t.Fatalf("Reclaimed = %d", res.Reclaimed)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "root/a.txt", "one")
	writeFile(t, fsys, "root/b.txt", "one")
	writeFile(t, fsys, "root/c.txt", "two")
	writeFile(t, fsys, "root/20220101/d.txt", "two")

	first := Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})
	if len(first.Deleted) != 2 {
		t.Fatalf("first run Deleted = %v", first.Deleted)
	}

	second := Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})
	if len(second.Deleted) != 0 || len(second.RemovedDirs) != 0 {
		t.Fatalf("second run not a no-op: deleted %v, removed %v", second.Deleted, second.RemovedDirs)
	}
}

func TestRunNeverTouchesUniqueFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "root/20230101/only.txt", "unique")
	writeFile(t, fsys, "root/other.txt", "different")

	res := Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})

	if len(res.Deleted) != 0 {
		t.Fatalf("Deleted = %v, want none", res.Deleted)
	}
	if !exists(t, fsys, "root/20230101/only.txt") {
		t.Fatal("unique file in date directory was deleted")
	}
}

func TestRunSweepsEmptyDirectoryChains(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "root/keep.txt", "data")
	if err := fsys.MkdirAll("root/a/b/c", 0o755); err != nil {
		t.Fatal(err)
	}

	res := Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})

	want := []string{"root/a/b/c", "root/a/b", "root/a"}
	if !reflect.DeepEqual(res.RemovedDirs, want) {
		t.Fatalf("RemovedDirs = %v, want %v (children first)", res.RemovedDirs, want)
	}
	if exists(t, fsys, "root/a") {
		t.Fatal("empty chain not fully removed")
	}
	if !exists(t, fsys, "root/keep.txt") {
		t.Fatal("unrelated file removed")
	}
}

func TestRunNoDuplicatesRemainAfterward(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "root/a/x.txt", "alpha")
	writeFile(t, fsys, "root/b/x.txt", "alpha")
	writeFile(t, fsys, "root/20200101/x.txt", "alpha")
	writeFile(t, fsys, "root/a/y.txt", "beta")
	writeFile(t, fsys, "root/c/z.txt", "beta")

	Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})

	after := scanRoot(t, fsys, "root")
	for _, fp := range after.Index.Fingerprints() {
		if paths := after.Index.Paths(fp); len(paths) > 1 {
			t.Fatalf("fingerprint %s still has duplicates: %v", fp, paths)
		}
	}
	for _, d := range after.Tree.Dirs[1:] {
		if after.Tree.Occupants[d] == 0 {
			// A remaining dir with no files must still hold subdirs.
			hasChild := false
			for _, other := range after.Tree.Dirs {
				if other != d && len(other) > len(d) && other[:len(d)+1] == d+"/" {
					hasChild = true
				}
			}
			if !hasChild {
				t.Fatalf("empty directory %s survived the sweep", d)
			}
		}
	}
}

func TestRunRecordsDeletionFailuresAndContinues(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, "root/a1.txt", "pair one")
	writeFile(t, base, "root/20dup/a2.txt", "pair one")
	writeFile(t, base, "root/b1.txt", "pair two")
	writeFile(t, base, "root/b2.txt", "pair two")
	fsys := &failRemoveFs{Fs: base, deny: map[string]bool{"root/20dup/a2.txt": true}}

	res := Run(fsys, scanRoot(t, fsys, "root"), Options{Log: quietLogger()})

	if !res.Failed() {
		t.Fatal("expected a failed outcome")
	}
	if len(res.Failures) != 1 || res.Failures[0].Path != "root/20dup/a2.txt" {
		t.Fatalf("Failures = %v", res.Failures)
	}
	if !exists(t, fsys, "root/20dup/a2.txt") {
		t.Fatal("failed deletion must leave the path in place")
	}
	if exists(t, fsys, "root/b2.txt") {
		t.Fatal("run did not continue past the failure")
	}
	// Its directory still holds a file, so the sweep must keep it.
	if !exists(t, fsys, "root/20dup") {
		t.Fatal("directory of undeletable file was removed")
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "root/20230101/a.txt", "same")
	writeFile(t, fsys, "root/archive/a.txt", "same")

	res := Run(fsys, scanRoot(t, fsys, "root"), Options{DryRun: true, Log: quietLogger()})

	if want := []string{"root/20230101/a.txt"}; !reflect.DeepEqual(res.Deleted, want) {
		t.Fatalf("Deleted = %v, want %v", res.Deleted, want)
	}
	if want := []string{"root/20230101"}; !reflect.DeepEqual(res.RemovedDirs, want) {
		t.Fatalf("RemovedDirs = %v, want %v", res.RemovedDirs, want)
	}
	if !exists(t, fsys, "root/20230101/a.txt") || !exists(t, fsys, "root/archive/a.txt") {
		t.Fatal("dry run mutated the filesystem")
	}
}

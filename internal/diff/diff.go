// Package diff computes the symmetric difference of two fingerprint
// indexes by content identity.
package diff

import "github.com/shv-ng/dir-diff/internal/scan"

// Report lists the paths whose content exists on only one side. A
// fingerprint present in both trees contributes nothing, whatever its
// path counts or names.
type Report struct {
	UniqueA []string
	UniqueB []string
}

// Empty reports whether every file's content exists on both sides.
func (r Report) Empty() bool {
	return len(r.UniqueA) == 0 && len(r.UniqueB) == 0
}

// Diff computes which paths are unique to either index. Ordering is
// stable: fingerprints in first-seen order, paths in discovery order.
// Read-only; never touches the filesystem.
func Diff(a, b *scan.Index) Report {
	var r Report
	for _, fp := range a.Fingerprints() {
		if !b.Has(fp) {
			r.UniqueA = append(r.UniqueA, a.Paths(fp)...)
		}
	}
	for _, fp := range b.Fingerprints() {
		if !a.Has(fp) {
			r.UniqueB = append(r.UniqueB, b.Paths(fp)...)
		}
	}
	return r
}

// Package dedup resolves duplicate groups down to one survivor, deletes
// the rest, and sweeps away directories left empty.
package dedup

import (
	"path/filepath"
	"strings"
)

// datePrefix marks directories that look like dated archive folders. The
// two-character check is deliberate: it matches the YYYYMMDD-style import
// folders this tool cleans up, it is not a date parser.
const datePrefix = "20"

// dateLocated reports whether any directory component of path below root
// begins with the date prefix.
func dateLocated(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return false
	}
	for _, comp := range strings.Split(dir, string(filepath.Separator)) {
		if strings.HasPrefix(comp, datePrefix) {
			return true
		}
	}
	return false
}

// Survivor picks which path of a duplicate group is kept. Paths outside
// date-named directories are preferred; within the preferred partition the
// first-discovered path wins, which keeps the choice stable across runs on
// an unchanged tree. paths must be non-empty and in discovery order.
func Survivor(root string, paths []string) string {
	for _, p := range paths {
		if !dateLocated(root, p) {
			return p
		}
	}
	return paths[0]
}

package scan

// Index maps fingerprints to the paths sharing that content. Paths keep
// discovery order and fingerprints keep first-seen order, so iteration is
// deterministic across runs on an unchanged tree.
type Index struct {
	groups map[Fingerprint][]string
	order  []Fingerprint
}

func NewIndex() *Index {
	return &Index{groups: make(map[Fingerprint][]string)}
}

// Add appends path to the fingerprint's group, creating the group if absent.
func (ix *Index) Add(fp Fingerprint, path string) {
	if _, ok := ix.groups[fp]; !ok {
		ix.order = append(ix.order, fp)
	}
	ix.groups[fp] = append(ix.groups[fp], path)
}

// Paths returns the group for fp in discovery order, or nil if unknown.
func (ix *Index) Paths(fp Fingerprint) []string {
	return ix.groups[fp]
}

func (ix *Index) Has(fp Fingerprint) bool {
	_, ok := ix.groups[fp]
	return ok
}

// Fingerprints returns every fingerprint in first-seen order.
func (ix *Index) Fingerprints() []Fingerprint {
	return ix.order
}

// Files is the total number of indexed paths.
func (ix *Index) Files() int {
	n := 0
	for _, paths := range ix.groups {
		n += len(paths)
	}
	return n
}

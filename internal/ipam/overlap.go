package ipam

// Overlaps reports whether two blocks share at least one address.
// The test is symmetric and covers subset, superset and partial
// overlap alike: neither range may end before the other begins.
func Overlaps(a, b Block) bool {
	return a.Base <= b.Broadcast() && b.Base <= a.Broadcast()
}

// Conflicts returns every member of existing that overlaps the
// candidate, in input order. An empty result admits the candidate.
func Conflicts(candidate Block, existing []Block) []Block {
	var hits []Block
	for _, b := range existing {
		if Overlaps(candidate, b) {
			hits = append(hits, b)
		}
	}
	return hits
}

// CheckOverlap admits the candidate or returns an *OverlapError
// carrying the full conflict set. existing is never mutated.
func CheckOverlap(candidate Block, existing []Block) error {
	hits := Conflicts(candidate, existing)
	if len(hits) == 0 {
		return nil
	}
	return &OverlapError{Candidate: candidate, Conflicts: hits}
}

package inbox

import "sort"

// SeenSet remembers which message identifiers have been rendered. With a
// positive limit it evicts the identifiers whose last sighting is oldest;
// identifiers seen in the current cycle are never evicted.
type SeenSet struct {
	limit int
	cycle int
	ids   map[string]int
}

// NewSeenSet returns an empty set. A limit of zero means unbounded.
func NewSeenSet(limit int) *SeenSet {
	return &SeenSet{
		limit: limit,
		ids:   make(map[string]int),
	}
}

// BeginCycle starts a new poll cycle.
func (s *SeenSet) BeginCycle() {
	s.cycle++
}

// Mark records id as seen in the current cycle and reports whether it
// was unseen before.
func (s *SeenSet) Mark(id string) bool {
	seen := s.Has(id)
	s.ids[id] = s.cycle
	return !seen
}

// Has reports whether id has been seen.
func (s *SeenSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of remembered identifiers.
func (s *SeenSet) Len() int { return len(s.ids) }

// Evict trims the set down to its limit.
func (s *SeenSet) Evict() {
	if s.limit <= 0 || len(s.ids) <= s.limit {
		return
	}

	type entry struct {
		id    string
		cycle int
	}
	var stale []entry
	for id, c := range s.ids {
		if c < s.cycle {
			stale = append(stale, entry{id, c})
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].cycle != stale[j].cycle {
			return stale[i].cycle < stale[j].cycle
		}
		return stale[i].id < stale[j].id
	})

	for _, e := range stale {
		if len(s.ids) <= s.limit {
			return
		}
		delete(s.ids, e.id)
	}
}

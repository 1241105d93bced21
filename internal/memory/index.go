package memory

// Index holds the derived lookup tables over a system's episodes. It is
// never patched incrementally: any structural append marks it stale and
// the next read triggers a full, idempotent rebuild.
type Index struct {
	stale bool

	wordNeighborhoods map[string]map[string]*Neighborhood
	wordOccurrences   map[string][]*Occurrence
	neighborhoods     map[string]*Neighborhood
	episodeOf         map[string]*Episode
}

func newIndex() *Index {
	idx := &Index{}
	idx.markStale()
	return idx
}

func (idx *Index) markStale() {
	idx.stale = true
}

// Stale reports whether the index needs a rebuild before the next read.
func (idx *Index) Stale() bool {
	return idx.stale
}

// Rebuild recomputes all four tables in one pass over every episode,
// the conscious one included.
func (idx *Index) Rebuild(episodes []*Episode) {
	idx.wordNeighborhoods = make(map[string]map[string]*Neighborhood)
	idx.wordOccurrences = make(map[string][]*Occurrence)
	idx.neighborhoods = make(map[string]*Neighborhood)
	idx.episodeOf = make(map[string]*Episode)

	for _, ep := range episodes {
		for _, n := range ep.Neighborhoods {
			idx.neighborhoods[n.ID] = n
			idx.episodeOf[n.ID] = ep
			for _, o := range n.Occurrences {
				set, ok := idx.wordNeighborhoods[o.Word]
				if !ok {
					set = make(map[string]*Neighborhood)
					idx.wordNeighborhoods[o.Word] = set
				}
				set[n.ID] = n
				idx.wordOccurrences[o.Word] = append(idx.wordOccurrences[o.Word], o)
			}
		}
	}
	idx.stale = false
}

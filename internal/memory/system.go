package memory

import (
	"math/rand"
)

// ConsciousName is the display name of the distinguished conscious
// episode, the agent's self-curated memory.
const ConsciousName = "conscious"

// System holds all ordinary episodes plus the one conscious episode,
// with derived indices for fast word lookup. Total memory mass is
// conserved at 1: growth adds occurrences (resolution), never manifold
// volume, so per-item mass is always an occurrence-count share of N.
//
// A System is not safe for concurrent use. Callers serialize access.
type System struct {
	AgentName string
	Episodes  []*Episode
	Conscious *Episode

	rng *rand.Rand
	idx *Index
}

// NewSystem creates an empty system with its conscious episode in
// place. The rng drives all manifold sampling and is injected so tests
// can seed it.
func NewSystem(agentName string, rng *rand.Rand) *System {
	return &System{
		AgentName: agentName,
		Conscious: NewEpisode(ConsciousName, true),
		rng:       rng,
		idx:       newIndex(),
	}
}

// all returns every episode including the conscious one.
func (s *System) all() []*Episode {
	return append(append([]*Episode{}, s.Episodes...), s.Conscious)
}

func (s *System) ensureIndex() {
	if s.idx.Stale() {
		s.idx.Rebuild(s.all())
	}
}

// IndexStale reports whether a structural change has invalidated the
// indices since the last rebuild.
func (s *System) IndexStale() bool {
	return s.idx.Stale()
}

// Ingest splits text into sentence chunks and stores each as a
// neighborhood of a new episode named name. The episode is appended
// even when the text yields no tokens.
func (s *System) Ingest(text, name string) *Episode {
	ep := NewEpisode(name, false)
	for _, chunk := range chunkText(text) {
		if n := NewNeighborhood(chunk, s.rng); n != nil {
			ep.Neighborhoods = append(ep.Neighborhoods, n)
		}
	}
	s.Episodes = append(s.Episodes, ep)
	s.idx.markStale()
	return ep
}

// AddToConscious stores text as one neighborhood of the conscious
// episode with every occurrence pre-activated once: conscious content
// starts known. Returns nil when the text has no tokens.
func (s *System) AddToConscious(text string) *Neighborhood {
	n := NewNeighborhood(text, s.rng)
	if n == nil {
		return nil
	}
	for _, o := range n.Occurrences {
		o.Activate()
	}
	s.Conscious.Neighborhoods = append(s.Conscious.Neighborhoods, n)
	s.idx.markStale()
	return n
}

// AddEpisode appends a fully built episode, replacing the conscious
// episode when ep carries the conscious flag. Used by state import.
func (s *System) AddEpisode(ep *Episode) {
	if ep.Conscious {
		s.Conscious = ep
	} else {
		s.Episodes = append(s.Episodes, ep)
	}
	s.idx.markStale()
}

// OccurrencesOf returns every occurrence of word (case-folded) across
// the whole system, in index order.
func (s *System) OccurrencesOf(word string) []*Occurrence {
	s.ensureIndex()
	return s.idx.wordOccurrences[word]
}

// Neighborhood resolves a neighborhood by ID, or nil.
func (s *System) Neighborhood(id string) *Neighborhood {
	s.ensureIndex()
	return s.idx.neighborhoods[id]
}

// EpisodeOf resolves the episode owning the given neighborhood, or nil.
func (s *System) EpisodeOf(neighborhoodID string) *Episode {
	s.ensureIndex()
	return s.idx.episodeOf[neighborhoodID]
}

// WordWeight returns the inverse neighborhood frequency of word:
// 1/max(1, distinct neighborhoods containing it). Rarer words carry
// proportionally more influence on drift and coupling.
func (s *System) WordWeight(word string) float64 {
	s.ensureIndex()
	k := len(s.idx.wordNeighborhoods[word])
	if k < 1 {
		k = 1
	}
	return 1 / float64(k)
}

// N is the total occurrence count, recomputed on every call rather than
// cached.
func (s *System) N() int {
	total := 0
	for _, ep := range s.all() {
		total += ep.OccurrenceCount()
	}
	return total
}

// TotalActivation sums activation counters over the whole system.
func (s *System) TotalActivation() int {
	total := 0
	for _, ep := range s.all() {
		for _, n := range ep.Neighborhoods {
			total += n.TotalActivation()
		}
	}
	return total
}

// NeighborhoodCount counts neighborhoods across all episodes.
func (s *System) NeighborhoodCount() int {
	count := 0
	for _, ep := range s.all() {
		count += len(ep.Neighborhoods)
	}
	return count
}

// MassShare returns ep's share of the system's conserved unit mass:
// its occurrence count over N.
func (s *System) MassShare(ep *Episode) float64 {
	n := s.N()
	if n == 0 {
		return 0
	}
	return float64(ep.OccurrenceCount()) / float64(n)
}

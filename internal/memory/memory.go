// Package memory implements noema's memory hierarchy: occurrences
// (single token instances on the manifold) grouped into neighborhoods
// (one ingested chunk), grouped into episodes (one document or
// conversation), held by a System with rebuildable lookup indices.
package memory

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/noema-ai/noema/internal/manifold"
)

// seedRadius is the angular radius around a neighborhood seed within
// which its occurrences are placed.
const seedRadius = 0.35

// Occurrence is one token instance: a word bound to a manifold position,
// a phase, and an activation history. Its NeighborhoodID is a relation
// resolved through the system index, not an owning pointer.
type Occurrence struct {
	Word            string
	Position        manifold.Point
	Phase           manifold.Phase
	ActivationCount int
	NeighborhoodID  string
}

// Activate increments the activation counter. The counter never
// decreases.
func (o *Occurrence) Activate() {
	o.ActivationCount++
}

// Neighborhood is an ordered group of occurrences from one ingested
// chunk, placed near a shared seed point. It exclusively owns its
// occurrences.
type Neighborhood struct {
	ID          string
	Seed        manifold.Point
	SourceText  string
	Occurrences []*Occurrence
}

// NewNeighborhood tokenizes chunk text and builds occurrences near a
// freshly sampled seed, phases assigned by token index on the
// golden-angle lattice. Returns nil when the chunk has no tokens.
func NewNeighborhood(text string, rng *rand.Rand) *Neighborhood {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	n := &Neighborhood{
		ID:         uuid.NewString(),
		Seed:       manifold.Random(rng),
		SourceText: text,
	}
	for i, tok := range tokens {
		n.Occurrences = append(n.Occurrences, &Occurrence{
			Word:           tok,
			Position:       manifold.RandomNear(n.Seed, seedRadius, rng),
			Phase:          manifold.LatticePhase(i),
			NeighborhoodID: n.ID,
		})
	}
	return n
}

// Activate increments every occurrence of word (case-insensitive) and
// returns the matched occurrences.
func (n *Neighborhood) Activate(word string) []*Occurrence {
	word = strings.ToLower(word)
	var matched []*Occurrence
	for _, o := range n.Occurrences {
		if o.Word == word {
			o.Activate()
			matched = append(matched, o)
		}
	}
	return matched
}

// TotalActivation sums the activation counters of all occurrences.
func (n *Neighborhood) TotalActivation() int {
	total := 0
	for _, o := range n.Occurrences {
		total += o.ActivationCount
	}
	return total
}

// Words returns the occurrence words in ingestion order. Used as recall
// text when the source chunk was not kept.
func (n *Neighborhood) Words() string {
	words := make([]string, len(n.Occurrences))
	for i, o := range n.Occurrences {
		words[i] = o.Word
	}
	return strings.Join(words, " ")
}

// Episode is a named, ordered group of neighborhoods from one document
// or conversation. Exactly one episode per system carries the Conscious
// flag; it is never removed.
type Episode struct {
	ID            string
	Name          string
	Conscious     bool
	CreatedAt     time.Time
	Neighborhoods []*Neighborhood
}

// NewEpisode creates an empty episode.
func NewEpisode(name string, conscious bool) *Episode {
	return &Episode{
		ID:        uuid.NewString(),
		Name:      name,
		Conscious: conscious,
		CreatedAt: time.Now().UTC(),
	}
}

// Activate activates word across all neighborhoods and returns the
// matched occurrences.
func (e *Episode) Activate(word string) []*Occurrence {
	var matched []*Occurrence
	for _, n := range e.Neighborhoods {
		matched = append(matched, n.Activate(word)...)
	}
	return matched
}

// OccurrenceCount returns the number of occurrences across all
// neighborhoods.
func (e *Episode) OccurrenceCount() int {
	count := 0
	for _, n := range e.Neighborhoods {
		count += len(n.Occurrences)
	}
	return count
}

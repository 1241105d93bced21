// Package engine runs noema's query pipeline over a memory system:
// activation, geometric consolidation (drift), phase interference and
// coupling, surfacing, and context composition.
//
// The engine is single-threaded by contract: callers must not overlap
// queries against one system, because index rebuilds and in-place
// occurrence mutation are not safe under concurrent access.
package engine

import (
	"math"

	"github.com/noema-ai/noema/internal/memory"
)

// Params are the engine's tuning constants. The midpoint weighting and
// centroid damping are empirically chosen; they are kept configurable
// rather than derived.
type Params struct {
	// AnchorThreshold is the activation share above which an occurrence
	// is anchored (immobile), and the surfaced fraction above which
	// neighborhoods and episodes turn vivid.
	AnchorThreshold float64
	// PairwiseLimit is the mobile-batch size at and above which
	// consolidation switches from the O(n²) pairwise strategy to the
	// O(n) centroid strategy.
	PairwiseLimit int
	// CentroidDamping scales each step toward the centroid.
	CentroidDamping float64
	// LongQueryTokens is the query token count above which the weight
	// floor applies before consolidation.
	LongQueryTokens int
	// LongQueryShare sizes the weight-floor denominator as a share of
	// the total neighborhood count.
	LongQueryShare float64
}

// DefaultParams returns the standard engine constants.
func DefaultParams() Params {
	return Params{
		AnchorThreshold: 0.5,
		PairwiseLimit:   200,
		CentroidDamping: 0.5,
		LongQueryTokens: 50,
		LongQueryShare:  0.1,
	}
}

// Engine orchestrates the query pipeline against one memory system.
type Engine struct {
	sys    *memory.System
	params Params
}

// New creates an engine over sys.
func New(sys *memory.System, params Params) *Engine {
	return &Engine{sys: sys, params: params}
}

// System returns the underlying memory system.
func (e *Engine) System() *memory.System {
	return e.sys
}

// Ingest stores text as a new episode. See memory.System.Ingest.
func (e *Engine) Ingest(text, name string) *memory.Episode {
	return e.sys.Ingest(text, name)
}

// AddToConscious stores text in the conscious episode. See
// memory.System.AddToConscious.
func (e *Engine) AddToConscious(text string) *memory.Neighborhood {
	return e.sys.AddToConscious(text)
}

// Activation partitions the occurrences matched by a query into the
// subconscious set (ordinary episodes) and the conscious set, keyed by
// word.
type Activation struct {
	Subconscious map[string][]*memory.Occurrence
	Conscious    map[string][]*memory.Occurrence
}

// Empty reports whether the query matched nothing.
func (a *Activation) Empty() bool {
	return len(a.Subconscious) == 0 && len(a.Conscious) == 0
}

// QueryResult bundles the outputs of one processed query.
type QueryResult struct {
	Activation   *Activation
	Interference *Interference
	Surface      *Surface
}

// ProcessQuery runs the full pipeline for one query: activate matching
// occurrences, consolidate mobile ones, apply phase interference and
// coupling, and surface reportable fragments. Queries with no
// recognized tokens return empty results, never errors.
func (e *Engine) ProcessQuery(query string) *QueryResult {
	tokens := memory.Tokenize(query)
	act := e.activate(tokens)
	e.consolidate(act, len(tokens))
	inter := e.interfere(act)
	surf := e.surface(act, inter)
	return &QueryResult{Activation: act, Interference: inter, Surface: surf}
}

// activate increments the counter of every occurrence matching a unique
// query token and partitions the matches. It mutates activation
// counters and nothing else.
func (e *Engine) activate(tokens []string) *Activation {
	act := &Activation{
		Subconscious: make(map[string][]*memory.Occurrence),
		Conscious:    make(map[string][]*memory.Occurrence),
	}
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		for _, o := range e.sys.OccurrencesOf(tok) {
			o.Activate()
			ep := e.sys.EpisodeOf(o.NeighborhoodID)
			if ep != nil && ep.Conscious {
				act.Conscious[tok] = append(act.Conscious[tok], o)
			} else {
				act.Subconscious[tok] = append(act.Subconscious[tok], o)
			}
		}
	}
	return act
}

// plasticity decreases with activation: frequently-activated
// occurrences resist further phase change.
func plasticity(o *memory.Occurrence) float64 {
	return 1 / (1 + math.Log(1+float64(o.ActivationCount)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

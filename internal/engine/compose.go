package engine

import (
	"sort"

	"github.com/noema-ai/noema/internal/memory"
)

// Fragment labels, in selection priority order.
const (
	LabelPrimary   = "primary recall"
	LabelSecondary = "secondary recall"
	LabelLateral   = "lateral connection"

	// SourceConscious marks fragments recalled from the conscious
	// episode instead of a named source.
	SourceConscious = "conscious"
)

// Fragment is one labeled piece of recalled context for the
// text-generation client.
type Fragment struct {
	Label  string `json:"label"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Metrics counts the fragments selected per category.
type Metrics struct {
	Primary   int `json:"primary"`
	Secondary int `json:"secondary"`
	Lateral   int `json:"lateral"`
}

// Context is the composed bundle: at most four labeled fragments plus
// selection counts for observability.
type Context struct {
	Fragments []Fragment `json:"fragments"`
	Metrics   Metrics    `json:"metrics"`
}

// recalled aggregates one neighborhood's activated occurrences for
// ranking.
type recalled struct {
	n         *memory.Neighborhood
	ep        *memory.Episode
	activated []*memory.Occurrence
	score     float64
}

// ComposeContext ranks surfaced material into at most four fragments:
// one primary recall (best conscious neighborhood), up to two secondary
// recalls (best subconscious neighborhoods), and at most one lateral
// connection, a single strong, rare, not-yet-anchored word bridge. A
// category with zero matches contributes nothing.
func (e *Engine) ComposeContext(surf *Surface, act *Activation, inter *Interference) *Context {
	ctx := &Context{}

	conscious := e.rankNeighborhoods(act.Conscious)
	subconscious := e.rankNeighborhoods(act.Subconscious)

	selected := make(map[string]bool)

	if len(conscious) > 0 {
		best := conscious[0]
		ctx.add(LabelPrimary, SourceConscious, best.n)
		ctx.Metrics.Primary++
		selected[best.n.ID] = true
	}

	for _, r := range subconscious {
		if ctx.Metrics.Secondary == 2 {
			break
		}
		if selected[r.n.ID] {
			continue
		}
		ctx.add(LabelSecondary, e.sourceOf(r), r.n)
		ctx.Metrics.Secondary++
		selected[r.n.ID] = true
	}

	if lateral := e.lateral(subconscious, act, selected); lateral != nil {
		ctx.add(LabelLateral, e.sourceOf(*lateral), lateral.n)
		ctx.Metrics.Lateral++
	}

	return ctx
}

// rankNeighborhoods groups activated occurrences by neighborhood and
// sorts by score: the sum of word weight × activation count over ALL of
// the neighborhood's occurrences, not just the ones this query touched.
// Accumulated history on other words keeps a well-worn neighborhood
// ahead of one with a single hot match.
func (e *Engine) rankNeighborhoods(byWord map[string][]*memory.Occurrence) []recalled {
	grouped := make(map[string]*recalled)
	for _, occs := range byWord {
		for _, o := range occs {
			r, ok := grouped[o.NeighborhoodID]
			if !ok {
				r = &recalled{
					n:  e.sys.Neighborhood(o.NeighborhoodID),
					ep: e.sys.EpisodeOf(o.NeighborhoodID),
				}
				if r.n != nil {
					for _, oo := range r.n.Occurrences {
						r.score += e.sys.WordWeight(oo.Word) * float64(oo.ActivationCount)
					}
				}
				grouped[o.NeighborhoodID] = r
			}
			r.activated = append(r.activated, o)
		}
	}

	ranked := make([]recalled, 0, len(grouped))
	for _, r := range grouped {
		if r.n != nil {
			ranked = append(ranked, *r)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].n.ID < ranked[j].n.ID
	})
	return ranked
}

// lateral picks among unselected subconscious neighborhoods with at
// most 2 activated occurrences and no word overlap with the conscious
// activation set, maximizing maxWeight × maxPlasticity / activated.
func (e *Engine) lateral(subconscious []recalled, act *Activation, selected map[string]bool) *recalled {
	var best *recalled
	bestScore := 0.0
	for i := range subconscious {
		r := subconscious[i]
		if selected[r.n.ID] || len(r.activated) == 0 || len(r.activated) > 2 {
			continue
		}

		overlap := false
		maxWeight, maxPlast := 0.0, 0.0
		for _, o := range r.activated {
			if _, shared := act.Conscious[o.Word]; shared {
				overlap = true
				break
			}
			if w := e.sys.WordWeight(o.Word); w > maxWeight {
				maxWeight = w
			}
			if p := plasticity(o); p > maxPlast {
				maxPlast = p
			}
		}
		if overlap {
			continue
		}

		score := maxWeight * maxPlast / float64(len(r.activated))
		if score > bestScore {
			bestScore = score
			best = &subconscious[i]
		}
	}
	return best
}

func (e *Engine) sourceOf(r recalled) string {
	if r.ep == nil {
		return ""
	}
	if r.ep.Conscious {
		return SourceConscious
	}
	return r.ep.Name
}

func (c *Context) add(label, source string, n *memory.Neighborhood) {
	text := n.SourceText
	if text == "" {
		text = n.Words()
	}
	c.Fragments = append(c.Fragments, Fragment{Label: label, Source: source, Text: text})
}

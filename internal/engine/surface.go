package engine

import (
	"sort"

	"github.com/noema-ai/noema/internal/memory"
)

// Surface is the reportable outcome of a query at three granularities.
// An occurrence never appears both as a loose fragment and inside a
// vivid neighborhood or episode.
type Surface struct {
	// Fragments are surfaced occurrences not covered by any vivid
	// grouping, in deterministic word order.
	Fragments []*memory.Occurrence
	// VividNeighborhoods had more than the threshold fraction of their
	// occurrences surfaced.
	VividNeighborhoods []*memory.Neighborhood
	// VividEpisodes additionally hold more than the threshold share of
	// the system's mass.
	VividEpisodes []*memory.Episode
}

// surface selects occurrences worth reporting: positive interference,
// or a novel subconscious word absent from the conscious activation
// set. Neighborhoods and episodes whose surfaced fraction crosses the
// threshold are promoted and absorb their occurrences.
func (e *Engine) surface(act *Activation, inter *Interference) *Surface {
	surfaced := make(map[*memory.Occurrence]bool)
	words := make([]string, 0, len(act.Subconscious))
	for word, occs := range act.Subconscious {
		words = append(words, word)
		_, shared := act.Conscious[word]
		for _, o := range occs {
			if inter.ByOccurrence[o] > 0 || !shared {
				surfaced[o] = true
			}
		}
	}
	sort.Strings(words)

	// Promote neighborhoods, then episodes, by surfaced fraction.
	byNeighborhood := make(map[string]int)
	byEpisode := make(map[*memory.Episode]int)
	for o := range surfaced {
		byNeighborhood[o.NeighborhoodID]++
		if ep := e.sys.EpisodeOf(o.NeighborhoodID); ep != nil {
			byEpisode[ep]++
		}
	}

	vividN := make(map[string]*memory.Neighborhood)
	for id, count := range byNeighborhood {
		n := e.sys.Neighborhood(id)
		if n == nil || len(n.Occurrences) == 0 {
			continue
		}
		if float64(count)/float64(len(n.Occurrences)) > e.params.AnchorThreshold {
			vividN[id] = n
		}
	}

	vividE := make(map[*memory.Episode]bool)
	for ep, count := range byEpisode {
		total := ep.OccurrenceCount()
		if total == 0 {
			continue
		}
		fraction := float64(count) / float64(total)
		if fraction > e.params.AnchorThreshold && e.sys.MassShare(ep) > e.params.AnchorThreshold {
			vividE[ep] = true
		}
	}

	surf := &Surface{}
	for id := range vividN {
		surf.VividNeighborhoods = append(surf.VividNeighborhoods, vividN[id])
	}
	sort.Slice(surf.VividNeighborhoods, func(i, j int) bool {
		return surf.VividNeighborhoods[i].ID < surf.VividNeighborhoods[j].ID
	})
	for ep := range vividE {
		surf.VividEpisodes = append(surf.VividEpisodes, ep)
	}
	sort.Slice(surf.VividEpisodes, func(i, j int) bool {
		return surf.VividEpisodes[i].ID < surf.VividEpisodes[j].ID
	})

	// Loose fragments: everything surfaced that no vivid grouping
	// already reports.
	for _, word := range words {
		for _, o := range act.Subconscious[word] {
			if !surfaced[o] {
				continue
			}
			if _, covered := vividN[o.NeighborhoodID]; covered {
				continue
			}
			if ep := e.sys.EpisodeOf(o.NeighborhoodID); ep != nil && vividE[ep] {
				continue
			}
			surf.Fragments = append(surf.Fragments, o)
		}
	}
	return surf
}

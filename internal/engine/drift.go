package engine

import (
	"github.com/noema-ai/noema/internal/manifold"
	"github.com/noema-ai/noema/internal/memory"
)

// driftRate returns how far an occurrence may move this round, in
// [0,1). Zero when its neighborhood has no activation at all, and zero
// when the occurrence is anchored: its own share of the neighborhood's
// activation exceeds the anchoring threshold, making it a stable
// reference point.
func (e *Engine) driftRate(o *memory.Occurrence) float64 {
	n := e.sys.Neighborhood(o.NeighborhoodID)
	if n == nil {
		return 0
	}
	total := n.TotalActivation()
	if total == 0 {
		return 0
	}
	share := float64(o.ActivationCount) / float64(total)
	if share > e.params.AnchorThreshold {
		return 0
	}
	return share / e.params.AnchorThreshold
}

// consolidate drifts the mobile activated occurrences toward each
// other. Strategy selection is by batch size: pairwise below
// PairwiseLimit (precise, O(n²)), centroid at or above it
// (approximate, O(n)).
func (e *Engine) consolidate(act *Activation, queryTokens int) {
	mobile := e.mobileOccurrences(act, queryTokens)
	if len(mobile) < 2 {
		return
	}

	var c consolidator
	if len(mobile) < e.params.PairwiseLimit {
		c = pairwiseConsolidator{weigh: e.sys.WordWeight, rate: e.driftRate}
	} else {
		c = centroidConsolidator{
			weigh:   e.sys.WordWeight,
			rate:    e.driftRate,
			damping: e.params.CentroidDamping,
		}
	}
	c.consolidate(mobile)
}

// mobileOccurrences collects activated occurrences with a nonzero drift
// rate. For long queries a weight floor drops over-common words before
// the expensive drift step; this is a cost control, not a correctness
// rule.
func (e *Engine) mobileOccurrences(act *Activation, queryTokens int) []*memory.Occurrence {
	floor := 0.0
	if queryTokens > e.params.LongQueryTokens {
		den := int(e.params.LongQueryShare * float64(e.sys.NeighborhoodCount()))
		if den < 1 {
			den = 1
		}
		floor = 1 / float64(den)
	}

	var mobile []*memory.Occurrence
	collect := func(byWord map[string][]*memory.Occurrence) {
		for word, occs := range byWord {
			if floor > 0 && e.sys.WordWeight(word) < floor {
				continue
			}
			for _, o := range occs {
				if e.driftRate(o) > 0 {
					mobile = append(mobile, o)
				}
			}
		}
	}
	collect(act.Subconscious)
	collect(act.Conscious)
	return mobile
}

// consolidator is one drift strategy over a mobile batch. Both
// implementations leave every position a renormalized unit point.
type consolidator interface {
	consolidate(mobile []*memory.Occurrence)
}

// pairwiseConsolidator moves every unordered pair toward a midpoint
// weighted t1/(t1+t2) by word weight × drift rate, and interpolates
// their phases symmetrically toward each other.
type pairwiseConsolidator struct {
	weigh func(word string) float64
	rate  func(*memory.Occurrence) float64
}

func (c pairwiseConsolidator) consolidate(mobile []*memory.Occurrence) {
	for i := 0; i < len(mobile); i++ {
		for j := i + 1; j < len(mobile); j++ {
			a, b := mobile[i], mobile[j]
			ta := c.weigh(a.Word) * c.rate(a)
			tb := c.weigh(b.Word) * c.rate(b)
			if ta+tb == 0 {
				continue
			}

			// Midpoint pulled toward the heavier endpoint.
			mid := manifold.Slerp(b.Position, a.Position, ta/(ta+tb))
			a.Position = manifold.Slerp(a.Position, mid, clamp01(ta))
			b.Position = manifold.Slerp(b.Position, mid, clamp01(tb))

			d := manifold.Diff(a.Phase, b.Phase)
			a.Phase = (a.Phase + manifold.Phase(d/2*clamp01(ta))).Wrap()
			b.Phase = (b.Phase - manifold.Phase(d/2*clamp01(tb))).Wrap()
		}
	}
}

// centroidConsolidator moves each occurrence toward the word-weighted
// centroid of everyone else, recomputed by subtracting its own
// contribution from the shared sum.
type centroidConsolidator struct {
	weigh   func(word string) float64
	rate    func(*memory.Occurrence) float64
	damping float64
}

func (c centroidConsolidator) consolidate(mobile []*memory.Occurrence) {
	// Snapshot weighted contributions so every step sees the same
	// centroid regardless of iteration order.
	type contrib struct {
		w, x, y, z float64
		weight     float64
	}
	contribs := make([]contrib, len(mobile))
	var sw, sx, sy, sz float64
	for i, o := range mobile {
		weight := c.weigh(o.Word)
		contribs[i] = contrib{
			w:      weight * o.Position.W,
			x:      weight * o.Position.X,
			y:      weight * o.Position.Y,
			z:      weight * o.Position.Z,
			weight: weight,
		}
		sw += contribs[i].w
		sx += contribs[i].x
		sy += contribs[i].y
		sz += contribs[i].z
	}

	for i, o := range mobile {
		rest := manifold.Point{
			W: sw - contribs[i].w,
			X: sx - contribs[i].x,
			Y: sy - contribs[i].y,
			Z: sz - contribs[i].z,
		}.Normalize()

		step := clamp01(c.rate(o) * contribs[i].weight * c.damping)
		o.Position = manifold.Slerp(o.Position, rest, step)
	}
}

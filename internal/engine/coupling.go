package engine

import (
	"math"

	"github.com/noema-ai/noema/internal/manifold"
	"github.com/noema-ai/noema/internal/memory"
)

// Interference records, per subconscious occurrence of a word shared
// with the conscious set, the signed alignment of its phase with the
// conscious group's circular mean: near +1 constructive, near -1
// destructive.
type Interference struct {
	ByOccurrence  map[*memory.Occurrence]float64
	ConsciousMean map[string]manifold.Phase
}

// interfere computes interference for every word present in both
// activation sets, then applies Kuramoto coupling to nudge the two
// groups' phases toward synchrony. Interference is recorded before
// coupling moves anything.
func (e *Engine) interfere(act *Activation) *Interference {
	inter := &Interference{
		ByOccurrence:  make(map[*memory.Occurrence]float64),
		ConsciousMean: make(map[string]manifold.Phase),
	}

	for word, conOccs := range act.Conscious {
		subOccs := act.Subconscious[word]
		if len(subOccs) == 0 {
			continue
		}

		conMean, ok := manifold.CircularMean(phasesOf(conOccs))
		if !ok {
			continue
		}
		inter.ConsciousMean[word] = conMean

		for _, o := range subOccs {
			inter.ByOccurrence[o] = math.Cos(manifold.Diff(conMean, o.Phase))
		}

		e.couple(word, conMean, subOccs, conOccs)
	}
	return inter
}

// couple shifts the subconscious group toward the conscious mean and
// the conscious group oppositely, toward the subconscious mean. The
// coupling coefficients K_CON = N_sub/N_tot and K_SUB = N_con/N_tot sum
// to 1 and are scaled by the squared word weight; each occurrence's
// shift is further damped by its plasticity.
func (e *Engine) couple(word string, conMean manifold.Phase, subOccs, conOccs []*memory.Occurrence) {
	subMean, ok := manifold.CircularMean(phasesOf(subOccs))
	if !ok {
		return
	}

	nTot := float64(len(subOccs) + len(conOccs))
	kCon := float64(len(subOccs)) / nTot
	kSub := float64(len(conOccs)) / nTot
	w := e.sys.WordWeight(word)
	w2 := w * w

	for _, o := range subOccs {
		shift := kCon * w2 * math.Sin(manifold.Diff(o.Phase, conMean)) * plasticity(o)
		o.Phase = (o.Phase + manifold.Phase(shift)).Wrap()
	}
	for _, o := range conOccs {
		shift := kSub * w2 * math.Sin(manifold.Diff(o.Phase, subMean)) * plasticity(o)
		o.Phase = (o.Phase + manifold.Phase(shift)).Wrap()
	}
}

func phasesOf(occs []*memory.Occurrence) []manifold.Phase {
	phases := make([]manifold.Phase, len(occs))
	for i, o := range occs {
		phases[i] = o.Phase
	}
	return phases
}

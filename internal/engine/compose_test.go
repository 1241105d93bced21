package engine

import (
	"testing"
)

func composeFor(t *testing.T, e *Engine, query string) *Context {
	t.Helper()
	res := e.ProcessQuery(query)
	return e.ComposeContext(res.Surface, res.Activation, res.Interference)
}

func TestComposeEmptyQuery(t *testing.T) {
	e := testEngine(t)
	e.Ingest("stored text here", "doc")

	ctx := composeFor(t, e, "nothing matches this")
	if len(ctx.Fragments) != 0 {
		t.Errorf("fragments = %d, want 0", len(ctx.Fragments))
	}
	if ctx.Metrics != (Metrics{}) {
		t.Errorf("metrics = %+v, want all zero", ctx.Metrics)
	}
}

func TestComposePrimaryRecall(t *testing.T) {
	e := testEngine(t)
	e.AddToConscious("gravity bends light")
	e.Ingest("light travels fast", "physics")

	ctx := composeFor(t, e, "light")
	if ctx.Metrics.Primary != 1 {
		t.Fatalf("primary = %d, want 1", ctx.Metrics.Primary)
	}

	first := ctx.Fragments[0]
	if first.Label != LabelPrimary {
		t.Errorf("first label = %q, want %q", first.Label, LabelPrimary)
	}
	if first.Source != SourceConscious {
		t.Errorf("primary source = %q, want %q", first.Source, SourceConscious)
	}
	if first.Text != "gravity bends light" {
		t.Errorf("primary text = %q", first.Text)
	}
}

func TestComposeRanksByAllOccurrences(t *testing.T) {
	e := testEngine(t)
	// Both conscious neighborhoods match "light". A carries heavy
	// activation history on its other words; B only has a hotter copy
	// of the query word itself.
	a := e.AddToConscious("light deep ocean trench")
	b := e.AddToConscious("light speed vacuum constant")
	for _, o := range a.Occurrences[1:] {
		o.ActivationCount = 50
	}
	b.Occurrences[0].ActivationCount = 5

	ctx := composeFor(t, e, "light")
	if ctx.Metrics.Primary != 1 {
		t.Fatalf("primary = %d, want 1", ctx.Metrics.Primary)
	}
	if got := ctx.Fragments[0].Text; got != "light deep ocean trench" {
		t.Errorf("primary text = %q, want the neighborhood with the larger full-occurrence score", got)
	}
}

func TestComposeNoPrimaryWithoutConsciousActivation(t *testing.T) {
	e := testEngine(t)
	e.AddToConscious("gravity bends light")
	e.Ingest("rivers carve canyons", "geology")

	ctx := composeFor(t, e, "rivers")
	for _, f := range ctx.Fragments {
		if f.Label == LabelPrimary {
			t.Error("primary recall fabricated without conscious activation")
		}
	}
	if ctx.Metrics.Primary != 0 {
		t.Errorf("primary metric = %d, want 0", ctx.Metrics.Primary)
	}
}

func TestComposeSecondaryRanking(t *testing.T) {
	e := testEngine(t)
	// Three subconscious neighborhoods matching "river"; activation
	// counts differentiate their scores.
	weak := e.Ingest("river stone", "weak").Neighborhoods[0]
	mid := e.Ingest("river bend", "mid").Neighborhoods[0]
	strong := e.Ingest("river delta", "strong").Neighborhoods[0]
	mid.Occurrences[0].ActivationCount = 2
	strong.Occurrences[0].ActivationCount = 5

	ctx := composeFor(t, e, "river")
	if ctx.Metrics.Secondary != 2 {
		t.Fatalf("secondary = %d, want 2", ctx.Metrics.Secondary)
	}
	if ctx.Fragments[0].Source != "strong" || ctx.Fragments[1].Source != "mid" {
		t.Errorf("secondary order = %q, %q, want strong, mid",
			ctx.Fragments[0].Source, ctx.Fragments[1].Source)
	}
	for _, f := range ctx.Fragments {
		if f.Source == "weak" && f.Label == LabelSecondary {
			t.Error("third-ranked neighborhood selected as secondary")
		}
	}
	_ = weak
}

func TestComposeLateralConnection(t *testing.T) {
	e := testEngine(t)
	e.AddToConscious("planets orbit stars")

	// Two strong subconscious matches fill the secondary slots.
	a := e.Ingest("orbit decay rates", "sat-a").Neighborhoods[0]
	b := e.Ingest("orbit insertion burn", "sat-b").Neighborhoods[0]
	a.Occurrences[0].ActivationCount = 4
	b.Occurrences[0].ActivationCount = 3

	// A rare single-word bridge with no conscious overlap.
	e.Ingest("perihelion shift", "bridge")

	ctx := composeFor(t, e, "orbit perihelion")
	if ctx.Metrics.Lateral != 1 {
		t.Fatalf("lateral = %d, want 1 (metrics %+v)", ctx.Metrics.Lateral, ctx.Metrics)
	}

	last := ctx.Fragments[len(ctx.Fragments)-1]
	if last.Label != LabelLateral {
		t.Errorf("last label = %q, want %q", last.Label, LabelLateral)
	}
	if last.Source != "bridge" {
		t.Errorf("lateral source = %q, want bridge", last.Source)
	}
}

func TestComposeLateralExcludesConsciousOverlap(t *testing.T) {
	e := testEngine(t)
	e.AddToConscious("comet tails glow")
	e.Ingest("comet dust", "overlap")

	// "comet" is in the conscious activation set, so the only candidate
	// is disqualified.
	ctx := composeFor(t, e, "comet")
	if ctx.Metrics.Lateral != 0 {
		t.Errorf("lateral = %d, want 0", ctx.Metrics.Lateral)
	}
}

func TestComposeAtMostFourFragments(t *testing.T) {
	e := testEngine(t)
	e.AddToConscious("shared term notes")
	for i := 0; i < 6; i++ {
		e.Ingest("shared term appears here", "doc")
	}
	e.Ingest("solitary gem", "spare")

	ctx := composeFor(t, e, "shared term solitary")
	if len(ctx.Fragments) > 4 {
		t.Errorf("fragments = %d, want at most 4", len(ctx.Fragments))
	}
}

func TestComposeTextFallsBackToWords(t *testing.T) {
	e := testEngine(t)
	n := e.Ingest("quiet evening rain", "doc").Neighborhoods[0]
	n.SourceText = ""

	ctx := composeFor(t, e, "rain")
	if len(ctx.Fragments) == 0 {
		t.Fatal("expected a fragment")
	}
	if ctx.Fragments[0].Text != "quiet evening rain" {
		t.Errorf("fallback text = %q, want joined words", ctx.Fragments[0].Text)
	}
}

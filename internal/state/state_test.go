package state

import (
	"math"
	"math/rand"
	"testing"

	"github.com/noema-ai/noema/internal/memory"
)

func testSystem(t *testing.T) *memory.System {
	t.Helper()
	sys := memory.NewSystem("tester", rand.New(rand.NewSource(11)))
	sys.Ingest("the cat sat. the cat ran. the dog slept.", "pets")
	sys.Ingest("rivers carve canyons over time", "geology")
	sys.AddToConscious("the sky is blue")
	return sys
}

func TestRoundTrip(t *testing.T) {
	sys := testSystem(t)
	sys.Episodes[0].Activate("cat")

	doc := Export(sys, []Turn{{Role: "user", Text: "hi"}}, nil)
	data, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	restored, err := Import(decoded, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if restored.N() != sys.N() {
		t.Errorf("N = %d, want %d", restored.N(), sys.N())
	}
	if restored.TotalActivation() != sys.TotalActivation() {
		t.Errorf("TotalActivation = %d, want %d", restored.TotalActivation(), sys.TotalActivation())
	}
	if len(restored.Episodes) != len(sys.Episodes) {
		t.Errorf("episodes = %d, want %d", len(restored.Episodes), len(sys.Episodes))
	}
	if restored.NeighborhoodCount() != sys.NeighborhoodCount() {
		t.Errorf("neighborhoods = %d, want %d", restored.NeighborhoodCount(), sys.NeighborhoodCount())
	}
	if restored.AgentName != "tester" {
		t.Errorf("agent name = %q", restored.AgentName)
	}

	// Numeric fields survive within float tolerance.
	orig := sys.Episodes[0].Neighborhoods[0].Occurrences[0]
	back := restored.Episodes[0].Neighborhoods[0].Occurrences[0]
	if back.Word != orig.Word {
		t.Errorf("word = %q, want %q", back.Word, orig.Word)
	}
	if math.Abs(float64(back.Phase-orig.Phase)) > 1e-12 {
		t.Errorf("phase = %v, want %v", back.Phase, orig.Phase)
	}
	if d := math.Abs(back.Position.W - orig.Position.W); d > 1e-12 {
		t.Errorf("position.W drifted by %v", d)
	}
	if back.NeighborhoodID != orig.NeighborhoodID {
		t.Error("neighborhood back-reference lost")
	}

	// The restored index resolves relations as before.
	if restored.EpisodeOf(back.NeighborhoodID) == nil {
		t.Error("restored system cannot resolve neighborhood to episode")
	}
}

func TestDecodeLegacyPhaseField(t *testing.T) {
	data := []byte(`{
		"version": 1,
		"timestamp": "2024-01-01T00:00:00Z",
		"system": {
			"agentName": "old",
			"episodes": [],
			"consciousEpisode": {
				"name": "conscious", "isConscious": true, "id": "ep-1",
				"timestamp": "2024-01-01T00:00:00Z",
				"neighborhoods": [{
					"seed": [1,0,0,0], "id": "nbh-1", "sourceText": "hello there",
					"occurrences": [
						{"word": "hello", "position": [1,0,0,0], "phase": 1.5, "neighborhoodId": "nbh-1"},
						{"word": "there", "position": [0,1,0,0], "phasor": 0.5, "activationCount": 3, "neighborhoodId": ""}
					]
				}]
			}
		}
	}`)

	doc, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode legacy: %v", err)
	}
	sys, err := Import(doc, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Import legacy: %v", err)
	}

	occs := sys.Conscious.Neighborhoods[0].Occurrences
	if float64(occs[0].Phase) != 1.5 {
		t.Errorf("legacy phase field: got %v, want 1.5", occs[0].Phase)
	}
	if occs[0].ActivationCount != 0 {
		t.Errorf("missing activationCount should default 0, got %d", occs[0].ActivationCount)
	}
	if occs[1].ActivationCount != 3 {
		t.Errorf("activationCount = %d, want 3", occs[1].ActivationCount)
	}
	if occs[1].NeighborhoodID != "nbh-1" {
		t.Errorf("empty neighborhoodId not defaulted: %q", occs[1].NeighborhoodID)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"no version", `{"system":{"consciousEpisode":{"id":"x"}}}`},
		{"no conscious episode", `{"version":2,"system":{"episodes":[]}}`},
		{"episode without id", `{"version":2,"system":{"consciousEpisode":{"name":"c"}}}`},
		{"neighborhood without id", `{"version":2,"system":{"consciousEpisode":{"id":"e",
			"neighborhoods":[{"sourceText":"x","occurrences":[]}]}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode([]byte(tc.data)); err == nil {
				t.Error("Decode accepted malformed document")
			}
		})
	}
}

// Package state defines the versioned serialized document for a full
// memory system plus conversation context, and the import/export
// conversions to the in-memory hierarchy. Optional fields get explicit
// defaults on load; structurally malformed documents are rejected
// outright rather than partially recovered.
package state

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/noema-ai/noema/internal/manifold"
	"github.com/noema-ai/noema/internal/memory"
)

// Version is the current document schema version.
const Version = 2

// Document is the single persisted/exchanged representation of an
// agent's full state.
type Document struct {
	Version             int         `json:"version"`
	Timestamp           time.Time   `json:"timestamp"`
	System              SystemState `json:"system"`
	ConversationHistory []Turn      `json:"conversationHistory"`
	ConversationBuffer  []Turn      `json:"conversationBuffer"`
}

// Turn is one conversation exchange entry.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SystemState mirrors memory.System. N and TotalActivation are derived
// sums recorded for observability; import recomputes them.
type SystemState struct {
	Episodes         []EpisodeState `json:"episodes"`
	ConsciousEpisode *EpisodeState  `json:"consciousEpisode"`
	N                int            `json:"n"`
	TotalActivation  int            `json:"totalActivation"`
	AgentName        string         `json:"agentName"`
}

// EpisodeState mirrors memory.Episode.
type EpisodeState struct {
	Name          string              `json:"name"`
	IsConscious   bool                `json:"isConscious"`
	ID            string              `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	Neighborhoods []NeighborhoodState `json:"neighborhoods"`
}

// NeighborhoodState mirrors memory.Neighborhood.
type NeighborhoodState struct {
	Seed        [4]float64        `json:"seed"`
	ID          string            `json:"id"`
	SourceText  string            `json:"sourceText"`
	Occurrences []OccurrenceState `json:"occurrences"`
}

// OccurrenceState mirrors memory.Occurrence.
type OccurrenceState struct {
	Word            string     `json:"word"`
	Position        [4]float64 `json:"position"`
	Phasor          float64    `json:"phasor"`
	ActivationCount int        `json:"activationCount"`
	NeighborhoodID  string     `json:"neighborhoodId"`
}

// UnmarshalJSON tolerates documents written before the phasor rename
// (legacy field name "phase") and before activation counts existed
// (default 0).
func (o *OccurrenceState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Word            string     `json:"word"`
		Position        [4]float64 `json:"position"`
		Phasor          *float64   `json:"phasor"`
		Phase           *float64   `json:"phase"`
		ActivationCount *int       `json:"activationCount"`
		NeighborhoodID  string     `json:"neighborhoodId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.Word = raw.Word
	o.Position = raw.Position
	o.NeighborhoodID = raw.NeighborhoodID
	switch {
	case raw.Phasor != nil:
		o.Phasor = *raw.Phasor
	case raw.Phase != nil:
		o.Phasor = *raw.Phase
	}
	if raw.ActivationCount != nil {
		o.ActivationCount = *raw.ActivationCount
	}
	return nil
}

// Export snapshots sys and the conversation context into a document.
func Export(sys *memory.System, history, buffer []Turn) *Document {
	doc := &Document{
		Version:             Version,
		Timestamp:           time.Now().UTC(),
		ConversationHistory: history,
		ConversationBuffer:  buffer,
	}
	doc.System = SystemState{
		ConsciousEpisode: exportEpisode(sys.Conscious),
		N:                sys.N(),
		TotalActivation:  sys.TotalActivation(),
		AgentName:        sys.AgentName,
	}
	for _, ep := range sys.Episodes {
		doc.System.Episodes = append(doc.System.Episodes, *exportEpisode(ep))
	}
	return doc
}

func exportEpisode(ep *memory.Episode) *EpisodeState {
	out := &EpisodeState{
		Name:        ep.Name,
		IsConscious: ep.Conscious,
		ID:          ep.ID,
		Timestamp:   ep.CreatedAt,
	}
	for _, n := range ep.Neighborhoods {
		ns := NeighborhoodState{
			Seed:       pointVec(n.Seed),
			ID:         n.ID,
			SourceText: n.SourceText,
		}
		for _, o := range n.Occurrences {
			ns.Occurrences = append(ns.Occurrences, OccurrenceState{
				Word:            o.Word,
				Position:        pointVec(o.Position),
				Phasor:          float64(o.Phase),
				ActivationCount: o.ActivationCount,
				NeighborhoodID:  o.NeighborhoodID,
			})
		}
		out.Neighborhoods = append(out.Neighborhoods, ns)
	}
	return out
}

// Import reconstructs a memory system from doc. The rng seeds future
// sampling only; nothing stored is re-randomized.
func Import(doc *Document, rng *rand.Rand) (*memory.System, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	sys := memory.NewSystem(doc.System.AgentName, rng)
	sys.AddEpisode(importEpisode(doc.System.ConsciousEpisode, true))
	for i := range doc.System.Episodes {
		sys.AddEpisode(importEpisode(&doc.System.Episodes[i], false))
	}
	return sys, nil
}

func importEpisode(es *EpisodeState, conscious bool) *memory.Episode {
	ep := &memory.Episode{
		ID:        es.ID,
		Name:      es.Name,
		Conscious: conscious || es.IsConscious,
		CreatedAt: es.Timestamp,
	}
	for _, ns := range es.Neighborhoods {
		n := &memory.Neighborhood{
			ID:         ns.ID,
			Seed:       vecPoint(ns.Seed),
			SourceText: ns.SourceText,
		}
		for _, os := range ns.Occurrences {
			nbhID := os.NeighborhoodID
			if nbhID == "" {
				nbhID = ns.ID
			}
			n.Occurrences = append(n.Occurrences, &memory.Occurrence{
				Word:            os.Word,
				Position:        vecPoint(os.Position).Normalize(),
				Phase:           manifold.Phase(os.Phasor).Wrap(),
				ActivationCount: os.ActivationCount,
				NeighborhoodID:  nbhID,
			})
		}
		ep.Neighborhoods = append(ep.Neighborhoods, n)
	}
	return ep
}

// Validate rejects structurally malformed documents. The caller decides
// whether to start fresh or abort; nothing is silently repaired beyond
// the documented optional-field defaults.
func Validate(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("state: nil document")
	}
	if doc.Version < 1 {
		return fmt.Errorf("state: missing or invalid version %d", doc.Version)
	}
	if doc.System.ConsciousEpisode == nil {
		return fmt.Errorf("state: missing conscious episode")
	}
	episodes := append([]EpisodeState{*doc.System.ConsciousEpisode}, doc.System.Episodes...)
	for _, ep := range episodes {
		if ep.ID == "" {
			return fmt.Errorf("state: episode %q has no id", ep.Name)
		}
		for _, n := range ep.Neighborhoods {
			if n.ID == "" {
				return fmt.Errorf("state: neighborhood in episode %q has no id", ep.Name)
			}
			for _, o := range n.Occurrences {
				if o.Word == "" {
					return fmt.Errorf("state: empty word in neighborhood %s", n.ID)
				}
			}
		}
	}
	return nil
}

// Encode serializes doc as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode parses and validates a serialized document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func pointVec(p manifold.Point) [4]float64 {
	return [4]float64{p.W, p.X, p.Y, p.Z}
}

func vecPoint(v [4]float64) manifold.Point {
	return manifold.Point{W: v[0], X: v[1], Y: v[2], Z: v[3]}
}

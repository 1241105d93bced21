// Package agent runs the interaction loop: each incoming post is
// queried against memory, the composed context is injected into the
// text-generation client, the exchange is ingested back into memory,
// and the full state is snapshotted. Interactions are processed
// strictly one at a time; the engine is never called concurrently.
package agent

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"

	"github.com/noema-ai/noema/internal/board"
	"github.com/noema-ai/noema/internal/config"
	"github.com/noema-ai/noema/internal/engine"
	"github.com/noema-ai/noema/internal/llm"
	"github.com/noema-ai/noema/internal/memory"
	"github.com/noema-ai/noema/internal/state"
	"github.com/noema-ai/noema/internal/store"
)

var salientRe = regexp.MustCompile(`(?s)<salient>(.*?)</salient>`)

// Agent owns one memory system and processes interactions against it.
type Agent struct {
	cfg    config.AgentConfig
	eng    *engine.Engine
	client llm.Client
	db     *store.DB

	history []state.Turn
	buffer  []state.Turn
}

// New creates an agent over a fresh memory system.
func New(cfg config.AgentConfig, db *store.DB, client llm.Client, rng *rand.Rand) *Agent {
	sys := memory.NewSystem(cfg.Name, rng)
	return &Agent{
		cfg:    cfg,
		eng:    engine.New(sys, engine.DefaultParams()),
		client: client,
		db:     db,
	}
}

// Load restores the agent from the last good snapshot, or starts fresh
// when the store is empty.
func Load(cfg config.AgentConfig, db *store.DB, client llm.Client, rng *rand.Rand) (*Agent, error) {
	doc, err := db.LoadLatestGood()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if doc == nil {
		return New(cfg, db, client, rng), nil
	}

	sys, err := state.Import(doc, rng)
	if err != nil {
		return nil, fmt.Errorf("import state: %w", err)
	}
	log.Printf("agent: restored %d episodes, %d occurrences", len(sys.Episodes)+1, sys.N())

	return &Agent{
		cfg:     cfg,
		eng:     engine.New(sys, engine.DefaultParams()),
		client:  client,
		db:      db,
		history: doc.ConversationHistory,
		buffer:  doc.ConversationBuffer,
	}, nil
}

// Engine exposes the underlying engine for one-shot CLI use.
func (a *Agent) Engine() *engine.Engine {
	return a.eng
}

// Handler adapts the agent to the board poller.
func (a *Agent) Handler() board.Handler {
	return func(ctx context.Context, post board.Post) (string, error) {
		seen, err := a.db.SeenInteraction(post.ID)
		if err != nil {
			return "", err
		}
		if seen {
			return "", nil
		}
		return a.ProcessPost(ctx, post)
	}
}

// ProcessPost runs the full cycle for one post: recall, generate,
// memorize, snapshot. The reply body is returned for the board.
func (a *Agent) ProcessPost(ctx context.Context, post board.Post) (string, error) {
	res := a.eng.ProcessQuery(post.Body)
	memCtx := a.eng.ComposeContext(res.Surface, res.Activation, res.Interference)

	system := llm.SystemPrompt(a.cfg.Name, memCtx)
	window := a.window(post.Body)

	resp, err := a.client.Complete(ctx, system, window)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}
	reply := stripSalient(resp.Content)

	// Salient spans become conscious memory; the raw exchange becomes
	// an ordinary episode.
	for _, span := range extractSalient(resp.Content) {
		if a.eng.AddToConscious(span) != nil {
			log.Printf("agent: conscious += %q", span)
		}
	}
	name := post.Author
	if name == "" {
		name = "post " + post.ID
	}
	a.eng.Ingest(post.Body+". "+reply, name)

	a.remember(state.Turn{Role: "user", Text: post.Body})
	a.remember(state.Turn{Role: "assistant", Text: reply})

	if err := a.Snapshot(); err != nil {
		log.Printf("agent: snapshot: %v", err)
	}
	if err := a.db.RecordInteraction(post.ID, post.Body, reply); err != nil {
		log.Printf("agent: record interaction: %v", err)
	}
	return reply, nil
}

// Snapshot persists the full serialized state.
func (a *Agent) Snapshot() error {
	return a.db.SaveSnapshot(state.Export(a.eng.System(), a.history, a.buffer))
}

// window returns the bounded conversation window plus the current
// query as the final user message.
func (a *Agent) window(query string) []llm.Message {
	msgs := make([]llm.Message, 0, len(a.buffer)+1)
	for _, turn := range a.buffer {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Text})
	}
	return append(msgs, llm.Message{Role: "user", Content: query})
}

func (a *Agent) remember(turn state.Turn) {
	a.history = append(a.history, turn)
	a.buffer = append(a.buffer, turn)
	if max := a.cfg.WindowTurns; max > 0 && len(a.buffer) > max {
		a.buffer = a.buffer[len(a.buffer)-max:]
	}
}

// extractSalient returns the inner text of every <salient> span.
func extractSalient(text string) []string {
	var spans []string
	for _, m := range salientRe.FindAllStringSubmatch(text, -1) {
		if span := strings.TrimSpace(m[1]); span != "" {
			spans = append(spans, span)
		}
	}
	return spans
}

// stripSalient removes the tags but keeps their content in the reply.
func stripSalient(text string) string {
	return strings.TrimSpace(salientRe.ReplaceAllString(text, "$1"))
}

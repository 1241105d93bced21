package cli

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/noema-ai/noema/internal/config"
	"github.com/noema-ai/noema/internal/engine"
	"github.com/noema-ai/noema/internal/memory"
	"github.com/noema-ai/noema/internal/state"
	"github.com/noema-ai/noema/internal/store"
)

// loadConfig resolves the --config flag or the default path and applies
// env overrides.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.LLM.Provider = "anthropic"
		cfg.LLM.AnthropicKey = key
	}
	if url := os.Getenv("NOEMA_BOARD_URL"); url != "" {
		cfg.Board.URL = url
	}
	return cfg, nil
}

// openStore opens the configured database, falling back to the default
// path under ~/.noema.
func openStore(cfg config.Config) (*store.DB, error) {
	path := cfg.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}

// loadEngine builds an engine over the last good snapshot, or over a
// fresh system when the store is empty.
func loadEngine(cfg config.Config, db *store.DB) (*engine.Engine, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	doc, err := db.LoadLatestGood()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if doc == nil {
		sys := memory.NewSystem(cfg.Agent.Name, rng)
		return engine.New(sys, engine.DefaultParams()), nil
	}

	sys, err := state.Import(doc, rng)
	if err != nil {
		return nil, fmt.Errorf("import state: %w", err)
	}
	return engine.New(sys, engine.DefaultParams()), nil
}

// snapshot persists the engine's current state.
func snapshot(db *store.DB, eng *engine.Engine) error {
	return db.SaveSnapshot(state.Export(eng.System(), nil, nil))
}

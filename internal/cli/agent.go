package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/noema-ai/noema/internal/agent"
	"github.com/noema-ai/noema/internal/board"
	"github.com/noema-ai/noema/internal/llm"
	"github.com/spf13/cobra"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the board-polling agent loop",
	Long:  "Agent polls the message board for new posts, replies with LLM completions grounded in recalled memory, and memorizes each exchange.",
	RunE:  runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Board.URL == "" {
		return fmt.Errorf("board url not configured (set board.url or NOEMA_BOARD_URL)")
	}

	client, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ag, err := agent.Load(cfg.Agent, db, client, rng)
	if err != nil {
		return err
	}

	cursor, err := db.LastInteractionID()
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}

	interval := time.Duration(cfg.Board.PollInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	poller := board.NewPoller(board.NewClient(cfg.Board.URL), interval, cursor, ag.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "noema agent %q polling %s every %s\n", cfg.Agent.Name, cfg.Board.URL, interval)
	err = poller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		return ag.Snapshot()
	}
	return err
}

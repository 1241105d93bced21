package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var ingestName string
var ingestConscious bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [text]",
	Short: "Store text as a new memory episode",
	Long:  "Ingest stores text as a new episode. Text is taken from the arguments, or from stdin when no arguments are given. With --conscious the text lands in the always-known conscious episode instead.",
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "episode name (default \"cli\")")
	ingestCmd.Flags().BoolVar(&ingestConscious, "conscious", false, "store in the conscious episode")
}

func runIngest(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to ingest")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng, err := loadEngine(cfg, db)
	if err != nil {
		return err
	}

	if ingestConscious {
		n := eng.AddToConscious(text)
		if n == nil {
			return fmt.Errorf("text has no tokens")
		}
		fmt.Printf("conscious: %d words\n", len(n.Occurrences))
	} else {
		name := ingestName
		if name == "" {
			name = "cli"
		}
		ep := eng.Ingest(text, name)
		fmt.Printf("episode %s: %d neighborhoods\n", ep.Name, len(ep.Neighborhoods))
	}

	return snapshot(db, eng)
}

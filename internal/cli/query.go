package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a recall query against stored memory",
	Long:  "Query runs the full recall pipeline and prints the composed context fragments. The run mutates memory (activation, drift, coupling) and is snapshotted.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

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

	res := eng.ProcessQuery(query)
	ctx := eng.ComposeContext(res.Surface, res.Activation, res.Interference)

	if len(ctx.Fragments) == 0 {
		fmt.Println("nothing surfaced")
	}
	for _, f := range ctx.Fragments {
		fmt.Printf("[%s] (%s) %s\n", f.Label, f.Source, f.Text)
	}
	if len(res.Surface.VividNeighborhoods) > 0 || len(res.Surface.VividEpisodes) > 0 {
		fmt.Printf("vivid: %d neighborhoods, %d episodes\n",
			len(res.Surface.VividNeighborhoods), len(res.Surface.VividEpisodes))
	}

	return snapshot(db, eng)
}

package llm

import (
	"fmt"
	"strings"

	"github.com/noema-ai/noema/internal/engine"
)

// SystemPrompt renders the agent persona plus the composed memory
// context into the system prompt for a completion. Recalled fragments
// are labeled so the model can weigh conscious recall against
// associative material.
func SystemPrompt(agentName string, memCtx *engine.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are %s, an agent with an associative long-term memory.
Reply conversationally and concisely. When something in this exchange is
worth keeping permanently, wrap that single sentence in
<salient>...</salient> tags; it will be added to your conscious memory.`, agentName)

	if memCtx != nil && len(memCtx.Fragments) > 0 {
		b.WriteString("\n\nRecalled memory:\n")
		for _, f := range memCtx.Fragments {
			fmt.Fprintf(&b, "- [%s | %s] %s\n", f.Label, f.Source, f.Text)
		}
	}
	return b.String()
}

// Command console is a terminal admin console for the GrowDash dev backend:
// list and register devices, queue commands and watch their results.
package main

import (
	"flag"
	"fmt"
	"os"

	"growdash-agent/cmd/console/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	backend := flag.String("backend", envOr("GROWDASH_CONSOLE_BACKEND", "http://127.0.0.1:9400"), "backend base URL")
	flag.Parse()

	p := tea.NewProgram(ui.NewRootModel(*backend), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

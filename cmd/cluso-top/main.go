// Command cluso-top is a terminal dashboard for the discovery service and a
// catalog server's replication state.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	registryURL := flag.String("registry", "http://localhost:3000", "Discovery service base URL")
	catalogURL := flag.String("catalog", "", "Catalog server base URL for replication status (optional)")
	interval := flag.Duration("interval", 2*time.Second, "Poll interval")
	flag.Parse()

	c := newClient(*registryURL, *catalogURL, *interval)
	p := tea.NewProgram(initialModel(c, *interval), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "cluso-top: %v\n", err)
		os.Exit(1)
	}
}

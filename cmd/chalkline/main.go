// cmd/chalkline/main.go
//
// Entry point for the Chalkline dashboard. Running `chalkline` from a
// project directory initializes the .chalkline workspace and opens the TUI;
// stages are run from there with enter / "a".

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/kingrea/chalkline/internal/config"
	"github.com/kingrea/chalkline/internal/tui"
)

func main() {
	// Pick up SPREADSHEET_ID, GEMINI_API_KEY and friends from a local .env.
	// A missing file is fine; explicit environment always wins.
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitChalklineDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .chalkline directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building dashboard: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running dashboard: %v\n", err)
		os.Exit(1)
	}
}

// cmd/qstorm/main.go
//
// This is the entry point for the qstorm CLI.
// When you run `qstorm` from any directory, that directory becomes the
// project and its .qstorm folder holds config, state, logs and history.
//
// Usage:
//
//	qstorm [-project dir] [-reset]
//	qstorm history [-project dir] [-limit n]

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/qstorm/internal/config"
	"github.com/kingrea/qstorm/internal/logbook"
	"github.com/kingrea/qstorm/internal/session"
	"github.com/kingrea/qstorm/internal/store"
	"github.com/kingrea/qstorm/internal/tui"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "history" {
		runHistory(os.Args[2:])
		return
	}

	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	reset := flag.Bool("reset", false, "discard the saved session and start at setup")
	flag.Parse()

	cfg := loadConfig(*projectDir)

	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		die("open logbook: %v", err)
	}

	slot := session.NewFileSlot(cfg.StatePath())
	if *reset {
		if err := slot.Clear(); err != nil {
			die("reset state: %v", err)
		}
		lb.Info("State slot cleared by -reset")
	}

	db, err := store.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		die("open history store: %v", err)
	}
	defer db.Close()

	app, err := tui.NewApp(cfg,
		tui.WithGateway(db),
		tui.WithSlot(slot),
		tui.WithLogbook(lb),
	)
	if err != nil {
		die("build app: %v", err)
	}

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		die("run TUI: %v", err)
	}
}

// loadConfig resolves the project directory, creates .qstorm if needed and
// loads its config.
func loadConfig(project string) *config.Config {
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitDir(absoluteProject); err != nil {
		die("init .qstorm: %v", err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	return cfg
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "qstorm: "+format+"\n", args...)
	os.Exit(1)
}

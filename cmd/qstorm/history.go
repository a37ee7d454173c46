package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kingrea/qstorm/internal/store"
)

// runHistory prints stored sessions without starting the TUI.
func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	projectDir := fs.String("project", "", "path to the project directory (defaults to cwd)")
	limit := fs.Int("limit", 0, "maximum sessions to list (defaults to history.limit)")
	full := fs.Bool("full", false, "print every question instead of the top ones")
	_ = fs.Parse(args)

	cfg := loadConfig(*projectDir)
	n := *limit
	if n <= 0 {
		n = cfg.HistoryLimit()
	}

	db, err := store.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		die("open history store: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	records, err := db.ListSessions(ctx, n)
	if err != nil {
		die("list sessions: %v", err)
	}
	printRecords(os.Stdout, records, *full, time.Now())
}

func printRecords(w io.Writer, records []store.Record, full bool, now time.Time) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No saved sessions yet.")
		return
	}
	for i, rec := range records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		badge := ""
		if rec.IsParadox {
			badge = " [paradox]"
		}
		fmt.Fprintf(w, "%s%s\n", rec.Scenario, badge)
		fmt.Fprintf(w, "  %s questions · %d starred · %s · %s\n",
			humanize.Comma(int64(len(rec.Questions))),
			rec.StarredCount(),
			humanize.RelTime(rec.CreatedAt, now, "ago", "from now"),
			rec.ID,
		)
		for _, q := range rec.Questions {
			if !full && !q.Starred {
				continue
			}
			mark := " "
			if q.Starred {
				mark = "*"
			}
			fmt.Fprintf(w, "  %s %s\n", mark, strings.TrimSpace(q.Text))
		}
	}
}

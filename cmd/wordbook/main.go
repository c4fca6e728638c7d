// Command wordbook is the terminal client: it browses and edits the words
// held by a wordbookd store.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/japaniel/wordbook/pkg/config"
	"github.com/japaniel/wordbook/pkg/store"
	"github.com/japaniel/wordbook/pkg/tui"
	"github.com/japaniel/wordbook/pkg/vocab"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "wordbook:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("wordbook", flag.ContinueOnError)
	apiURL := fs.String("api", cfg.APIURL, "Base URL of the word store")
	logPath := fs.String("log", cfg.LogFile, "File that receives client logs")
	bookmark := fs.String("bookmark", cfg.BookmarkTag, "Category opened by the bookmark key")
	tz := fs.String("tz", cfg.Timezone, "Time zone used to show timestamps")
	timeout := fs.Duration("timeout", cfg.RequestTimeout, "Timeout of each store request")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := tea.LogToFile(*logPath, "wordbook")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := log.Default()
	logger.SetFlags(log.LstdFlags | log.Lmicroseconds)

	client, err := store.New(*apiURL, store.WithTimeout(*timeout))
	if err != nil {
		return err
	}
	logger.Printf("Using store at %s", client.BaseURL())

	app := tui.New(client, tui.Options{
		BookmarkTag: *bookmark,
		Timeout:     *timeout,
		Location:    vocab.LoadZone(*tz),
		Logger:      logger,
	})
	start := time.Now()
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	logger.Printf("Session ended after %s", time.Since(start).Round(time.Second))
	return nil
}

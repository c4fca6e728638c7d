// Command wordbookd serves the word store over HTTP and imports words from
// articles and the JMdict dictionary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/japaniel/wordbook/pkg/analyzer"
	"github.com/japaniel/wordbook/pkg/config"
	"github.com/japaniel/wordbook/pkg/db"
	"github.com/japaniel/wordbook/pkg/dictionary"
	"github.com/japaniel/wordbook/pkg/ingest"
	"github.com/japaniel/wordbook/pkg/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("wordbookd", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "Path to SQLite database")
	addr := fs.String("addr", cfg.ListenAddr, "Address to listen on")
	dictPath := fs.String("dict", cfg.DictPath, "Path to JMdict-Simplified JSON used for meanings (empty disables)")
	downloadDict := fs.Bool("download-dict", false, "Download the dictionary to -dict when it is missing")
	importURL := fs.String("import-url", "", "Import the words of the article at this URL and exit")
	tag := fs.String("tag", "", "Category added to imported words")
	importDict := fs.String("import-dict", "", "Fill missing meanings from this JMdict-Simplified JSON file and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := log.New(stdout, "", log.LstdFlags)

	conn, err := db.Open(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()
	logger.Printf("Database initialized at %s", *dbPath)

	if *importDict != "" {
		logger.Printf("Loading dictionary from %s...", *importDict)
		dict, err := dictionary.Load(*importDict)
		if err != nil {
			return fmt.Errorf("failed to load dictionary: %w", err)
		}
		count, err := dict.FillMeanings(ctx, conn, logger)
		if err != nil {
			return fmt.Errorf("failed to fill meanings: %w", err)
		}
		logger.Printf("Filled meanings for %d words.", count)
		return nil
	}

	dict := loadDictionary(ctx, *dictPath, *downloadDict, logger)
	a, err := analyzer.NewAnalyzer()
	if err != nil {
		return fmt.Errorf("failed to create analyzer: %w", err)
	}

	if *importURL != "" {
		logger.Printf("Fetching %s...", *importURL)
		art, err := fetchArticle(ctx, *importURL)
		if err != nil {
			return err
		}
		logger.Printf("Title: %s (%d chars)", art.Title, len(art.Text))

		ig := ingest.NewIngester(conn, a, dict, *tag)
		ig.Logger = logger
		if _, err := ig.ImportText(ctx, art.Text); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return nil
	}

	opts := server.Options{
		Addr:           *addr,
		AllowedOrigins: cfg.AllowedOrigins,
		Reader:         a,
		Logger:         logger,
	}
	// A nil *Index must not end up in a non-nil interface.
	if dict != nil {
		opts.Dict = dict
	}
	srv := server.New(conn, opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Printf("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadDictionary returns the index at path, or nil when there is none.
// A missing or broken dictionary only costs the meanings.
func loadDictionary(ctx context.Context, path string, download bool, logger *log.Logger) *dictionary.Index {
	if path == "" {
		return nil
	}
	if download {
		d := dictionary.NewDownloader()
		d.Logger = logger
		if err := d.Ensure(ctx, path); err != nil {
			logger.Printf("Warning: Failed to ensure dictionary at %s: %v. Continuing without meanings.", path, err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		logger.Printf("Skipping dictionary load (%v). Meanings will be empty.", err)
		return nil
	}
	start := time.Now()
	dict, err := dictionary.Load(path)
	if err != nil {
		logger.Printf("Warning: Failed to load dictionary: %v", err)
		return nil
	}
	logger.Printf("Dictionary loaded (%d spellings) in %v", dict.Size(), time.Since(start).Round(time.Millisecond))
	return dict
}

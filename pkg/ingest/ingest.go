// Package ingest turns article text into vocabulary records: sentences are
// tokenized on a worker pool and the resulting words are written in batched
// transactions.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/japaniel/wordbook/pkg/analyzer"
	"github.com/japaniel/wordbook/pkg/db"
	"github.com/japaniel/wordbook/pkg/dictionary"
	"github.com/japaniel/wordbook/pkg/vocab"
)

// Tokenizer is the part of analyzer.Analyzer the Ingester needs.
type Tokenizer interface {
	Analyze(text string) ([]analyzer.Token, error)
	LemmaReading(t analyzer.Token) string
}

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester stores the content words of a document as tagged records.
type Ingester struct {
	DB        *sql.DB
	Tokenizer Tokenizer
	// Dict fills meanings when set.
	Dict *dictionary.Index
	// Tag is added to every imported word, new or existing.
	Tag       string
	BatchSize int
	Workers   int
	// Logger is used for informational messages. nil means no logging.
	Logger *log.Logger
	// OnProgress is called with the number of sentences handed to the writer.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// Result summarizes an import.
type Result struct {
	Sentences int // sentences written, in order
	Words     int // distinct words written
	Created   int // words that were not in the database yet
}

// NewIngester creates a new Ingester.
func NewIngester(conn *sql.DB, tok Tokenizer, dict *dictionary.Index, tag string) *Ingester {
	return &Ingester{
		DB:        conn,
		Tokenizer: tok,
		Dict:      dict,
		Tag:       tag,
		BatchSize: 50,
		Workers:   4,
	}
}

// candidate is a word found in a sentence, ready to be written.
type candidate struct {
	Word    string
	Reading string
	Meaning string
}

func (c candidate) key() string { return c.Word + "\x00" + c.Reading }

type processedSentence struct {
	Index int
	Words []candidate
	Err   error
}

// ImportText splits text into sentences and ingests them.
func (ig *Ingester) ImportText(ctx context.Context, text string) (Result, error) {
	return ig.Ingest(ctx, analyzer.SplitSentences(text))
}

// Ingest tokenizes sentences concurrently and writes their words in sentence
// order. Each word is written once per call.
func (ig *Ingester) Ingest(ctx context.Context, sentences []string) (Result, error) {
	var res Result
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(sentences) == 0 {
		return res, nil
	}
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := max(ig.Workers, 1)
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}
	results := make(chan processedSentence, workers*2)
	wp.Start(ctx)

	bw := NewBatchWriter(ig.DB, ig.BatchSize, 100*time.Millisecond)
	var written, created atomic.Int64

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- ig.consume(results, bw, len(sentences), cancel, &res, &written, &created)
	}()

	var submitErr error
	for i, s := range sentences {
		idx, text := i, s
		job := func(ctx context.Context) error {
			ps := ig.processSentence(idx, text)
			select {
			case results <- ps:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			if ctx.Err() == nil && !errors.Is(err, ErrPoolClosed) {
				submitErr = fmt.Errorf("submit sentence %d: %w", idx, err)
				cancel()
			}
			break
		}
	}

	// Workers are done sending once Close returns.
	wp.Close()
	close(results)
	consumerErr := <-consumerDone
	closeErr := bw.Close()

	res.Words = int(written.Load())
	res.Created = int(created.Load())
	switch {
	case submitErr != nil:
		return res, submitErr
	case consumerErr != nil:
		return res, consumerErr
	case closeErr != nil:
		return res, closeErr
	case parent.Err() != nil:
		return res, parent.Err()
	}
	if ig.Logger != nil {
		ig.Logger.Printf("Imported %d sentences: %d words, %d new", res.Sentences, res.Words, res.Created)
	}
	return res, nil
}

// consume reorders results by sentence index and hands each sentence's new
// words to the batch writer. It drains results even after a failure so that
// workers never block.
func (ig *Ingester) consume(results <-chan processedSentence, bw *BatchWriter, total int, cancel context.CancelFunc,
	res *Result, written, created *atomic.Int64) error {
	buffer := make(map[int]processedSentence)
	seen := make(map[string]bool)
	next := 0
	var firstErr error

	for ps := range results {
		if firstErr != nil {
			continue
		}
		if ps.Err != nil {
			firstErr = ps.Err
			cancel()
			continue
		}
		buffer[ps.Index] = ps

		for {
			item, ok := buffer[next]
			if !ok {
				break
			}
			delete(buffer, next)

			var fresh []candidate
			for _, c := range item.Words {
				if !seen[c.key()] {
					seen[c.key()] = true
					fresh = append(fresh, c)
				}
			}
			if len(fresh) > 0 {
				if err := bw.Submit(ig.writeWords(fresh, written, created)); err != nil {
					firstErr = err
					cancel()
					break
				}
			}
			next++
			res.Sentences = next
			if ig.OnProgress != nil && (next%max(ig.BatchSize, 1) == 0 || next == total) {
				ig.OnProgress(next, total)
			}
		}
		if err := bw.Err(); err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	return firstErr
}

func (ig *Ingester) writeWords(words []candidate, written, created *atomic.Int64) WriteFunc {
	var tags []string
	if ig.Tag != "" {
		tags = []string{ig.Tag}
	}
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, c := range words {
			_, isNew, err := db.CreateOrGetWord(tx, db.Word{
				Word:       c.Word,
				Hiragana:   c.Reading,
				Meaning:    c.Meaning,
				Categories: tags,
			})
			if err != nil {
				return fmt.Errorf("failed to persist word %s: %w", c.Word, err)
			}
			written.Add(1)
			if isNew {
				created.Add(1)
			}
		}
		return nil
	}
}

// processSentence tokenizes one sentence and keeps the dictionary forms of
// its kanji-bearing content words.
func (ig *Ingester) processSentence(index int, sentence string) processedSentence {
	tokens, err := ig.Tokenizer.Analyze(sentence)
	if err != nil {
		return processedSentence{Index: index, Err: fmt.Errorf("analyze sentence %d: %w", index, err)}
	}

	var words []candidate
	seen := make(map[string]bool)
	for _, t := range tokens {
		if !t.IsContentWord() || !vocab.HasKanji(t.BaseForm) {
			continue
		}
		c := candidate{Word: t.BaseForm, Reading: ig.Tokenizer.LemmaReading(t)}
		if seen[c.key()] {
			continue
		}
		seen[c.key()] = true
		if ig.Dict != nil {
			c.Meaning = ig.Dict.Gloss(c.Word, c.Reading)
		}
		words = append(words, c)
	}
	return processedSentence{Index: index, Words: words}
}

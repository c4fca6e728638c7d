package dictionary

import (
	"context"
	"database/sql"
	"log"
	"sort"
	"strings"

	"github.com/japaniel/wordbook/pkg/db"
	"github.com/japaniel/wordbook/pkg/vocab"
)

// maxGlosses caps how many glosses of the first sense end up in a meaning.
const maxGlosses = 3

// Index is an in-memory lookup over dictionary entries keyed by every kanji
// and kana spelling. It is read-only after NewIndex and safe for concurrent
// use.
type Index struct {
	entries map[string][]JMdictEntry
}

// NewIndex builds an index of the provided entries.
func NewIndex(entries []JMdictEntry) *Index {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Index{entries: idx}
}

// Load reads the dictionary at path and indexes it.
func Load(path string) (*Index, error) {
	entries, err := LoadJMdictSimplified(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries), nil
}

// Size returns the number of distinct spellings indexed.
func (ix *Index) Size() int {
	return len(ix.entries)
}

// Lookup returns the entries spelled term. When reading is non-empty only
// entries with a matching kana reading are kept; katakana and hiragana
// compare equal. Common entries sort first, then by entry id.
func (ix *Index) Lookup(term, reading string) []JMdictEntry {
	term = strings.TrimSpace(term)
	if ix == nil || term == "" {
		return nil
	}
	reading = vocab.ToHiragana(strings.TrimSpace(reading))

	var results []JMdictEntry
	seen := make(map[string]bool)
	for _, e := range ix.entries[term] {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		if reading != "" && !hasReading(e, reading) {
			continue
		}
		results = append(results, e)
	}
	sort.SliceStable(results, func(i, j int) bool {
		ci, cj := results[i].common(), results[j].common()
		if ci != cj {
			return ci
		}
		return results[i].ID < results[j].ID
	})
	return results
}

func hasReading(e JMdictEntry, reading string) bool {
	for _, k := range e.Kana {
		if vocab.ToHiragana(k.Text) == reading {
			return true
		}
	}
	return false
}

// Gloss returns a short English meaning for term: the first glosses of the
// best entry's first sense, joined by "; ". It returns "" when nothing
// matches.
func (ix *Index) Gloss(term, reading string) string {
	matches := ix.Lookup(term, reading)
	if len(matches) == 0 {
		return ""
	}
	for _, s := range matches[0].Sense {
		var glosses []string
		for _, g := range s.Gloss {
			if g.Lang != "" && g.Lang != "eng" {
				continue
			}
			if t := strings.TrimSpace(g.Text); t != "" {
				glosses = append(glosses, t)
			}
			if len(glosses) == maxGlosses {
				break
			}
		}
		if len(glosses) > 0 {
			return strings.Join(glosses, "; ")
		}
	}
	return ""
}

// FillMeanings looks up every word whose meaning is blank and stores the
// dictionary gloss. It returns how many words were updated. Words the
// dictionary does not know are left alone.
func (ix *Index) FillMeanings(ctx context.Context, conn *sql.DB, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = log.Default()
	}
	missing, err := db.ListWordsMissingMeaning(conn)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, w := range missing {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		gloss := ix.Gloss(w.Word, w.Hiragana)
		if gloss == "" {
			continue
		}
		if err := db.UpdateMeaning(conn, w.ID, gloss); err != nil {
			logger.Printf("Failed to update word %d (%s): %v", w.ID, w.Word, err)
			continue
		}
		updated++
	}
	return updated, nil
}

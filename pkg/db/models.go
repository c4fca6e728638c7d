package db

import "time"

// Word is one stored vocabulary entry with its categories and kanji index.
type Word struct {
	ID         int64
	Word       string
	Hiragana   string
	Meaning    string
	Korean     string
	WrongCount int
	Categories []string
	Kanji      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExampleCategory holds example sentences rather than words. It is listed
// newest first instead of alphabetically.
const ExampleCategory = "예문"

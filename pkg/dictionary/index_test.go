package dictionary

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/japaniel/wordbook/pkg/db"
)

const testDict = `
{
  "words": [
    {
      "id": "1",
      "kanji": [{"text": "犬", "common": true}],
      "kana": [{"text": "いぬ", "common": true}],
      "sense": [{"gloss": [{"text": "dog"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "2",
      "kanji": [{"text": "走る", "common": true}],
      "kana": [{"text": "はしる", "common": true}],
      "sense": [{"gloss": [{"text": "to run"}], "partOfSpeech": ["v5r"]}]
    },
    {
      "id": "3",
      "kanji": [{"text": "猫", "common": true}],
      "kana": [{"text": "ねこ", "common": true}],
      "sense": [{"gloss": [{"text": "cat"}, {"text": "feline"}, {"text": "kitty"}, {"text": "puss"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "4",
      "kanji": [],
      "kana": [{"text": "テスト", "common": true}],
      "sense": [{"gloss": [{"text": "test"}], "partOfSpeech": ["n", "vs"]}]
    },
    {
      "id": "5",
      "kanji": [{"text": "上手", "common": false}],
      "kana": [{"text": "うわて", "common": false}],
      "sense": [{"gloss": [{"text": "upper part"}], "partOfSpeech": ["n"]}]
    },
    {
      "id": "6",
      "kanji": [{"text": "上手", "common": true}],
      "kana": [{"text": "じょうず", "common": true}],
      "sense": [{"gloss": [{"text": "skillful"}], "partOfSpeech": ["adj-na"]}]
    }
  ]
}
`

func writeDict(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jmdict.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Load(writeDict(t, testDict))
	if err != nil {
		t.Fatalf("load dict: %v", err)
	}
	return ix
}

func TestLoadObjectAndArrayForms(t *testing.T) {
	entries, err := LoadJMdictSimplified(writeDict(t, testDict))
	if err != nil {
		t.Fatalf("load object form: %v", err)
	}
	if len(entries) != 6 {
		t.Errorf("expected 6 entries, got %d", len(entries))
	}

	array := `[{"id": "9", "kanji": [{"text": "山"}], "kana": [{"text": "やま"}], "sense": [{"gloss": [{"text": "mountain"}]}]}]`
	entries, err = LoadJMdictSimplified(writeDict(t, array))
	if err != nil {
		t.Fatalf("load array form: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "9" {
		t.Errorf("unexpected entries: %+v", entries)
	}

	if _, err := LoadJMdictSimplified(writeDict(t, "not json")); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestGloss(t *testing.T) {
	ix := testIndex(t)
	tests := []struct {
		term, reading, want string
	}{
		{"犬", "いぬ", "dog"},
		{"犬", "イヌ", "dog"},
		{"犬", "", "dog"},
		{"いぬ", "", "dog"},
		{"犬", "けん", ""},
		{"猫", "", "cat; feline; kitty"},
		{"テスト", "てすと", "test"},
		{"上手", "", "skillful"},
		{"上手", "うわて", "upper part"},
		{"未知", "みち", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := ix.Gloss(tt.term, tt.reading); got != tt.want {
			t.Errorf("Gloss(%q, %q) = %q, want %q", tt.term, tt.reading, got, tt.want)
		}
	}

	var nilIndex *Index
	if got := nilIndex.Gloss("犬", ""); got != "" {
		t.Errorf("nil index should gloss nothing, got %q", got)
	}
}

func TestFillMeanings(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)
	if err := db.InitDB(conn); err != nil {
		t.Fatalf("init db: %v", err)
	}

	words := []db.Word{
		{Word: "犬", Hiragana: "いぬ"},
		{Word: "走る", Hiragana: "はしる"},
		{Word: "未知", Hiragana: "みち"},
		{Word: "猫", Hiragana: "ねこ", Meaning: "고양이"},
		{Word: "テスト", Hiragana: "てすと"},
	}
	for _, w := range words {
		if _, _, err := db.CreateOrGetWord(conn, w); err != nil {
			t.Fatalf("create word %s: %v", w.Word, err)
		}
	}

	ix := testIndex(t)
	count, err := ix.FillMeanings(context.Background(), conn, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("fill meanings: %v", err)
	}
	// 未知 is not in the dictionary and 猫 already has a meaning.
	if count != 3 {
		t.Errorf("expected 3 updates, got %d", count)
	}

	want := map[string]string{"犬": "dog", "走る": "to run", "未知": "", "猫": "고양이", "テスト": "test"}
	for word, meaning := range want {
		var got string
		if err := conn.QueryRow(`SELECT meaning FROM words WHERE word = ?`, word).Scan(&got); err != nil {
			t.Fatalf("query %s: %v", word, err)
		}
		if got != meaning {
			t.Errorf("meaning of %s = %q, want %q", word, got, meaning)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ix.FillMeanings(ctx, conn, nil); err == nil {
		t.Errorf("expected cancellation error while 未知 is still missing")
	}
}

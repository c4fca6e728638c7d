package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/japaniel/wordbook/pkg/vocab"
)

var (
	ErrNotFound  = errors.New("word not found")
	ErrDuplicate = errors.New("word already exists")
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

const wordColumns = `w.id, w.word, w.hiragana, w.meaning, w.korean, w.wrong_count, w.created_at, w.updated_at`

// CreateWord inserts w with its categories and kanji index. Run it in a
// transaction; it issues several statements.
func CreateWord(db DBExecutor, w Word) (int64, error) {
	term := strings.TrimSpace(w.Word)
	if term == "" {
		return 0, fmt.Errorf("word must be non-empty")
	}
	now := time.Now().UTC()
	created, updated := w.CreatedAt, w.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}

	res, err := db.Exec(`INSERT INTO words (word, hiragana, meaning, korean, wrong_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		term, strings.TrimSpace(w.Hiragana), w.Meaning, w.Korean, max(w.WrongCount, 0), created.UTC(), updated.UTC())
	if err != nil {
		if isUniqueConstraintErr(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert word: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if err := setCategories(db, id, w.Categories); err != nil {
		return 0, err
	}
	if err := setKanji(db, id, term); err != nil {
		return 0, err
	}
	return id, nil
}

// CreateOrGetWord returns the id of the (word, hiragana) entry, inserting w
// when it does not exist yet. An existing entry gains w's categories and is
// otherwise left alone.
func CreateOrGetWord(db DBExecutor, w Word) (id int64, created bool, err error) {
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		id, err = FindWordID(db, w.Word, w.Hiragana)
		if err == nil {
			for _, c := range w.Categories {
				if err := AddCategory(db, id, c); err != nil {
					return 0, false, err
				}
			}
			return id, false, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, false, err
		}

		id, err = CreateWord(db, w)
		if errors.Is(err, ErrDuplicate) {
			// Inserted concurrently; look it up again.
			continue
		}
		if err != nil {
			return 0, false, err
		}
		return id, true, nil
	}
	return 0, false, fmt.Errorf("could not create or get word after %d retries", maxRetries)
}

// UpdateWord replaces every field of word id, re-deriving its kanji index
// and categories and stamping updated_at.
func UpdateWord(db DBExecutor, id int64, w Word) error {
	term := strings.TrimSpace(w.Word)
	if term == "" {
		return fmt.Errorf("word must be non-empty")
	}
	res, err := db.Exec(`UPDATE words SET word = ?, hiragana = ?, meaning = ?, korean = ?, wrong_count = ?, updated_at = ?
		WHERE id = ?`,
		term, strings.TrimSpace(w.Hiragana), w.Meaning, w.Korean, max(w.WrongCount, 0), time.Now().UTC(), id)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update word %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	if err := setCategories(db, id, w.Categories); err != nil {
		return err
	}
	return setKanji(db, id, term)
}

// DeleteWord removes word id and its links.
func DeleteWord(db DBExecutor, id int64) error {
	if _, err := db.Exec(`DELETE FROM word_categories WHERE word_id = ?`, id); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM word_kanji WHERE word_id = ?`, id); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM words WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete word %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindWordID looks a word up by its unique (word, hiragana) pair.
func FindWordID(db DBExecutor, word, hiragana string) (int64, error) {
	var id int64
	err := db.QueryRow(`SELECT id FROM words WHERE word = ? AND hiragana = ?`,
		strings.TrimSpace(word), strings.TrimSpace(hiragana)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

// GetWord returns word id.
func GetWord(db DBExecutor, id int64) (Word, error) {
	words, err := queryWords(db, `SELECT `+wordColumns+` FROM words w WHERE w.id = ?`, id)
	if err != nil {
		return Word{}, err
	}
	if len(words) == 0 {
		return Word{}, ErrNotFound
	}
	return words[0], nil
}

// ListWords returns every word, most recently updated first.
func ListWords(db DBExecutor) ([]Word, error) {
	return queryWords(db, `SELECT `+wordColumns+` FROM words w ORDER BY w.updated_at DESC, w.id DESC`)
}

// ListWordsByKanji returns the words containing kanji, ordered by word.
func ListWordsByKanji(db DBExecutor, kanji string) ([]Word, error) {
	return queryWords(db, `SELECT `+wordColumns+` FROM words w
		JOIN word_kanji wk ON wk.word_id = w.id
		WHERE wk.kanji = ?
		ORDER BY w.word, w.id`, kanji)
}

// ListWordsByCategory returns the words in category name, ordered by word.
// The example category is ordered newest first.
func ListWordsByCategory(db DBExecutor, name string) ([]Word, error) {
	order := `w.word ASC, w.id`
	if name == ExampleCategory {
		order = `w.updated_at DESC, w.id DESC`
	}
	return queryWords(db, `SELECT `+wordColumns+` FROM words w
		JOIN word_categories wc ON wc.word_id = w.id
		JOIN categories c ON c.id = wc.category_id
		WHERE c.name = ?
		ORDER BY `+order, name)
}

// ListWordsMissingMeaning returns the words whose meaning is blank.
func ListWordsMissingMeaning(db DBExecutor) ([]Word, error) {
	return queryWords(db, `SELECT `+wordColumns+` FROM words w WHERE TRIM(w.meaning) = '' ORDER BY w.id`)
}

// UpdateMeaning sets the meaning of word id without touching updated_at.
func UpdateMeaning(db DBExecutor, id int64, meaning string) error {
	res, err := db.Exec(`UPDATE words SET meaning = ? WHERE id = ?`, meaning, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListKanji returns every indexed kanji, sorted.
func ListKanji(db DBExecutor) ([]string, error) {
	return queryStrings(db, `SELECT DISTINCT kanji FROM word_kanji ORDER BY kanji`)
}

// ListCategories returns every category name, sorted.
func ListCategories(db DBExecutor) ([]string, error) {
	return queryStrings(db, `SELECT name FROM categories ORDER BY name`)
}

// AddCategory appends category name to word id unless it is already there.
func AddCategory(db DBExecutor, wordID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	catID, err := ensureCategory(db, name)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT OR IGNORE INTO word_categories (word_id, category_id, position)
		SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM word_categories WHERE word_id = ?`,
		wordID, catID, wordID)
	return err
}

func ensureCategory(db DBExecutor, name string) (int64, error) {
	if _, err := db.Exec(`INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}
	var id int64
	if err := db.QueryRow(`SELECT id FROM categories WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("select category %q: %w", name, err)
	}
	return id, nil
}

func setCategories(db DBExecutor, wordID int64, names []string) error {
	if _, err := db.Exec(`DELETE FROM word_categories WHERE word_id = ?`, wordID); err != nil {
		return err
	}
	for i, name := range vocab.CleanTags(names) {
		catID, err := ensureCategory(db, name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(`INSERT INTO word_categories (word_id, category_id, position) VALUES (?, ?, ?)`,
			wordID, catID, i); err != nil {
			return fmt.Errorf("link category %q: %w", name, err)
		}
	}
	return nil
}

func setKanji(db DBExecutor, wordID int64, term string) error {
	if _, err := db.Exec(`DELETE FROM word_kanji WHERE word_id = ?`, wordID); err != nil {
		return err
	}
	for i, k := range vocab.ExtractKanji(term) {
		if _, err := db.Exec(`INSERT INTO word_kanji (word_id, kanji, position) VALUES (?, ?, ?)`,
			wordID, k, i); err != nil {
			return fmt.Errorf("index kanji %q: %w", k, err)
		}
	}
	return nil
}

// queryWords runs a word query and attaches categories and kanji. The word
// rows are closed before the follow-up queries so a single-connection pool
// does not deadlock.
func queryWords(db DBExecutor, query string, args ...interface{}) ([]Word, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	var out []Word
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Word, &w.Hiragana, &w.Meaning, &w.Korean, &w.WrongCount, &w.CreatedAt, &w.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		cats, err := queryStrings(db, `SELECT c.name FROM word_categories wc
			JOIN categories c ON c.id = wc.category_id
			WHERE wc.word_id = ? ORDER BY wc.position, c.name`, out[i].ID)
		if err != nil {
			return nil, err
		}
		kanji, err := queryStrings(db, `SELECT kanji FROM word_kanji WHERE word_id = ? ORDER BY position`, out[i].ID)
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []string{}
		}
		out[i].Categories = cats
		out[i].Kanji = kanji
	}
	return out, nil
}

func queryStrings(db DBExecutor, query string, args ...interface{}) ([]string, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

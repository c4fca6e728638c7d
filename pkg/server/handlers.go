package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/japaniel/wordbook/pkg/db"
	"github.com/japaniel/wordbook/pkg/vocab"
)

// maxRequestBody bounds a decoded request body.
const maxRequestBody = 1 << 20

func toRecord(w db.Word) vocab.Record {
	rec := vocab.Record{
		ID:            w.ID,
		Term:          w.Word,
		Phonetic:      w.Hiragana,
		Meaning:       w.Meaning,
		NativeReading: w.Korean,
		ScriptRefs:    w.Kanji,
		Tags:          w.Categories,
		MissCount:     w.WrongCount,
		CreatedAt:     w.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     w.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if rec.ScriptRefs == nil {
		rec.ScriptRefs = []string{}
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec
}

func toRecords(words []db.Word) []vocab.Record {
	out := make([]vocab.Record, 0, len(words))
	for _, w := range words {
		out = append(out, toRecord(w))
	}
	return out
}

// fromRecord maps an incoming record onto a db.Word. The kanji index and
// timestamps are always derived server-side.
func fromRecord(rec vocab.Record) db.Word {
	return db.Word{
		Word:       strings.TrimSpace(rec.Term),
		Hiragana:   strings.TrimSpace(rec.Phonetic),
		Meaning:    rec.Meaning,
		Korean:     rec.NativeReading,
		WrongCount: rec.MissCount,
		Categories: rec.Tags,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (vocab.Record, bool) {
	var rec vocab.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return rec, false
	}
	if strings.TrimSpace(rec.Term) == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return rec, false
	}
	return rec, true
}

func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) listWords(w http.ResponseWriter, r *http.Request) {
	words, err := db.ListWords(s.conn)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(words))
}

func (s *Server) listKanji(w http.ResponseWriter, r *http.Request) {
	kanji, err := db.ListKanji(s.conn)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if kanji == nil {
		kanji = []string{}
	}
	writeJSON(w, http.StatusOK, kanji)
}

func (s *Server) listByKanji(w http.ResponseWriter, r *http.Request) {
	words, err := db.ListWordsByKanji(s.conn, pathParam(r, "key"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(words))
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := db.ListCategories(s.conn)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) listByCategory(w http.ResponseWriter, r *http.Request) {
	words, err := db.ListWordsByCategory(s.conn, pathParam(r, "category"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecords(words))
}

func (s *Server) createWord(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	word := fromRecord(rec)
	if word.Hiragana == "" && s.reader != nil {
		word.Hiragana = s.reader.Reading(word.Word)
	}
	if strings.TrimSpace(word.Meaning) == "" && s.dict != nil {
		word.Meaning = s.dict.Gloss(word.Word, word.Hiragana)
	}

	var id int64
	err := db.WithTx(s.conn, func(tx *sql.Tx) error {
		var err error
		id, err = db.CreateWord(tx, word)
		return err
	})
	if errors.Is(err, db.ErrDuplicate) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s (%s) already exists", word.Word, word.Hiragana))
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.respondWord(w, r, http.StatusCreated, id)
}

func (s *Server) replaceWord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(pathParam(r, "key"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid word id")
		return
	}
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	s.replace(w, r, id, fromRecord(rec))
}

// replaceByTerm replaces the word identified by the body's word and reading.
func (s *Server) replaceByTerm(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	word := fromRecord(rec)
	id, err := db.FindWordID(s.conn, word.Word, word.Hiragana)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s (%s) not found", word.Word, word.Hiragana))
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.replace(w, r, id, word)
}

func (s *Server) replace(w http.ResponseWriter, r *http.Request, id int64, word db.Word) {
	err := db.WithTx(s.conn, func(tx *sql.Tx) error {
		return db.UpdateWord(tx, id, word)
	})
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, fmt.Sprintf("word %d not found", id))
	case errors.Is(err, db.ErrDuplicate):
		writeError(w, http.StatusConflict, fmt.Sprintf("%s (%s) already exists", word.Word, word.Hiragana))
	case err != nil:
		s.internalError(w, r, err)
	default:
		s.respondWord(w, r, http.StatusOK, id)
	}
}

func (s *Server) deleteWord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(pathParam(r, "key"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid word id")
		return
	}
	err = db.WithTx(s.conn, func(tx *sql.Tx) error {
		return db.DeleteWord(tx, id)
	})
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("word %d not found", id))
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respondWord(w http.ResponseWriter, r *http.Request, code int, id int64) {
	word, err := db.GetWord(s.conn, id)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, code, toRecord(word))
}

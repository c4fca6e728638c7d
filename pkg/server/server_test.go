package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/wordbook/pkg/db"
	"github.com/japaniel/wordbook/pkg/store"
	"github.com/japaniel/wordbook/pkg/vocab"
)

type fakeReader map[string]string

func (f fakeReader) Reading(word string) string { return f[word] }

type fakeDict map[string]string

func (f fakeDict) Gloss(term, reading string) string { return f[term+"/"+reading] }

func newTestServer(t *testing.T) (*httptest.Server, *store.Client, *sql.DB) {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	require.NoError(t, db.InitDB(conn))

	srv := New(conn, Options{
		Reader: fakeReader{"先生": "せんせい"},
		Dict:   fakeDict{"先生/せんせい": "teacher"},
	})
	ts := httptest.NewServer(srv.Handler())
	client, err := store.New(ts.URL, store.WithRetries(0))
	require.NoError(t, err)
	t.Cleanup(func() {
		ts.Close()
		conn.Close()
	})
	return ts, client, conn
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se *store.StatusError
	require.True(t, errors.As(err, &se), "expected a StatusError, got %v", err)
	return se.Code
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEmptyLists(t *testing.T) {
	ts, client, _ := newTestServer(t)
	ctx := context.Background()

	recs, err := client.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	resp := doJSON(t, http.MethodGet, ts.URL+"/kanji", nil)
	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, `[]`, string(raw))

	tags, err := client.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestCreateFillsReadingAndMeaning(t *testing.T) {
	ts, client, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, vocab.Record{Term: "先生", NativeReading: "센세이", Tags: []string{"직업", "직업", " "}}))

	recs, err := client.ListByScript(ctx, "先")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "せんせい", rec.Phonetic)
	assert.Equal(t, "teacher", rec.Meaning)
	assert.Equal(t, []string{"先", "生"}, rec.ScriptRefs)
	assert.Equal(t, []string{"직업"}, rec.Tags)
	assert.NotEmpty(t, rec.CreatedAt)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	// An explicit meaning is kept as given.
	resp := doJSON(t, http.MethodPost, ts.URL+"/kanji", vocab.Record{Term: "山", Phonetic: "やま", Meaning: "산"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created vocab.Record
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "산", created.Meaning)
	assert.Positive(t, created.ID)
}

func TestCreateRejections(t *testing.T) {
	ts, client, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.Create(ctx, vocab.Record{Term: "犬", Phonetic: "いぬ"}))
	err := client.Create(ctx, vocab.Record{Term: "犬", Phonetic: "いぬ"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Contains(t, err.Error(), "already exists")

	err = client.Create(ctx, vocab.Record{Term: "  "})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Contains(t, err.Error(), "word is required")

	resp := doJSON(t, http.MethodPost, ts.URL+"/kanji", "not a record")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReplaceByID(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, client.Create(ctx, vocab.Record{Term: "記者", Phonetic: "きしゃ", Tags: []string{"직업"}}))
	require.NoError(t, client.Create(ctx, vocab.Record{Term: "川", Phonetic: "かわ"}))

	recs, err := client.ListByTag(ctx, "직업")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	rec.Term, rec.Phonetic, rec.MissCount = "記事", "きじ", 2
	rec.Tags = []string{"언론"}
	require.NoError(t, client.Replace(ctx, rec))

	byOld, err := client.ListByScript(ctx, "者")
	require.NoError(t, err)
	assert.Empty(t, byOld)
	byNew, err := client.ListByTag(ctx, "언론")
	require.NoError(t, err)
	require.Len(t, byNew, 1)
	assert.Equal(t, "記事", byNew[0].Term)
	assert.Equal(t, 2, byNew[0].MissCount)
	assert.Equal(t, []string{"記", "事"}, byNew[0].ScriptRefs)

	dup := byNew[0]
	dup.Term, dup.Phonetic = "川", "かわ"
	assert.Equal(t, http.StatusConflict, statusOf(t, client.Replace(ctx, dup)))

	missing := byNew[0]
	missing.ID = 999
	assert.Equal(t, http.StatusNotFound, statusOf(t, client.Replace(ctx, missing)))
}

func TestReplaceByTerm(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, client.Create(ctx, vocab.Record{Term: "猫", Phonetic: "ねこ"}))

	require.NoError(t, client.Replace(ctx, vocab.Record{Term: "猫", Phonetic: "ねこ", Meaning: "고양이", Tags: []string{"동물"}}))
	recs, err := client.ListByTag(ctx, "동물")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "고양이", recs[0].Meaning)

	err = client.Replace(ctx, vocab.Record{Term: "犬", Phonetic: "いぬ"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestDelete(t *testing.T) {
	ts, client, _ := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, client.Create(ctx, vocab.Record{Term: "雨", Phonetic: "あめ"}))
	recs, err := client.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	url := ts.URL + "/kanji/" + jsonID(recs[0].ID)
	assert.Equal(t, http.StatusNoContent, doJSON(t, http.MethodDelete, url, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodDelete, url, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodDelete, ts.URL+"/kanji/abc", nil).StatusCode)

	scripts, err := client.ListScripts(ctx)
	require.NoError(t, err)
	assert.Empty(t, scripts)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestCategoryAndKanjiLists(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()
	for _, rec := range []vocab.Record{
		{Term: "山道", Phonetic: "やまみち", Tags: []string{"자연"}},
		{Term: "山", Phonetic: "やま", Tags: []string{"자연", db.ExampleCategory}},
		{Term: "ありがとう", Phonetic: "ありがとう", Tags: []string{"인사"}},
	} {
		require.NoError(t, client.Create(ctx, rec))
	}

	byKanji, err := client.ListByScript(ctx, "山")
	require.NoError(t, err)
	require.Len(t, byKanji, 2)
	assert.Equal(t, "山", byKanji[0].Term)
	assert.Equal(t, "山道", byKanji[1].Term)

	scripts, err := client.ListScripts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"山", "道", vocab.NoKanji}, scripts)

	tags, err := client.ListTags(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"자연", "인사", db.ExampleCategory}, tags)

	nature, err := client.ListByTag(ctx, "자연")
	require.NoError(t, err)
	assert.Len(t, nature, 2)
}

func TestCORSPreflight(t *testing.T) {
	ts, _, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/kanji", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

package vocab_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/wordbook/pkg/vocab"
)

func TestParseTagsRoundTrip(t *testing.T) {
	parsed := vocab.ParseTags("a, b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, parsed)

	again := vocab.ParseTags(vocab.FormatTags(parsed))
	assert.Equal(t, parsed, again)
}

func TestSplitTagsKeepsEmptyPieces(t *testing.T) {
	assert.Equal(t, []string{"nature", ""}, vocab.SplitTags("nature, "))
	assert.Equal(t, []string{"nature"}, vocab.ParseTags("nature, "))
	assert.Empty(t, vocab.SplitTags("   "))
	assert.NotNil(t, vocab.ParseTags(""))
}

func TestCleanTags(t *testing.T) {
	got := vocab.CleanTags([]string{" 직업 ", "", "언론", "직업"})
	assert.Equal(t, []string{"직업", "언론"}, got)
}

func TestExtractKanji(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"行動", []string{"行", "動"}},
		{"人々の人", []string{"人"}},
		{"すし", []string{vocab.NoKanji}},
		{"食べる", []string{"食"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, vocab.ExtractKanji(tt.term))
		})
	}
}

func TestToHiragana(t *testing.T) {
	assert.Equal(t, "せんせい", vocab.ToHiragana("センセイ"))
	assert.Equal(t, "ー", vocab.ToHiragana("ー"))
}

func TestCloneDoesNotAlias(t *testing.T) {
	src := vocab.Record{Term: "火", Tags: []string{"nature"}, ScriptRefs: []string{"火"}}
	cp := src.Clone()
	cp.Tags[0] = "changed"
	cp.ScriptRefs[0] = "水"

	assert.Equal(t, "nature", src.Tags[0])
	assert.Equal(t, "火", src.ScriptRefs[0])
}

func TestKeyPrefersID(t *testing.T) {
	a := vocab.Record{ID: 7, Term: "水"}
	b := vocab.Record{ID: 8, Term: "水"}
	assert.NotEqual(t, a.Key(), b.Key())

	c := vocab.Record{Term: "水", Phonetic: "みず"}
	assert.Equal(t, "term:水/みず", c.Key())
}

func TestDecodeMissingOptionalFields(t *testing.T) {
	var recs []vocab.Record
	payload := `[{"id":1,"word":"記者","hiragana":"きしゃ","meaning":"기자","korean":"키샤","wrong_count":-2}]`
	require.NoError(t, json.Unmarshal([]byte(payload), &recs))
	require.Len(t, recs, 1)

	recs[0].Normalize()
	assert.Equal(t, []string{}, recs[0].Tags)
	assert.Equal(t, []string{"記", "者"}, recs[0].ScriptRefs)
	assert.Equal(t, 0, recs[0].MissCount)
}

func TestWireNames(t *testing.T) {
	rec := vocab.Record{ID: 3, Term: "火", Phonetic: "ひ", Meaning: "불", NativeReading: "히",
		ScriptRefs: []string{"火"}, Tags: []string{"nature"}, MissCount: 2}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, k := range []string{"id", "word", "hiragana", "meaning", "korean", "kanji_list", "category", "wrong_count"} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "created_at")

	created := vocab.Record{Term: "火", CreatedAt: "x", UpdatedAt: "y", ID: 9}.ForCreate()
	assert.Zero(t, created.ID)
	assert.Empty(t, created.CreatedAt)
	assert.Empty(t, created.UpdatedAt)
}

func TestFormatTimestamp(t *testing.T) {
	seoul := vocab.LoadZone("Asia/Seoul")
	tests := []struct {
		name, raw, want string
	}{
		{"sqlite", "2024-01-02 03:04:05", "2024-01-02 12:04"},
		{"rfc3339", "2024-01-02T03:04:05Z", "2024-01-02 12:04"},
		{"offset", "2024-01-02T03:04:05.123456+09:00", "2024-01-02 03:04"},
		{"empty", "", ""},
		{"garbage", "not a time", "not a time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vocab.FormatTimestamp(tt.raw, seoul))
		})
	}
}

func TestLoadZoneFallback(t *testing.T) {
	loc := vocab.LoadZone("Nowhere/Invalid")
	_, off := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 9*60*60, off)
}

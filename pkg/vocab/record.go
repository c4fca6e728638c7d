// Package vocab defines the word record shared by the client, the store
// and the terminal UI, together with the small text helpers around it.
package vocab

import (
	"strconv"
)

// Record is one vocabulary entry as it travels over the wire.
type Record struct {
	ID            int64    `json:"id,omitempty"`
	Term          string   `json:"word"`
	Phonetic      string   `json:"hiragana"`
	Meaning       string   `json:"meaning"`
	NativeReading string   `json:"korean"`
	ScriptRefs    []string `json:"kanji_list"`
	Tags          []string `json:"category"`
	MissCount     int      `json:"wrong_count"`
	CreatedAt     string   `json:"created_at,omitempty"`
	UpdatedAt     string   `json:"updated_at,omitempty"`
}

// Clone returns a copy of r that shares no slices with it.
func (r Record) Clone() Record {
	out := r
	if r.ScriptRefs != nil {
		out.ScriptRefs = append([]string(nil), r.ScriptRefs...)
	}
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}

// Key identifies a record for list rendering. Records without a server id
// fall back to term and reading, which is only unique per the store's
// (word, hiragana) constraint.
func (r Record) Key() string {
	if r.ID > 0 {
		return "id:" + strconv.FormatInt(r.ID, 10)
	}
	return "term:" + r.Term + "/" + r.Phonetic
}

// Normalize fills what a partial payload leaves out so rendering never has
// to special-case missing fields.
func (r *Record) Normalize() {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if len(r.ScriptRefs) == 0 {
		r.ScriptRefs = ExtractKanji(r.Term)
	}
	if r.MissCount < 0 {
		r.MissCount = 0
	}
}

// ForCreate strips the server-owned fields before a POST.
func (r Record) ForCreate() Record {
	out := r.Clone()
	out.ID = 0
	out.CreatedAt = ""
	out.UpdatedAt = ""
	return out
}

// Equal reports whether two records carry the same values.
func Equal(a, b Record) bool {
	if a.ID != b.ID || a.Term != b.Term || a.Phonetic != b.Phonetic ||
		a.Meaning != b.Meaning || a.NativeReading != b.NativeReading ||
		a.MissCount != b.MissCount || a.CreatedAt != b.CreatedAt || a.UpdatedAt != b.UpdatedAt {
		return false
	}
	return equalStrings(a.ScriptRefs, b.ScriptRefs) && equalStrings(a.Tags, b.Tags)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

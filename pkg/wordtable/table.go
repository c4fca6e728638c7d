package wordtable

import (
	"strconv"
	"strings"

	"github.com/japaniel/wordbook/pkg/vocab"
)

// Control is an action a cell offers.
type Control int

const (
	ControlOpenEditor Control = iota
	ControlIncrement
	ControlDecrement
)

// Cell is one rendered table cell.
type Cell struct {
	Column Column
	Text   string
	// Badge is set on tag cells and carries the miss counter.
	Badge string
	// Refs holds the kanji a ScriptRefs cell navigates to.
	Refs []string
	// Controls is set on the edit cell.
	Controls []Control
}

// Header returns the titles of the visible columns.
func Header(v *Visibility) []string {
	cols := v.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.String()
	}
	return out
}

// Row renders rec for the visible columns.
func Row(rec vocab.Record, v *Visibility) []Cell {
	cols := v.Columns()
	cells := make([]Cell, 0, len(cols))
	for _, c := range cols {
		cell := Cell{Column: c}
		switch c {
		case ColTerm:
			cell.Text = rec.Term
		case ColPhonetic:
			cell.Text = rec.Phonetic
		case ColMeaning:
			cell.Text = rec.Meaning
		case ColNativeReading:
			cell.Text = rec.NativeReading
		case ColScriptRefs:
			cell.Refs = append([]string(nil), rec.ScriptRefs...)
			cell.Text = strings.Join(rec.ScriptRefs, " ")
		case ColTags:
			cell.Text = vocab.FormatTags(rec.Tags)
			cell.Badge = strconv.Itoa(rec.MissCount)
		case ColEdit:
			cell.Controls = []Control{ControlOpenEditor, ControlIncrement, ControlDecrement}
			cell.Text = "e + -"
		}
		cells = append(cells, cell)
	}
	return cells
}

// AdjustMiss returns a copy of rec with the miss counter moved by delta and
// floored at zero. It is the full record a counter click sends.
func AdjustMiss(rec vocab.Record, delta int) vocab.Record {
	out := rec.Clone()
	out.MissCount += delta
	if out.MissCount < 0 {
		out.MissCount = 0
	}
	return out
}

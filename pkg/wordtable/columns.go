// Package wordtable holds the state behind the word table: which columns are
// shown, what each row renders, the collection being displayed and the
// single edit session a table can have open.
package wordtable

// Column identifies one field of the table.
type Column int

const (
	ColTerm Column = iota
	ColPhonetic
	ColMeaning
	ColNativeReading
	ColScriptRefs
	ColTags
	ColEdit
)

// Order is the fixed render order of every column.
var Order = []Column{ColTerm, ColPhonetic, ColMeaning, ColNativeReading, ColScriptRefs, ColTags, ColEdit}

// Catalog is the set of columns shown on a fresh table. ColScriptRefs is
// deliberately absent: the kanji column is opt-in.
var Catalog = []Column{ColTerm, ColPhonetic, ColMeaning, ColNativeReading, ColTags, ColEdit}

var columnTitles = map[Column]string{
	ColTerm:          "Word",
	ColPhonetic:      "Reading",
	ColMeaning:       "Meaning",
	ColNativeReading: "Native",
	ColScriptRefs:    "Kanji",
	ColTags:          "Tags",
	ColEdit:          "Edit",
}

func (c Column) String() string {
	if s, ok := columnTitles[c]; ok {
		return s
	}
	return "?"
}

// Visibility is the set of displayed columns. It is pure UI state and is
// never persisted.
type Visibility struct {
	shown map[Column]bool
}

// NewVisibility returns a set with every catalog column visible.
func NewVisibility() *Visibility {
	v := &Visibility{shown: make(map[Column]bool, len(Order))}
	for _, c := range Catalog {
		v.shown[c] = true
	}
	return v
}

// Toggle flips c. Hiding every column is allowed.
func (v *Visibility) Toggle(c Column) {
	if v.shown[c] {
		delete(v.shown, c)
		return
	}
	v.shown[c] = true
}

func (v *Visibility) Visible(c Column) bool { return v.shown[c] }

// Columns returns the visible columns in render order.
func (v *Visibility) Columns() []Column {
	out := make([]Column, 0, len(v.shown))
	for _, c := range Order {
		if v.shown[c] {
			out = append(out, c)
		}
	}
	return out
}

package wordtable

import (
	"errors"
	"fmt"

	"github.com/japaniel/wordbook/pkg/vocab"
)

// State is the lifecycle state of an edit session.
type State int

const (
	Closed State = iota
	Open
	Saving
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Saving:
		return "saving"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Field names an editable record field.
type Field int

const (
	FieldTerm Field = iota
	FieldPhonetic
	FieldMeaning
	FieldNativeReading
	FieldTags
)

// Fields lists the editable fields in form order.
var Fields = []Field{FieldTerm, FieldPhonetic, FieldMeaning, FieldNativeReading, FieldTags}

func (f Field) String() string {
	switch f {
	case FieldTerm:
		return "Word"
	case FieldPhonetic:
		return "Reading"
	case FieldMeaning:
		return "Meaning"
	case FieldNativeReading:
		return "Native"
	case FieldTags:
		return "Tags"
	}
	return "?"
}

var (
	ErrSessionBusy  = errors.New("wordtable: an edit session is already open")
	ErrNotOpen      = errors.New("wordtable: no open edit session")
	ErrUnknownField = errors.New("wordtable: unknown field")
)

// EscapeKey is the key the session listens on while it is open.
const EscapeKey = "esc"

// Session is the single edit slot of a table. The buffer is a private copy
// of one record; nothing the session does touches the collection.
type Session struct {
	keys    *Keys
	state   State
	buffer  vocab.Record
	tagText string
	token   uint64
	release func()
}

// NewSession returns a closed session that registers its escape listener
// on keys while open. keys may be nil.
func NewSession(keys *Keys) *Session {
	return &Session{keys: keys}
}

func (s *Session) State() State { return s.state }

// Buffer returns a copy of the working record.
func (s *Session) Buffer() vocab.Record { return s.buffer.Clone() }

// Value returns the text the editor shows for f.
func (s *Session) Value(f Field) string {
	switch f {
	case FieldTerm:
		return s.buffer.Term
	case FieldPhonetic:
		return s.buffer.Phonetic
	case FieldMeaning:
		return s.buffer.Meaning
	case FieldNativeReading:
		return s.buffer.NativeReading
	case FieldTags:
		return s.tagText
	}
	return ""
}

// OpenFor starts editing a copy of rec.
func (s *Session) OpenFor(rec vocab.Record) error {
	if s.state != Closed {
		return ErrSessionBusy
	}
	s.buffer = rec.Clone()
	s.tagText = vocab.FormatTags(rec.Tags)
	s.state = Open
	s.token++
	if s.keys != nil {
		s.release = s.keys.Subscribe(EscapeKey, s.pressEscape)
	}
	return nil
}

// EditField replaces one buffer field. Tag text is kept verbatim and split
// without dropping empty pieces until commit.
func (s *Session) EditField(f Field, value string) error {
	if s.state != Open {
		return ErrNotOpen
	}
	switch f {
	case FieldTerm:
		s.buffer.Term = value
	case FieldPhonetic:
		s.buffer.Phonetic = value
	case FieldMeaning:
		s.buffer.Meaning = value
	case FieldNativeReading:
		s.buffer.NativeReading = value
	case FieldTags:
		s.tagText = value
		s.buffer.Tags = vocab.SplitTags(value)
	default:
		return ErrUnknownField
	}
	return nil
}

// Cancel discards the buffer.
func (s *Session) Cancel() error {
	if s.state != Open {
		return ErrNotOpen
	}
	s.close()
	return nil
}

func (s *Session) pressEscape() {
	if s.state == Open {
		s.close()
	}
}

// Commit moves the session to Saving and returns the record to send along
// with the token its result must be resolved with.
func (s *Session) Commit() (vocab.Record, uint64, error) {
	if s.state != Open {
		return vocab.Record{}, 0, ErrNotOpen
	}
	s.buffer.Tags = vocab.ParseTags(s.tagText)
	s.state = Saving
	s.token++
	return s.buffer.Clone(), s.token, nil
}

// Resolve applies the outcome of the save started with token. It reports
// whether the hosting collection must be refreshed. Results for a token the
// session no longer waits on are ignored.
func (s *Session) Resolve(token uint64, err error) (refresh bool) {
	if s.state != Saving || token != s.token {
		return false
	}
	if err != nil {
		s.state = Open
		return false
	}
	s.close()
	return true
}

// Close tears the session down from any state. Outstanding results are
// dropped afterwards.
func (s *Session) Close() {
	if s.state == Closed {
		return
	}
	s.close()
}

func (s *Session) close() {
	s.state = Closed
	s.buffer = vocab.Record{}
	s.tagText = ""
	s.token++
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

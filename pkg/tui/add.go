package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/japaniel/wordbook/pkg/vocab"
	"github.com/japaniel/wordbook/pkg/wordtable"
)

// addFields is the form order: the meaning is usually known first.
var addFields = []wordtable.Field{
	wordtable.FieldMeaning,
	wordtable.FieldNativeReading,
	wordtable.FieldTerm,
	wordtable.FieldPhonetic,
	wordtable.FieldTags,
}

// addPage is the new-word form. While a field has focus it holds the
// escape key; escape blurs, a second escape leaves the page.
type addPage struct {
	*deps
	pid     int
	inputs  []textinput.Model
	focus   int
	release func()
	saving  bool
	msg     string
}

func newAddPage(d *deps, id int) *addPage {
	p := &addPage{deps: d, pid: id, focus: -1, inputs: make([]textinput.Model, len(addFields))}
	for i, f := range addFields {
		p.inputs[i] = newInput(f.String())
	}
	return p
}

func (p *addPage) id() int { return p.pid }
func (p *addPage) title() string { return "Add word" }
func (p *addPage) resume() tea.Cmd { return nil }
func (p *addPage) capturing() bool { return p.focus >= 0 }
func (p *addPage) status() string { return p.msg }
func (p *addPage) close() { p.blur() }

func (p *addPage) init() tea.Cmd {
	p.focusField(0)
	return nil
}

func (p *addPage) help() string {
	if p.capturing() {
		return "tab/enter next field  ctrl+s save  esc leave form"
	}
	return "i or enter edit form"
}

func (p *addPage) focusField(i int) {
	for j := range p.inputs {
		p.inputs[j].Blur()
	}
	p.focus = i
	p.inputs[i].Focus()
	if p.release == nil {
		p.release = p.keys.Subscribe(wordtable.EscapeKey, p.blur)
	}
}

func (p *addPage) blur() {
	for j := range p.inputs {
		p.inputs[j].Blur()
	}
	p.focus = -1
	if p.release != nil {
		p.release()
		p.release = nil
	}
}

func (p *addPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case createMsg:
		p.saving = false
		if msg.err != nil {
			p.logger.Printf("add %s: %v", msg.term, msg.err)
			p.msg = "error: " + msg.err.Error()
			return nil
		}
		p.msg = "added " + msg.term
		for i := range p.inputs {
			p.inputs[i].Reset()
		}
		if p.capturing() {
			p.focusField(0)
		}
	case tea.KeyMsg:
		if !p.capturing() {
			switch msg.String() {
			case "i", "enter", "tab":
				p.focusField(0)
			}
			return nil
		}
		if p.saving {
			return nil
		}
		n := len(p.inputs)
		switch msg.String() {
		case "tab", "down":
			p.focusField((p.focus + 1) % n)
			return nil
		case "shift+tab", "up":
			p.focusField((p.focus + n - 1) % n)
			return nil
		case "ctrl+s":
			return p.submit()
		case "enter":
			if p.focus == n-1 {
				return p.submit()
			}
			p.focusField(p.focus + 1)
			return nil
		}
		var cmd tea.Cmd
		p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
		return cmd
	}
	return nil
}

func (p *addPage) record() vocab.Record {
	var rec vocab.Record
	for i, f := range addFields {
		v := strings.TrimSpace(p.inputs[i].Value())
		switch f {
		case wordtable.FieldTerm:
			rec.Term = v
		case wordtable.FieldPhonetic:
			rec.Phonetic = v
		case wordtable.FieldMeaning:
			rec.Meaning = v
		case wordtable.FieldNativeReading:
			rec.NativeReading = v
		case wordtable.FieldTags:
			rec.Tags = vocab.ParseTags(v)
		}
	}
	rec.ScriptRefs = vocab.ExtractKanji(rec.Term)
	return rec
}

func (p *addPage) submit() tea.Cmd {
	rec := p.record()
	if rec.Term == "" {
		p.msg = "error: word is required"
		return nil
	}
	p.saving = true
	p.msg = "adding " + rec.Term + "..."
	id, d := p.pid, p.deps
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		return createMsg{page: id, term: rec.Term, err: d.store.Create(ctx, rec)}
	}
}

func (p *addPage) view(width, height int) string {
	var b strings.Builder
	for i, f := range addFields {
		p.inputs[i].Width = max(width-14, 10)
		b.WriteString(" " + labelStyle.Render(f.String()) + p.inputs[i].View() + "\n")
	}
	return b.String()
}

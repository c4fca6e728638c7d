package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/japaniel/wordbook/pkg/vocab"
	"github.com/japaniel/wordbook/pkg/wordtable"
)

type listKind int

const (
	listAll listKind = iota
	listScript
	listTag
)

var toggleKeys = map[string]wordtable.Column{
	"W": wordtable.ColTerm,
	"R": wordtable.ColPhonetic,
	"M": wordtable.ColMeaning,
	"N": wordtable.ColNativeReading,
	"K": wordtable.ColScriptRefs,
	"T": wordtable.ColTags,
	"E": wordtable.ColEdit,
}

// wordsPage is a word table over one collection: every word, the words
// of one kanji, or the words of one category.
type wordsPage struct {
	*deps
	pid     int
	kind    listKind
	arg     string
	coll    wordtable.Collection
	vis     *wordtable.Visibility
	session *wordtable.Session
	inputs  []textinput.Model
	focus   int
	cursor  int
	ref     int
	msg     string
}

func newWordsPage(d *deps, id int, kind listKind, arg string) *wordsPage {
	p := &wordsPage{
		deps:    d,
		pid:     id,
		kind:    kind,
		arg:     arg,
		vis:     wordtable.NewVisibility(),
		session: wordtable.NewSession(d.keys),
		inputs:  make([]textinput.Model, len(wordtable.Fields)),
	}
	for i, f := range wordtable.Fields {
		p.inputs[i] = newInput(f.String())
	}
	return p
}

func (p *wordsPage) id() int { return p.pid }

func (p *wordsPage) title() string {
	switch p.kind {
	case listScript:
		return "Kanji " + p.arg
	case listTag:
		return "Category " + p.arg
	}
	return "All words"
}

func (p *wordsPage) init() tea.Cmd { return p.load() }
func (p *wordsPage) resume() tea.Cmd { return p.load() }
func (p *wordsPage) close() { p.session.Close() }
func (p *wordsPage) status() string { return p.msg }

func (p *wordsPage) capturing() bool {
	return p.session.State() != wordtable.Closed
}

func (p *wordsPage) help() string {
	if p.capturing() {
		return "tab next field  enter save  esc cancel"
	}
	return "j/k move  h/l kanji  enter open kanji  e edit  +/- miss  W R M N K T E columns  r refresh"
}

// load re-fetches the whole collection.
func (p *wordsPage) load() tea.Cmd {
	tok := p.coll.BeginRefresh()
	id, kind, arg := p.pid, p.kind, p.arg
	d := p.deps
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		var (
			recs []vocab.Record
			err  error
		)
		switch kind {
		case listScript:
			recs, err = d.store.ListByScript(ctx, arg)
		case listTag:
			recs, err = d.store.ListByTag(ctx, arg)
		default:
			recs, err = d.store.ListAll(ctx)
		}
		return recordsMsg{page: id, token: tok, recs: recs, err: err}
	}
}

func (p *wordsPage) fail(action string, err error) {
	p.logger.Printf("%s: %v", action, err)
	p.msg = "error: " + err.Error()
}

func (p *wordsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case recordsMsg:
		if !p.coll.Apply(msg.token, msg.recs, msg.err) {
			return nil
		}
		if msg.err != nil {
			p.fail("load "+p.title(), msg.err)
			return nil
		}
		p.clamp()
	case replaceMsg:
		if msg.commit {
			refresh := p.session.Resolve(msg.token, msg.err)
			if msg.err != nil {
				p.fail("save "+msg.term, msg.err)
				return nil
			}
			if !refresh {
				return nil
			}
			p.blur()
			p.msg = "saved " + msg.term
			return p.load()
		}
		// Counter results refresh on success only; a failed click leaves
		// the row showing the old count.
		if msg.err != nil {
			p.fail("update "+msg.term, msg.err)
			return nil
		}
		return p.load()
	case tea.KeyMsg:
		if p.session.State() != wordtable.Closed {
			return p.updateEditor(msg)
		}
		return p.updateTable(msg)
	}
	return nil
}

func (p *wordsPage) updateTable(msg tea.KeyMsg) tea.Cmd {
	p.msg = ""
	key := msg.String()
	switch key {
	case "j", "down":
		p.move(1)
	case "k", "up":
		p.move(-1)
	case "g", "home":
		p.move(-p.cursor)
	case "G", "end":
		p.move(p.coll.Len())
	case "h", "left":
		if p.ref > 0 {
			p.ref--
		}
	case "l", "right":
		if rec, ok := p.coll.At(p.cursor); ok && p.ref < len(rec.ScriptRefs)-1 {
			p.ref++
		}
	case "r":
		return p.load()
	case "enter":
		return p.openRef()
	case "e", "+", "-":
		if !p.vis.Visible(wordtable.ColEdit) {
			return nil
		}
		rec, ok := p.coll.At(p.cursor)
		if !ok {
			return nil
		}
		switch key {
		case "e":
			p.openEditor(rec)
		case "+":
			return p.adjust(rec, 1)
		case "-":
			return p.adjust(rec, -1)
		}
	default:
		if col, ok := toggleKeys[key]; ok {
			p.vis.Toggle(col)
		}
	}
	return nil
}

func (p *wordsPage) move(delta int) {
	p.cursor += delta
	p.ref = 0
	p.clamp()
}

func (p *wordsPage) clamp() {
	p.cursor = max(min(p.cursor, p.coll.Len()-1), 0)
	rec, _ := p.coll.At(p.cursor)
	p.ref = max(min(p.ref, len(rec.ScriptRefs)-1), 0)
}

// openRef follows the selected kanji of the current row.
func (p *wordsPage) openRef() tea.Cmd {
	if !p.vis.Visible(wordtable.ColScriptRefs) {
		return nil
	}
	rec, ok := p.coll.At(p.cursor)
	if !ok || p.ref >= len(rec.ScriptRefs) {
		return nil
	}
	char := rec.ScriptRefs[p.ref]
	if char == vocab.NoKanji {
		return nil
	}
	return navigate(dest{kind: destScript, arg: char})
}

func (p *wordsPage) adjust(rec vocab.Record, delta int) tea.Cmd {
	next := wordtable.AdjustMiss(rec, delta)
	id := p.pid
	d := p.deps
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		return replaceMsg{page: id, term: next.Term, err: d.store.Replace(ctx, next)}
	}
}

func (p *wordsPage) openEditor(rec vocab.Record) {
	if err := p.session.OpenFor(rec); err != nil {
		p.fail("edit "+rec.Term, err)
		return
	}
	for i, f := range wordtable.Fields {
		p.inputs[i].SetValue(p.session.Value(f))
		p.inputs[i].CursorEnd()
	}
	p.setFocus(0)
}

func (p *wordsPage) setFocus(i int) {
	p.blur()
	p.focus = i
	p.inputs[i].Focus()
}

func (p *wordsPage) blur() {
	for i := range p.inputs {
		p.inputs[i].Blur()
	}
}

func (p *wordsPage) updateEditor(msg tea.KeyMsg) tea.Cmd {
	if p.session.State() != wordtable.Open {
		return nil
	}
	n := len(p.inputs)
	switch msg.String() {
	case "tab", "down":
		p.setFocus((p.focus + 1) % n)
		return nil
	case "shift+tab", "up":
		p.setFocus((p.focus + n - 1) % n)
		return nil
	case "enter", "ctrl+s":
		return p.commit()
	}
	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	if err := p.session.EditField(wordtable.Fields[p.focus], p.inputs[p.focus].Value()); err != nil {
		p.fail("edit", err)
	}
	return cmd
}

func (p *wordsPage) commit() tea.Cmd {
	rec, tok, err := p.session.Commit()
	if err != nil {
		p.fail("save", err)
		return nil
	}
	p.msg = "saving " + rec.Term + "..."
	id := p.pid
	d := p.deps
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		return replaceMsg{page: id, commit: true, token: tok, term: rec.Term, err: d.store.Replace(ctx, rec)}
	}
}

func (p *wordsPage) view(width, height int) string {
	var b strings.Builder
	switch {
	case !p.coll.Loaded() && p.coll.Loading():
		b.WriteString(dimStyle.Render(" loading...") + "\n")
		return b.String()
	case p.coll.Loaded() && p.coll.Len() == 0:
		b.WriteString(dimStyle.Render(" no words") + "\n")
		return b.String()
	}

	rows := make([][]string, p.coll.Len())
	for i, rec := range p.coll.Records() {
		cells := wordtable.Row(rec, p.vis)
		row := make([]string, len(cells))
		for j, c := range cells {
			row[j] = p.cellText(c, i == p.cursor)
		}
		rows[i] = row
	}

	editorLines := 0
	if p.capturing() {
		editorLines = len(p.inputs) + 2
	}
	b.WriteString(renderTable(wordtable.Header(p.vis), rows, p.cursor, height-editorLines-3))

	if rec, ok := p.coll.At(p.cursor); ok {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" added %s  updated %s",
			orDash(vocab.FormatTimestamp(rec.CreatedAt, p.loc)),
			orDash(vocab.FormatTimestamp(rec.UpdatedAt, p.loc)))))
		b.WriteString("\n")
	}
	if p.capturing() {
		b.WriteString(p.editorView(width))
	}
	return b.String()
}

func (p *wordsPage) cellText(c wordtable.Cell, selected bool) string {
	switch {
	case c.Badge != "":
		return strings.TrimSpace(c.Text + " [" + c.Badge + "]")
	case c.Refs != nil && selected && p.ref < len(c.Refs):
		refs := append([]string(nil), c.Refs...)
		refs[p.ref] = "<" + refs[p.ref] + ">"
		return strings.Join(refs, " ")
	}
	return c.Text
}

func (p *wordsPage) editorView(width int) string {
	var b strings.Builder
	head := " edit"
	if p.session.State() == wordtable.Saving {
		head = " saving..."
	}
	b.WriteString(titleStyle.Render(head) + "\n")
	for i, f := range wordtable.Fields {
		p.inputs[i].Width = max(width-14, 10)
		b.WriteString(" " + labelStyle.Render(f.String()) + p.inputs[i].View() + "\n")
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package tui

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/wordbook/pkg/vocab"
	"github.com/japaniel/wordbook/pkg/wordtable"
)

type fakeStore struct {
	mu         sync.Mutex
	recs       []vocab.Record
	scripts    []string
	tags       []string
	replaced   []vocab.Record
	created    []vocab.Record
	lists      int
	replaceErr error
}

func (f *fakeStore) snapshot() []vocab.Record {
	out := make([]vocab.Record, len(f.recs))
	for i, r := range f.recs {
		out[i] = r.Clone()
	}
	return out
}

func (f *fakeStore) ListAll(ctx context.Context) ([]vocab.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.snapshot(), nil
}

func (f *fakeStore) ListByScript(ctx context.Context, char string) ([]vocab.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []vocab.Record
	for _, r := range f.snapshot() {
		if slices.Contains(vocab.ExtractKanji(r.Term), char) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByTag(ctx context.Context, tag string) ([]vocab.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []vocab.Record
	for _, r := range f.snapshot() {
		if slices.Contains(r.Tags, tag) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTags(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.tags), nil
}

func (f *fakeStore) ListScripts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.scripts), nil
}

func (f *fakeStore) Create(ctx context.Context, rec vocab.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec.Clone())
	rec.ID = int64(len(f.recs) + 1)
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeStore) Replace(ctx context.Context, rec vocab.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, rec.Clone())
	if f.replaceErr != nil {
		return f.replaceErr
	}
	for i := range f.recs {
		if f.recs[i].ID == rec.ID {
			f.recs[i] = rec.Clone()
		}
	}
	return nil
}

func (f *fakeStore) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func (f *fakeStore) replacedMisses() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.replaced))
	for i, r := range f.replaced {
		out[i] = r.MissCount
	}
	return out
}

func newFake() *fakeStore {
	return &fakeStore{
		recs: []vocab.Record{
			{ID: 1, Term: "水", Phonetic: "みず", Meaning: "물", NativeReading: "미즈", Tags: []string{"자연"}, MissCount: 2},
			{ID: 2, Term: "火山", Phonetic: "かざん", Meaning: "화산", NativeReading: "카잔", Tags: []string{"자연", "북마크"}},
		},
		scripts: []string{"水", "火", "山"},
		tags:    []string{"북마크", "자연"},
	}
}

// exec runs cmd and returns the app messages it produced. Framework
// messages (quit, cursor ticks) are dropped.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, exec(c)...)
		}
		return out
	case routed:
		return []tea.Msg{msg}
	}
	return nil
}

func run(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	queue := exec(cmd)
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 100, "message loop did not settle")
		msg := queue[0]
		queue = queue[1:]
		_, next := a.Update(msg)
		queue = append(queue, exec(next)...)
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, a *App, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_, cmd := a.Update(keyMsg(k))
		run(t, a, cmd)
	}
}

func start(t *testing.T, st Store, opts Options) *App {
	t.Helper()
	a := New(st, opts)
	run(t, a, a.Init())
	return a
}

func wordsTop(t *testing.T, a *App) *wordsPage {
	t.Helper()
	p, ok := a.top().(*wordsPage)
	require.True(t, ok, "top page is %T", a.top())
	return p
}

func TestDecrementClampsAtZero(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})
	require.Equal(t, 2, wordsTop(t, a).coll.Len())

	press(t, a, "-", "-", "-")

	assert.Equal(t, []int{1, 0, 0}, st.replacedMisses())
	assert.Equal(t, 4, st.listCount(), "one initial load plus one refresh per click")
	rec, _ := wordsTop(t, a).coll.At(0)
	assert.Equal(t, 0, rec.MissCount)
}

func TestIncrementSendsWholeRecord(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})
	press(t, a, "+")

	require.Len(t, st.replaced, 1)
	got := st.replaced[0]
	assert.Equal(t, 3, got.MissCount)
	assert.Equal(t, "물", got.Meaning)
	assert.Equal(t, []string{"자연"}, got.Tags)
}

func TestCounterFailureDoesNotRefresh(t *testing.T) {
	st := newFake()
	st.replaceErr = errors.New("store down")
	a := start(t, st, Options{})

	press(t, a, "-")

	assert.Equal(t, 1, st.listCount())
	rec, _ := wordsTop(t, a).coll.At(0)
	assert.Equal(t, 2, rec.MissCount)
	assert.True(t, strings.HasPrefix(wordsTop(t, a).status(), "error"))
}

func TestCounterKeysNeedEditColumn(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})
	press(t, a, "E", "-", "e")

	assert.Empty(t, st.replaced)
	assert.Equal(t, wordtable.Closed, wordsTop(t, a).session.State())
}

func TestEscapeBeforeCommitSendsNothing(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})

	press(t, a, "e", "tab", "tab", "zzz")
	p := wordsTop(t, a)
	require.Equal(t, wordtable.Open, p.session.State())
	assert.Equal(t, "물zzz", p.session.Value(wordtable.FieldMeaning))

	press(t, a, "esc")
	assert.Equal(t, wordtable.Closed, p.session.State())
	assert.Empty(t, st.replaced)
	assert.Equal(t, 1, st.listCount())
	rec, _ := p.coll.At(0)
	assert.Equal(t, "물", rec.Meaning)
	assert.Len(t, a.stack, 1, "escape closed the editor, not the page")
}

func TestCommitSuccessRefetchesOnce(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})

	press(t, a, "e", "tab", "tab", "!", "tab", "tab", ", 일상", "enter")

	require.Len(t, st.replaced, 1)
	sent := st.replaced[0]
	assert.Equal(t, int64(1), sent.ID)
	assert.Equal(t, "물!", sent.Meaning)
	assert.Equal(t, []string{"자연", "일상"}, sent.Tags)
	assert.Equal(t, 2, sent.MissCount)
	assert.Equal(t, 2, st.listCount())

	p := wordsTop(t, a)
	assert.Equal(t, wordtable.Closed, p.session.State())
	rec, _ := p.coll.At(0)
	assert.Equal(t, "물!", rec.Meaning)
}

func TestCommitFailureKeepsEditorOpen(t *testing.T) {
	st := newFake()
	st.replaceErr = errors.New("conflict")
	a := start(t, st, Options{})

	press(t, a, "e", "tab", "tab", "?", "enter")

	p := wordsTop(t, a)
	assert.Equal(t, wordtable.Open, p.session.State())
	assert.Equal(t, "물?", p.session.Value(wordtable.FieldMeaning))
	assert.Equal(t, 1, st.listCount())
	assert.Contains(t, p.status(), "conflict")

	st.mu.Lock()
	st.replaceErr = nil
	st.mu.Unlock()
	press(t, a, "enter")
	assert.Equal(t, wordtable.Closed, p.session.State())
	assert.Equal(t, 2, st.listCount())
}

func TestToggleMeaningKeepsData(t *testing.T) {
	a := start(t, newFake(), Options{})

	press(t, a, "M")
	view := a.View()
	assert.NotContains(t, view, "Meaning")
	assert.NotContains(t, view, "화산")

	press(t, a, "M")
	view = a.View()
	assert.Contains(t, view, "Meaning")
	assert.Contains(t, view, "화산")
}

func TestGlobalKeysOffWhileEditing(t *testing.T) {
	a := start(t, newFake(), Options{})

	press(t, a, "e", "8")
	assert.Len(t, a.stack, 1)
	assert.Equal(t, "水8", wordsTop(t, a).session.Value(wordtable.FieldTerm))

	press(t, a, "esc", "8")
	require.Len(t, a.stack, 2)
	assert.Equal(t, "Categories", a.top().title())
}

func TestKanjiRefOpensKanjiPage(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})

	press(t, a, "enter")
	assert.Len(t, a.stack, 1, "kanji column is hidden by default")

	press(t, a, "K", "j", "l", "enter")
	require.Len(t, a.stack, 2)
	p := wordsTop(t, a)
	assert.Equal(t, "Kanji 山", p.title())
	require.Equal(t, 1, p.coll.Len())

	press(t, a, "esc")
	assert.Len(t, a.stack, 1)
}

func TestResultsForClosedPageAreDropped(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})

	_, cmd := a.Update(keyMsg("9"))
	require.Len(t, a.stack, 2)
	pending := exec(cmd)
	require.Len(t, pending, 1)

	press(t, a, "esc")
	require.Len(t, a.stack, 1)
	_, next := a.Update(pending[0])
	assert.Nil(t, next)
	assert.Len(t, a.stack, 1)
}

func TestStaleRefreshIsIgnored(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})
	p := wordsTop(t, a)

	old := exec(p.load())
	st.mu.Lock()
	st.recs[0].Meaning = "새 물"
	st.mu.Unlock()
	run(t, a, p.load())

	for _, m := range old {
		a.Update(m)
	}
	rec, _ := p.coll.At(0)
	assert.Equal(t, "새 물", rec.Meaning)
}

func TestRandomKanjiAndBookmark(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{Rand: func(n int) int { return n - 1 }, BookmarkTag: "북마크"})

	press(t, a, "7")
	assert.Equal(t, "Kanji 山", a.top().title())

	press(t, a, "1")
	require.Len(t, a.stack, 1)

	press(t, a, "9")
	p := wordsTop(t, a)
	assert.Equal(t, "Category 북마크", p.title())
	assert.Equal(t, 1, p.coll.Len())
}

func TestCategoriesPageOpensCategory(t *testing.T) {
	a := start(t, newFake(), Options{})
	press(t, a, "8", "j", "enter")

	p := wordsTop(t, a)
	assert.Equal(t, "Category 자연", p.title())
	assert.Equal(t, 2, p.coll.Len())
	assert.Len(t, a.stack, 3)
}

func TestAddWordForm(t *testing.T) {
	st := newFake()
	a := start(t, st, Options{})

	press(t, a, "0")
	require.Equal(t, "Add word", a.top().title())
	press(t, a, "1")
	assert.Len(t, a.stack, 2, "digits go to the focused field")

	press(t, a, "ctrl+s")
	assert.Empty(t, st.created)

	press(t, a, "enter", "enter", "先生", "tab", "せんせい", "tab", "직업, ", "ctrl+s")
	require.Len(t, st.created, 1)
	got := st.created[0]
	assert.Equal(t, "先生", got.Term)
	assert.Equal(t, "せんせい", got.Phonetic)
	assert.Equal(t, "1", got.Meaning)
	assert.Equal(t, []string{"先", "生"}, got.ScriptRefs)
	assert.Equal(t, []string{"직업"}, got.Tags)

	press(t, a, "esc", "esc")
	assert.Len(t, a.stack, 1)
}

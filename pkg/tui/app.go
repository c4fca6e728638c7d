// Package tui is the terminal client: a stack of pages over the word
// store, driven by a single bubbletea event loop. Store calls run as
// commands and come back as messages tagged with the page that asked.
package tui

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/japaniel/wordbook/pkg/vocab"
	"github.com/japaniel/wordbook/pkg/wordtable"
)

// Store is the part of the store client the UI uses.
type Store interface {
	ListAll(ctx context.Context) ([]vocab.Record, error)
	ListByScript(ctx context.Context, char string) ([]vocab.Record, error)
	ListByTag(ctx context.Context, tag string) ([]vocab.Record, error)
	ListTags(ctx context.Context) ([]string, error)
	ListScripts(ctx context.Context) ([]string, error)
	Create(ctx context.Context, rec vocab.Record) error
	Replace(ctx context.Context, rec vocab.Record) error
}

// Options configures an App. Zero values get defaults.
type Options struct {
	BookmarkTag string
	Timeout     time.Duration
	Location    *time.Location
	Logger      *log.Logger
	// Rand picks an index in [0, n) for the random kanji page.
	Rand func(n int) int
}

type page interface {
	id() int
	title() string
	init() tea.Cmd
	// resume runs when the page becomes the top again.
	resume() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view(width, height int) string
	// capturing reports whether a text field has focus. Global keys are
	// off while it does.
	capturing() bool
	status() string
	help() string
	close()
}

// deps is shared by every page of one app.
type deps struct {
	store   Store
	keys    *wordtable.Keys
	logger  *log.Logger
	timeout time.Duration
	loc     *time.Location
}

func (d *deps) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d.timeout)
}

// App is the root bubbletea model.
type App struct {
	deps     *deps
	bookmark string
	rand     func(n int) int
	stack    []page
	nextID   int
	width    int
	height   int
	msg      string
}

// New returns an app rooted at the all-words page.
func New(st Store, opts Options) *App {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Location == nil {
		opts.Location = vocab.LoadZone(vocab.DefaultZone)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Rand == nil {
		opts.Rand = rand.IntN
	}
	if opts.BookmarkTag == "" {
		opts.BookmarkTag = "북마크"
	}
	a := &App{
		deps: &deps{
			store:   st,
			keys:    wordtable.NewKeys(),
			logger:  opts.Logger,
			timeout: opts.Timeout,
			loc:     opts.Location,
		},
		bookmark: opts.BookmarkTag,
		rand:     opts.Rand,
	}
	a.stack = []page{a.open(dest{kind: destAll})}
	return a
}

func (a *App) Init() tea.Cmd {
	return a.top().init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil
	case tea.KeyMsg:
		return a, a.handleKey(msg)
	case navMsg:
		return a, a.push(msg.to)
	case randomMsg:
		return a, a.pickRandom(msg)
	case routed:
		if p := a.find(msg.target()); p != nil {
			return a, p.update(msg)
		}
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	a.msg = ""
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}
	if key == wordtable.EscapeKey {
		if a.deps.keys.Dispatch(wordtable.EscapeKey) {
			return nil
		}
		return a.pop()
	}
	top := a.top()
	if top.capturing() {
		return top.update(msg)
	}
	switch key {
	case "q":
		return tea.Quit
	case "1":
		return a.reset()
	case "0":
		return a.push(dest{kind: destAdd})
	case "7":
		return a.fetchRandom()
	case "8":
		return a.push(dest{kind: destTags})
	case "9":
		return a.push(dest{kind: destTag, arg: a.bookmark})
	}
	return top.update(msg)
}

func (a *App) open(to dest) page {
	a.nextID++
	id := a.nextID
	switch to.kind {
	case destScript:
		return newWordsPage(a.deps, id, listScript, to.arg)
	case destTag:
		return newWordsPage(a.deps, id, listTag, to.arg)
	case destTags:
		return newTagsPage(a.deps, id)
	case destAdd:
		return newAddPage(a.deps, id)
	}
	return newWordsPage(a.deps, id, listAll, "")
}

func (a *App) push(to dest) tea.Cmd {
	p := a.open(to)
	a.stack = append(a.stack, p)
	return p.init()
}

// pop closes the top page. The root page is never popped.
func (a *App) pop() tea.Cmd {
	if len(a.stack) < 2 {
		return nil
	}
	a.top().close()
	a.stack = a.stack[:len(a.stack)-1]
	return a.top().resume()
}

func (a *App) reset() tea.Cmd {
	for len(a.stack) > 1 {
		a.top().close()
		a.stack = a.stack[:len(a.stack)-1]
	}
	return a.top().resume()
}

func (a *App) top() page { return a.stack[len(a.stack)-1] }

func (a *App) find(id int) page {
	for _, p := range a.stack {
		if p.id() == id {
			return p
		}
	}
	return nil
}

func (a *App) fetchRandom() tea.Cmd {
	d := a.deps
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		scripts, err := d.store.ListScripts(ctx)
		return randomMsg{scripts: scripts, err: err}
	}
}

func (a *App) pickRandom(msg randomMsg) tea.Cmd {
	if msg.err != nil {
		a.deps.logger.Printf("list kanji: %v", msg.err)
		a.msg = "error: " + msg.err.Error()
		return nil
	}
	var scripts []string
	for _, s := range msg.scripts {
		if s != "" && s != vocab.NoKanji {
			scripts = append(scripts, s)
		}
	}
	if len(scripts) == 0 {
		a.msg = "no kanji yet"
		return nil
	}
	return a.push(dest{kind: destScript, arg: scripts[a.rand(len(scripts))]})
}

func (a *App) View() string {
	width, height := a.width, a.height
	if width == 0 {
		width, height = 100, 30
	}

	titles := make([]string, len(a.stack))
	for i, p := range a.stack {
		titles[i] = p.title()
	}
	top := a.top()

	var b strings.Builder
	b.WriteString(titleStyle.Render(" wordbook › " + strings.Join(titles, " › ")))
	b.WriteString("\n")
	b.WriteString(top.view(width, height-4))

	status := a.msg
	if status == "" {
		status = top.status()
	}
	switch {
	case strings.HasPrefix(status, "error"):
		b.WriteString(errorStyle.Render(" " + status))
	case status != "":
		b.WriteString(statusStyle.Render(" " + status))
	}
	b.WriteString("\n")

	help := " " + top.help()
	if !top.capturing() {
		help += "  1 all  0 add  7 random  8 categories  9 bookmark  esc back  q quit"
	}
	b.WriteString(dimStyle.Render(help))
	return b.String()
}

package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/japaniel/wordbook/pkg/vocab"
)

// routed is implemented by every message the app produces. Messages aimed
// at a page carry its id; the app drops them once the page is gone.
type routed interface {
	target() int
}

// appTarget marks messages handled by the app itself.
const appTarget = 0

type recordsMsg struct {
	page  int
	token uint64
	recs  []vocab.Record
	err   error
}

type replaceMsg struct {
	page   int
	commit bool
	token  uint64
	term   string
	err    error
}

type namesMsg struct {
	page  int
	token uint64
	names []string
	err   error
}

type createMsg struct {
	page int
	term string
	err  error
}

type navMsg struct {
	to dest
}

type randomMsg struct {
	scripts []string
	err     error
}

func (m recordsMsg) target() int { return m.page }
func (m replaceMsg) target() int { return m.page }
func (m namesMsg) target() int   { return m.page }
func (m createMsg) target() int  { return m.page }
func (navMsg) target() int       { return appTarget }
func (randomMsg) target() int    { return appTarget }

type destKind int

const (
	destAll destKind = iota
	destScript
	destTag
	destTags
	destAdd
)

// dest names a page to open.
type dest struct {
	kind destKind
	arg  string
}

func navigate(to dest) tea.Cmd {
	return func() tea.Msg { return navMsg{to: to} }
}

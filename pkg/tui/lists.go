package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// tagsPage lists every category; enter opens one.
type tagsPage struct {
	*deps
	pid     int
	token   uint64
	loading bool
	names   []string
	cursor  int
	msg     string
}

func newTagsPage(d *deps, id int) *tagsPage {
	return &tagsPage{deps: d, pid: id}
}

func (p *tagsPage) id() int { return p.pid }
func (p *tagsPage) title() string { return "Categories" }
func (p *tagsPage) init() tea.Cmd { return p.load() }
func (p *tagsPage) resume() tea.Cmd { return p.load() }
func (p *tagsPage) capturing() bool { return false }
func (p *tagsPage) status() string { return p.msg }
func (p *tagsPage) help() string { return "j/k move  enter open  r refresh" }
func (p *tagsPage) close() {}

func (p *tagsPage) load() tea.Cmd {
	p.token++
	p.loading = true
	tok, id, d := p.token, p.pid, p.deps
	return func() tea.Msg {
		ctx, cancel := d.ctx()
		defer cancel()
		names, err := d.store.ListTags(ctx)
		return namesMsg{page: id, token: tok, names: names, err: err}
	}
}

func (p *tagsPage) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case namesMsg:
		if msg.token != p.token {
			return nil
		}
		p.loading = false
		if msg.err != nil {
			p.logger.Printf("list categories: %v", msg.err)
			p.msg = "error: " + msg.err.Error()
			return nil
		}
		p.names = msg.names
		p.cursor = max(min(p.cursor, len(p.names)-1), 0)
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			p.cursor = min(p.cursor+1, max(len(p.names)-1, 0))
		case "k", "up":
			p.cursor = max(p.cursor-1, 0)
		case "r":
			return p.load()
		case "enter":
			if p.cursor < len(p.names) {
				return navigate(dest{kind: destTag, arg: p.names[p.cursor]})
			}
		}
	}
	return nil
}

func (p *tagsPage) view(width, height int) string {
	switch {
	case p.loading && p.names == nil:
		return dimStyle.Render(" loading...") + "\n"
	case len(p.names) == 0:
		return dimStyle.Render(" no categories") + "\n"
	}
	return renderList(p.names, p.cursor, height-1)
}

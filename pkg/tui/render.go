package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle  = lipgloss.NewStyle().Width(10).Foreground(lipgloss.Color("11"))
)

const (
	maxCellWidth = 24
	minCellWidth = 4
)

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// fit truncates or pads s to exactly w terminal cells. Kanji and hangul are
// two cells wide, so byte or rune counts cannot be used here.
func fit(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = max(runewidth.StringWidth(h), minCellWidth)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}
	return widths
}

// renderTable draws header and rows, keeping selected inside a window of
// at most maxRows data rows.
func renderTable(header []string, rows [][]string, selected, maxRows int) string {
	if len(header) == 0 {
		return dimStyle.Render(" (every column hidden)") + "\n"
	}
	widths := columnWidths(header, rows)

	var b strings.Builder
	for i, h := range header {
		b.WriteString(headerStyle.Render(" " + fit(h, widths[i]) + " "))
		if i < len(header)-1 {
			b.WriteString(dimStyle.Render("│"))
		}
	}
	b.WriteString("\n")

	maxRows = max(maxRows, 1)
	start := 0
	if selected >= maxRows {
		start = selected - maxRows + 1
	}
	end := min(start+maxRows, len(rows))
	for r := start; r < end; r++ {
		var line strings.Builder
		for i, cell := range rows[r] {
			line.WriteString(" " + fit(cell, widths[i]) + " ")
			if i < len(rows[r])-1 {
				line.WriteString("│")
			}
		}
		if r == selected {
			b.WriteString(cursorStyle.Render(line.String()))
		} else {
			b.WriteString(line.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderList(items []string, selected, maxRows int) string {
	var b strings.Builder
	maxRows = max(maxRows, 1)
	start := 0
	if selected >= maxRows {
		start = selected - maxRows + 1
	}
	for i := start; i < len(items) && i < start+maxRows; i++ {
		if i == selected {
			b.WriteString(cursorStyle.Render("> " + items[i]))
		} else {
			b.WriteString("  " + items[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}

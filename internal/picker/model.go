package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/glimpse/internal/native"
)

// Column widths for the window list. The title column fills remaining
// space; handle and geometry are fixed so rows align.
const (
	columnWidthHandle   = 12 // "0x3a00007" plus padding
	columnWidthGeometry = 11 // "1920x1080" plus padding
	markerWidth         = 3  // " ● " or three spaces
)

// Entry is one selectable window row.
type Entry struct {
	Handle  native.WindowHandle
	Title   string
	Rect    native.Rect
	Focused bool
}

// KeyMap defines the key bindings for the window picker.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Select   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap is the built-in key binding set. Vim-style navigation
// (j/k) alongside standard arrow keys and page up/down.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Theme defines the picker's color palette. All colors use lipgloss
// ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// FocusMarker colors the dot in front of the currently focused window.
	FocusMarker lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("245"),
	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("255"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("241"),
	FocusMarker:        lipgloss.Color("114"),
}

// Model is the bubbletea model for the window picker.
type Model struct {
	entries []Entry
	theme   Theme
	keys    KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	cursor       int
	scrollOffset int

	choice *Entry
}

// NewModel creates a picker over the given windows. The cursor starts
// on the focused window when there is one.
func NewModel(entries []Entry) Model {
	model := Model{
		entries: entries,
		theme:   DefaultTheme,
		keys:    DefaultKeyMap,
	}
	for index, entry := range entries {
		if entry.Focused {
			model.cursor = index
			break
		}
	}
	return model
}

// Choice returns the selected entry, or nil when the picker was quit
// without a selection.
func (model Model) Choice() *Entry { return model.choice }

// Init implements tea.Model.
func (model Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.Select):
			if model.cursor < len(model.entries) {
				choice := model.entries[model.cursor]
				model.choice = &choice
				return model, tea.Quit
			}

		case key.Matches(message, model.keys.Up):
			if model.cursor > 0 {
				model.cursor--
			}

		case key.Matches(message, model.keys.Down):
			if model.cursor < len(model.entries)-1 {
				model.cursor++
			}

		case key.Matches(message, model.keys.PageUp):
			model.cursor -= model.visibleHeight()
			if model.cursor < 0 {
				model.cursor = 0
			}

		case key.Matches(message, model.keys.PageDown):
			model.cursor += model.visibleHeight()
			if model.cursor > len(model.entries)-1 {
				model.cursor = len(model.entries) - 1
			}
			if model.cursor < 0 {
				model.cursor = 0
			}

		case key.Matches(message, model.keys.Home):
			model.cursor = 0

		case key.Matches(message, model.keys.End):
			if len(model.entries) > 0 {
				model.cursor = len(model.entries) - 1
			}
		}
		model.ensureCursorVisible()

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.ensureCursorVisible()
	}
	return model, nil
}

// visibleHeight returns the number of list rows that fit between the
// header line and the bottom separator plus help bar.
func (model Model) visibleHeight() int {
	return model.height - 3
}

// ensureCursorVisible adjusts scrollOffset so the cursor stays within
// the visible row range.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()
	if visible <= 0 {
		return
	}
	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}
	if len(model.entries) == 0 {
		return model.renderEmpty()
	}

	var sections []string
	sections = append(sections, model.renderHeader())
	sections = append(sections, model.renderList())

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	sections = append(sections, separator)
	sections = append(sections, model.renderHelp())

	return strings.Join(sections, "\n")
}

func (model Model) renderEmpty() string {
	style := lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Width(model.width).
		Height(model.height).
		Align(lipgloss.Center, lipgloss.Center)
	return style.Render("No windows to pick from. Press q to quit.")
}

func (model Model) renderHeader() string {
	style := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Width(model.width).
		MaxWidth(model.width)
	return style.Render(fmt.Sprintf(" Pick a window  (%d found)", len(model.entries)))
}

func (model Model) renderList() string {
	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	var rows []string
	for index := model.scrollOffset; index < model.scrollOffset+visible && index < len(model.entries); index++ {
		rows = append(rows, model.renderRow(model.entries[index], index == model.cursor))
	}

	// Pad empty rows so the separator stays put on short lists.
	rendered := len(rows)
	if rendered < visible {
		emptyStyle := lipgloss.NewStyle().Width(model.width)
		for padding := rendered; padding < visible; padding++ {
			rows = append(rows, emptyStyle.Render(""))
		}
	}

	return strings.Join(rows, "\n")
}

// renderRow renders one window as a table row:
//
//	● 0x3a00007  1920x1080  Mozilla Firefox
//	  0x3c0000a  800x600    alacritty
//
// The dot marks the currently focused window.
func (model Model) renderRow(entry Entry, selected bool) string {
	titleWidth := model.width - markerWidth - columnWidthHandle - columnWidthGeometry
	if titleWidth < 10 {
		titleWidth = 10
	}

	title := entry.Title
	if title == "" {
		title = "(untitled)"
	}
	if lipgloss.Width(title) > titleWidth {
		title = truncateString(title, titleWidth-1) + "…"
	}

	geometry := fmt.Sprintf("%dx%d", entry.Rect.Width(), entry.Rect.Height())

	if selected {
		baseStyle := lipgloss.NewStyle().
			Background(model.theme.SelectedBackground).
			Foreground(model.theme.SelectedForeground)

		marker := "   "
		if entry.Focused {
			marker = " ● "
		}
		row := marker +
			baseStyle.Width(columnWidthHandle).Render(entry.Handle.String()) +
			baseStyle.Width(columnWidthGeometry).Render(geometry) +
			baseStyle.Bold(true).Render(title)
		return baseStyle.Width(model.width).MaxWidth(model.width).Render(row)
	}

	marker := "   "
	if entry.Focused {
		marker = " " + lipgloss.NewStyle().Foreground(model.theme.FocusMarker).Render("●") + " "
	}

	handleStyle := lipgloss.NewStyle().
		Width(columnWidthHandle).
		Foreground(model.theme.FaintText)
	geometryStyle := lipgloss.NewStyle().
		Width(columnWidthGeometry).
		Foreground(model.theme.FaintText)
	titleStyle := lipgloss.NewStyle().
		Foreground(model.theme.NormalText)

	row := marker +
		handleStyle.Render(entry.Handle.String()) +
		geometryStyle.Render(geometry) +
		titleStyle.Render(title)

	return lipgloss.NewStyle().Width(model.width).MaxWidth(model.width).Render(row)
}

func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)
	return style.Render(" q quit  ↑↓/jk navigate  g/G top/bottom  Enter select")
}

// truncateString truncates a string to maxWidth visual characters,
// measured by lipgloss so wide runes count correctly.
func truncateString(text string, maxWidth int) string {
	if lipgloss.Width(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for length := len(runes) - 1; length >= 0; length-- {
		candidate := string(runes[:length])
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}

package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PickerDriver forwards picker actions to wherever the session lives.
type PickerDriver interface {
	Apply(action domain.PickerAction) (domain.PickerView, error)
}

// DriverFunc adapts a function to PickerDriver.
type DriverFunc func(action domain.PickerAction) (domain.PickerView, error)

// Apply calls f.
func (f DriverFunc) Apply(action domain.PickerAction) (domain.PickerView, error) {
	return f(action)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2dd4bf"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	matchStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fbbf24"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#34d399"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171"))
)

var categories = []domain.Category{"", domain.CategoryCore, domain.CategoryEnabling}

// Picker is the interactive capability picker.
type Picker struct {
	driver PickerDriver
	title  string
	view   domain.PickerView
	input  textinput.Model
	cursor int
	height int
	err    error

	// Confirmed is set when the user accepted the selection; otherwise the
	// picker was canceled.
	Confirmed bool
}

// NewPicker creates a picker model starting from an opened session's view.
func NewPicker(title string, view domain.PickerView, driver PickerDriver) *Picker {
	ti := textinput.New()
	ti.Placeholder = "search name, domain or description"
	ti.Prompt = "/ "
	ti.SetValue(view.Query)

	return &Picker{
		driver: driver,
		title:  title,
		view:   view,
		input:  ti,
		height: 20,
	}
}

// PickerView returns the latest picker view.
func (p *Picker) PickerView() domain.PickerView {
	return p.view
}

func (p *Picker) Init() tea.Cmd {
	return nil
}

func (p *Picker) apply(a domain.PickerAction) {
	v, err := p.driver.Apply(a)
	if err != nil {
		p.err = err
		return
	}
	p.err = nil
	p.view = v
	if p.cursor >= len(v.Rows) {
		p.cursor = max(len(v.Rows)-1, 0)
	}
}

func (p *Picker) current() (domain.PickerRow, bool) {
	if p.cursor < 0 || p.cursor >= len(p.view.Rows) {
		return domain.PickerRow{}, false
	}
	return p.view.Rows[p.cursor], true
}

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.height = max(msg.Height-6, 5)
		return p, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return p, tea.Quit
		}
		if p.input.Focused() {
			return p.updateSearch(msg)
		}
		return p.updateBrowse(msg)
	}
	return p, nil
}

func (p *Picker) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "down":
		p.input.Blur()
		return p, nil
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if after := p.input.Value(); after != before {
		p.apply(domain.PickerAction{Type: domain.ActionSetQuery, Query: after})
		p.cursor = 0
	}
	return p, cmd
}

func (p *Picker) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "esc":
		return p, tea.Quit
	case "enter":
		p.Confirmed = true
		return p, tea.Quit
	case "/":
		return p, p.input.Focus()
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.view.Rows)-1 {
			p.cursor++
		}
	case "right", "l":
		if row, ok := p.current(); ok && row.HasChildren && !row.Expanded {
			p.apply(domain.PickerAction{Type: domain.ActionToggleExpand, NodeID: row.ID})
		}
	case "left", "h":
		if row, ok := p.current(); ok && row.Expanded {
			p.apply(domain.PickerAction{Type: domain.ActionToggleExpand, NodeID: row.ID})
		}
	case " ", "x":
		if row, ok := p.current(); ok {
			p.apply(domain.PickerAction{Type: domain.ActionToggleSelect, NodeID: row.ID})
		}
	case "tab":
		next := categories[0]
		for i, c := range categories {
			if c == p.view.Category {
				next = categories[(i+1)%len(categories)]
				break
			}
		}
		p.apply(domain.PickerAction{Type: domain.ActionSetCategory, Category: next})
		p.cursor = 0
	case "0", "1", "2", "3":
		p.apply(domain.PickerAction{Type: domain.ActionSetLevel, Level: int(key[0] - '0')})
		p.cursor = 0
	}
	return p, nil
}

func (p *Picker) View() string {
	var b strings.Builder

	category := "all"
	if p.view.Category != "" {
		category = string(p.view.Category)
	}
	level := "any"
	if p.view.Level > 0 {
		level = fmt.Sprint(p.view.Level)
	}
	b.WriteString(titleStyle.Render(p.title))
	b.WriteString(helpStyle.Render(fmt.Sprintf("  tab: %s  level: %s  selected: %d", category, level, len(p.view.Selected))))
	b.WriteString("\n")
	b.WriteString(p.input.View())
	b.WriteString("\n\n")

	if p.view.NoResults {
		b.WriteString(helpStyle.Render("No capabilities match."))
		b.WriteString("\n")
	}

	// Keep the cursor inside the visible window.
	start := 0
	if p.cursor >= p.height {
		start = p.cursor - p.height + 1
	}
	end := min(start+p.height, len(p.view.Rows))

	for i := start; i < end; i++ {
		row := p.view.Rows[i]

		marker := "  "
		if row.HasChildren {
			marker = "▸ "
			if row.Expanded {
				marker = "▾ "
			}
		}
		box := "[ ]"
		if row.Selected {
			box = selectedStyle.Render("[x]")
		}
		name := row.Name
		if row.Matched {
			name = matchStyle.Render(name)
		}

		line := fmt.Sprintf("%s%s%s %s", strings.Repeat("  ", row.Level-1), marker, box, name)
		if i == p.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if p.err != nil {
		b.WriteString(errorStyle.Render(p.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("/ search · ↑↓ move · ←→ collapse/expand · space select · tab category · 0-3 level · enter save · esc cancel"))
	return b.String()
}

// RunPicker runs the picker full screen and returns the final model.
func RunPicker(p *Picker) (*Picker, error) {
	final, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(*Picker), nil
}

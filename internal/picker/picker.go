// Package picker is the interactive model chooser behind `llmdb pick`.
package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fbettag/llmdb/internal/catalog"
	"github.com/fbettag/llmdb/internal/spec"
)

// ErrCancelled is returned when the user leaves the picker without choosing.
var ErrCancelled = errors.New("no model selected")

// Config configures the picker UI.
type Config struct {
	Title string
	// Format controls how the chosen model is shown as a spec.
	Format spec.Format
	// Options are passed to the bubbletea program, e.g. custom input and output in tests.
	Options []tea.ProgramOption
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	deprecatedTag = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render(" deprecated")
)

// Select launches a picker over models, returning the chosen entry.
func Select(ctx context.Context, models []catalog.Model, cfg Config) (catalog.Model, error) {
	if len(models) == 0 {
		return catalog.Model{}, fmt.Errorf("no models available")
	}
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, cfg.Options...)
	p := tea.NewProgram(newModel(models, cfg), opts...)
	final, err := p.Run()
	if err != nil {
		return catalog.Model{}, err
	}
	pm, ok := final.(model)
	if !ok || pm.selected == nil {
		return catalog.Model{}, ErrCancelled
	}
	return *pm.selected, nil
}

type model struct {
	cfg       Config
	models    []catalog.Model
	filtered  []catalog.Model
	cursor    int
	searching bool
	searchBox textinput.Model
	selected  *catalog.Model
}

func newModel(models []catalog.Model, cfg Config) model {
	return model{cfg: cfg, models: models, filtered: models, searchBox: newSearchInput()}
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "provider, id, alias or family"
	ti.Prompt = "/ "
	ti.CharLimit = 256
	return ti
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.searching {
			m.searching = false
			m.searchBox.Reset()
			m.searchBox.Blur()
			m.filtered = m.models
			m.cursor = 0
			return m, nil
		}
		return m, tea.Quit
	case "down", "ctrl+n":
		m.moveCursor(1)
		return m, nil
	case "up", "ctrl+p":
		m.moveCursor(-1)
		return m, nil
	case "enter":
		if len(m.filtered) == 0 {
			return m, nil
		}
		selected := m.filtered[m.cursor]
		m.selected = &selected
		return m, tea.Quit
	}
	if !m.searching {
		switch key.String() {
		case "q":
			return m, tea.Quit
		case "j":
			m.moveCursor(1)
			return m, nil
		case "k":
			m.moveCursor(-1)
			return m, nil
		case "/", "ctrl+r":
			m.searching = true
			return m, m.searchBox.Focus()
		}
		return m, nil
	}
	var cmd tea.Cmd
	old := m.searchBox.Value()
	m.searchBox, cmd = m.searchBox.Update(msg)
	if old != m.searchBox.Value() {
		m.applyFilter()
	}
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString("\n")
	title := m.cfg.Title
	if title == "" {
		title = "Select a model (arrows, / search, enter to choose, esc to cancel)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.searchBox.View())
		b.WriteByte('\n')
	}
	if len(m.filtered) == 0 {
		b.WriteString(emptyStyle.Render("  no matches"))
		b.WriteByte('\n')
	}
	for i, entry := range m.filtered {
		line := spec.FormatSpec(entry.Provider, entry.ID, m.cfg.Format)
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		if details := describe(entry); details != "" {
			b.WriteString(detailStyle.Render("  " + details))
		}
		if entry.Deprecated {
			b.WriteString(deprecatedTag)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func describe(m catalog.Model) string {
	var parts []string
	if m.Name != "" && m.Name != m.ID {
		parts = append(parts, m.Name)
	}
	if m.Limits.Context > 0 {
		parts = append(parts, fmt.Sprintf("%dk ctx", m.Limits.Context/1000))
	}
	if m.Cost != nil {
		parts = append(parts, fmt.Sprintf("$%s/$%s per Mtok", m.Cost.Input.String(), m.Cost.Output.String()))
	}
	return strings.Join(parts, " · ")
}

func (m *model) moveCursor(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
}

func (m *model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.searchBox.Value()))
	if query == "" {
		m.filtered = m.models
		m.cursor = 0
		return
	}
	var filtered []catalog.Model
	for _, entry := range m.models {
		if matches(entry, query) {
			filtered = append(filtered, entry)
		}
	}
	m.filtered = filtered
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func matches(m catalog.Model, query string) bool {
	fields := append([]string{string(m.Provider), m.ID, m.Name, m.Family}, m.Aliases...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"todo-app/model"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedColor = lipgloss.Color("229")
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("70"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeTab     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Underline(true)
	inactiveTab   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func (m *Model) View() string {
	if !m.svc.Ready() {
		return fmt.Sprintf("\n  %s Loading…\n", m.spinner.View())
	}
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	viewW := m.viewportWidth()
	header := m.renderHeader(viewW)
	inputLine := m.renderInput(viewW)
	tabs := m.renderCounts(viewW)

	listH := m.height - 9
	if listH < 3 {
		listH = 3
	}
	body := m.renderList(viewW-2, listH)
	if m.mode == modeAlert {
		body = lipgloss.Place(viewW-2, listH, lipgloss.Center, lipgloss.Center, m.renderAlert(viewW-6))
	} else if m.showHelp {
		body = lipgloss.Place(viewW-2, listH, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay(viewW-6))
	}

	frameColor := lipgloss.Color("240")
	if m.focus == focusList && m.mode == modeNormal {
		frameColor = lipgloss.Color("39")
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(frameColor).
		Width(viewW - 2).
		Height(listH).
		Render(body)

	statusStyle := okStyle
	if m.statusErr {
		statusStyle = errStyle
	}
	rightHint := "? help"
	if m.showHelp {
		rightHint = "esc/? close help"
	}
	footer := m.renderFooter(m.status, statusStyle, rightHint)

	parts := []string{header, inputLine, panel, tabs, footer}
	if m.mode == modeSearch {
		parts = append(parts, m.search.View())
	}
	return strings.Join(parts, "\n")
}

func (m *Model) viewportWidth() int {
	if m.width <= 0 {
		return 1
	}
	// One spare column keeps the right border from wrapping in some terminals.
	if m.width > 1 {
		return m.width - 1
	}
	return m.width
}

func (m *Model) renderHeader(width int) string {
	summary := fmt.Sprintf("focus: %s • filter: %s", m.focus, m.svc.Filter().Label())
	if m.query != "" {
		summary += fmt.Sprintf(" • search: %q", m.query)
	}
	line := lipgloss.JoinHorizontal(lipgloss.Left,
		titleStyle.Render("todos"),
		summaryStyle.Render("  "+summary),
	)
	return ansi.Truncate(line, width, "…")
}

func (m *Model) renderInput(width int) string {
	marker := mutedStyle.Render("✓")
	if m.svc.AllComplete() {
		marker = okStyle.Bold(true).Render("✓")
	}
	if m.mode == modeEdit {
		return ansi.Truncate(marker+" "+mutedStyle.Render(m.input.Value()), width, "…")
	}
	return ansi.Truncate(marker+" "+m.input.View(), width, "…")
}

func (m *Model) renderList(width, height int) string {
	rows := m.rows()
	if len(rows) == 0 {
		msg := emptyList
		switch {
		case len(m.svc.Items()) == 0:
		case m.query != "":
			msg = "No tasks match the search (esc clears it)."
		default:
			msg = fmt.Sprintf("No %s tasks (press f to change the filter).", strings.ToLower(m.svc.Filter().Label()))
		}
		return mutedStyle.Width(width).Render(msg)
	}

	m.cursor = clamp(m.cursor, 0, len(rows)-1)
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
	end := min(m.offset+height, len(rows))

	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], i == m.cursor, width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(it model.Item, selected bool, width int) string {
	cursor := " "
	if selected && m.focus == focusList {
		cursor = "▸"
	}
	check := "[ ]"
	if it.Complete {
		check = "[x]"
	}

	textStyle := lipgloss.NewStyle()
	if it.Complete {
		textStyle = textStyle.Strikethrough(true).Faint(true)
	}
	if selected && m.focus == focusList {
		textStyle = textStyle.Bold(true).Foreground(selectedColor)
	}

	text := textStyle.Render(it.Text)
	if m.mode == modeEdit && it.ID == m.editingID {
		text = m.editor.View()
	}
	line := cursor + " " + check + " " + text
	return ansi.Truncate(line, width, "…")
}

// renderCounts draws "All (n)  Active (n)  Completed (n)" with the active
// filter highlighted.
func (m *Model) renderCounts(width int) string {
	counts := m.svc.FilterCounts()
	current := m.svc.Filter()
	tabs := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		label := fmt.Sprintf("%s (%d)", f.Label(), counts.Of(f))
		if f == current {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, inactiveTab.Render(label))
		}
	}
	return ansi.Truncate(strings.Join(tabs, "  "), width, "…")
}

func (m *Model) renderAlert(width int) string {
	width = clamp(width, 20, 60)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("220")).
		Padding(1, 2).
		Width(width)
	rows := []string{
		titleStyle.Render(alertTitle),
		"",
		alertBody,
		"",
		hintStyle.Render("enter/esc ok"),
	}
	return box.Render(strings.Join(rows, "\n"))
}

func (m *Model) renderHelpOverlay(width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("244")).
		Padding(1, 2)
	content := titleStyle.Render("Shortcuts") + "\n\n" + m.help.FullHelpView(m.keys.FullHelp())
	if width > 0 {
		box = box.MaxWidth(width)
	}
	return box.Render(content)
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(statusText)
	right := strings.TrimSpace(rightHint)
	if left == "" {
		left = "Ready"
	}

	width := m.viewportWidth()
	rightW := ansi.StringWidth(right)
	if ansi.StringWidth(left)+rightW+1 > width {
		left = ansi.Truncate(left, max(width-rightW-1, 8), "…")
	}
	padding := max(width-ansi.StringWidth(left)-rightW, 1)

	line := statusStyle.Render(left) + strings.Repeat(" ", padding) + hintStyle.Render(right)
	return lipgloss.NewStyle().Width(width).Render(line)
}

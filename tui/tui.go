package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"todo-app/app"
	"todo-app/model"
)

const (
	placeholder = "What needs to be done?"
	alertTitle  = "Your task has no name!"
	alertBody   = "Enter a name for your task using the textfield on the topside of this view :)"
	emptyList   = "There are currently no items on your to do list. Go add some using the input above!"
)

// Loader supplies the persisted list once at startup.
type Loader interface {
	Load(ctx context.Context) []model.Item
}

type focusPane int

const (
	focusInput focusPane = iota
	focusList
)

func (f focusPane) String() string {
	if f == focusList {
		return "list"
	}
	return "input"
}

type uiMode int

const (
	modeNormal uiMode = iota
	modeEdit
	modeSearch
	modeAlert
)

type loadedMsg struct {
	items []model.Item
}

// Option customises a Model.
type Option func(*Model)

// WithLogger sets the logger for UI diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}

type Model struct {
	svc    *app.Service
	loader Loader
	logger *log.Logger
	copy   func(string) error

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	input   textinput.Model
	editor  textinput.Model
	search  textinput.Model

	focus     focusPane
	mode      uiMode
	cursor    int
	offset    int
	editingID string
	query     string
	showHelp  bool

	status    string
	statusErr bool

	width  int
	height int
}

func NewModel(svc *app.Service, loader Loader, opts ...Option) *Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = ""
	input.CharLimit = 500
	input.SetValue(svc.Input())
	input.Focus()

	editor := textinput.New()
	editor.Prompt = ""
	editor.CharLimit = 500

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search"

	m := &Model{
		svc:     svc,
		loader:  loader,
		logger:  log.Default(),
		copy:    clipboard.WriteAll,
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		input:   input,
		editor:  editor,
		search:  search,
		focus:   focusInput,
		status:  "Ready",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	if m.svc.Ready() {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m *Model) load() tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		if loader == nil {
			return loadedMsg{}
		}
		return loadedMsg{items: loader.Load(context.Background())}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = clamp(msg.Width-8, 10, 200)
		m.editor.Width = clamp(msg.Width-10, 10, 200)
	case spinner.TickMsg:
		if m.svc.Ready() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadedMsg:
		m.hydrate(msg.items)
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		if !m.svc.Ready() {
			return m, nil
		}
		switch {
		case m.mode == modeAlert:
			m.updateAlertMode(msg)
		case m.showHelp:
			m.updateHelp(msg)
		case m.mode == modeEdit:
			return m, m.updateEditMode(msg)
		case m.mode == modeSearch:
			return m, m.updateSearchMode(msg)
		case m.focus == focusInput:
			return m, m.updateInputFocus(msg)
		default:
			if quit := m.updateListFocus(msg); quit {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *Model) hydrate(items []model.Item) {
	if err := m.svc.Hydrate(items); err != nil {
		m.logger.Warn("ignoring second load", "err", err)
		return
	}
	// A saved editing flag has no editor behind it after a restart.
	for _, it := range m.svc.Items() {
		if it.Editing {
			m.svc.SetEditing(it.ID, false)
		}
	}
	n := len(m.svc.Items())
	m.logger.Debug("items ready", "count", n)
	if n == 0 {
		m.setStatus("Ready", false)
	} else {
		m.setStatus(fmt.Sprintf("Loaded %d tasks", n), false)
	}
}

// The alert blocks every other interaction until acknowledged.
func (m *Model) updateAlertMode(msg tea.KeyMsg) {
	if key.Matches(msg, m.keys.Submit, m.keys.Back) {
		m.mode = modeNormal
		m.setStatus("Ready", false)
	}
}

func (m *Model) updateHelp(msg tea.KeyMsg) {
	if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
		m.showHelp = false
	}
}

func (m *Model) updateInputFocus(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return nil
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Back):
		m.setFocus(focusList)
		return nil
	case msg.String() == "ctrl+t":
		m.toggleAll()
		return nil
	case msg.String() == "down" && len(m.rows()) > 0:
		m.setFocus(focusList)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.svc.SetInput(m.input.Value())
	return cmd
}

func (m *Model) submit() {
	m.svc.SetInput(m.input.Value())
	item, err := m.svc.SubmitInput()
	if errors.Is(err, app.ErrEmptyText) {
		m.mode = modeAlert
		m.input.SetValue("")
		m.svc.SetInput("")
		return
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.input.SetValue(m.svc.Input())
	m.setStatus(fmt.Sprintf("Added %q", item.Text), false)
}

func (m *Model) updateListFocus(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true
	case key.Matches(msg, m.keys.Focus):
		m.setFocus(focusInput)
	case key.Matches(msg, m.keys.Back):
		if m.query != "" {
			m.clearSearch()
		} else {
			m.setFocus(focusInput)
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor == 0 {
			m.setFocus(focusInput)
		} else {
			m.moveCursor(-1)
		}
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelected()
	case key.Matches(msg, m.keys.ToggleAll):
		m.toggleAll()
	case key.Matches(msg, m.keys.Edit):
		m.startEdit()
	case key.Matches(msg, m.keys.Remove):
		m.removeSelected()
	case key.Matches(msg, m.keys.FilterAll):
		m.setFilter(model.FilterAll)
	case key.Matches(msg, m.keys.FilterAct):
		m.setFilter(model.FilterActive)
	case key.Matches(msg, m.keys.FilterDone):
		m.setFilter(model.FilterCompleted)
	case key.Matches(msg, m.keys.Cycle):
		m.setFilter(m.svc.Filter().Next())
	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		m.search.Focus()
		m.setStatus("Type to narrow the list • Enter keeps • Esc clears", false)
	case key.Matches(msg, m.keys.Copy):
		m.copyActive()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	}
	return false
}

func (m *Model) updateEditMode(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Submit, m.keys.Back) {
		m.finishEdit()
		return nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.svc.UpdateText(m.editingID, m.editor.Value())
	return cmd
}

func (m *Model) updateSearchMode(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.search.Blur()
		m.mode = modeNormal
		m.clearSearch()
		return nil
	case key.Matches(msg, m.keys.Submit):
		m.search.Blur()
		m.mode = modeNormal
		if m.query == "" {
			m.setStatus("Ready", false)
		} else {
			m.setStatus(fmt.Sprintf("%d matching %q", len(m.rows()), m.query), false)
		}
		return nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.query = strings.TrimSpace(m.search.Value())
	m.cursor = 0
	m.offset = 0
	return cmd
}

func (m *Model) setFocus(f focusPane) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
		m.cursor = clamp(m.cursor, 0, max(len(m.rows())-1, 0))
	}
}

func (m *Model) moveCursor(delta int) {
	rows := m.rows()
	if len(rows) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(rows)-1)
}

func (m *Model) selected() (model.Item, bool) {
	rows := m.rows()
	if len(rows) == 0 {
		return model.Item{}, false
	}
	m.cursor = clamp(m.cursor, 0, len(rows)-1)
	return rows[m.cursor], true
}

func (m *Model) toggleSelected() {
	it, ok := m.selected()
	if !ok {
		return
	}
	m.svc.SetComplete(it.ID, !it.Complete)
	if it.Complete {
		m.setStatus(fmt.Sprintf("Reopened %q", it.Text), false)
	} else {
		m.setStatus(fmt.Sprintf("Completed %q", it.Text), false)
	}
	m.ensureCursor()
}

func (m *Model) toggleAll() {
	m.svc.ToggleAllComplete()
	if len(m.svc.Items()) == 0 {
		m.setStatus("Nothing to toggle", false)
	} else if m.svc.AllComplete() {
		m.setStatus("Marked every task complete", false)
	} else {
		m.setStatus("Marked every task active", false)
	}
	m.ensureCursor()
}

func (m *Model) startEdit() {
	it, ok := m.selected()
	if !ok {
		return
	}
	m.svc.SetEditing(it.ID, true)
	m.editingID = it.ID
	m.editor.SetValue(it.Text)
	m.editor.CursorEnd()
	m.editor.Focus()
	m.mode = modeEdit
	m.setStatus("Editing • Enter or Esc saves", false)
}

func (m *Model) finishEdit() {
	m.svc.SetEditing(m.editingID, false)
	m.editor.Blur()
	m.mode = modeNormal
	if it, err := m.svc.Get(m.editingID); err == nil && strings.TrimSpace(it.Text) == "" {
		m.setStatus("Saved an empty task (d removes it)", false)
	} else {
		m.setStatus("Saved", false)
	}
	m.editingID = ""
	m.ensureCursor()
}

func (m *Model) removeSelected() {
	it, ok := m.selected()
	if !ok {
		return
	}
	m.svc.Remove(it.ID)
	m.setStatus(fmt.Sprintf("Removed %q", it.Text), false)
	m.ensureCursor()
}

func (m *Model) setFilter(f model.Filter) {
	if err := m.svc.SetFilter(f); err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.cursor = 0
	m.offset = 0
	m.setStatus("Showing "+strings.ToLower(f.Label())+" tasks", false)
}

func (m *Model) clearSearch() {
	m.query = ""
	m.search.SetValue("")
	m.cursor = 0
	m.offset = 0
	m.setStatus("Search cleared", false)
}

func (m *Model) copyActive() {
	active := model.FilterItems(model.FilterActive, m.svc.Items())
	parts := make([]string, 0, len(active))
	for _, it := range active {
		text := strings.TrimSpace(strings.ReplaceAll(it.Text, "\n", " "))
		if text == "" {
			continue
		}
		parts = append(parts, "- "+text)
	}
	if len(parts) == 0 {
		m.setStatus("No active tasks to copy", false)
		return
	}
	if err := m.copy(strings.Join(parts, "\n")); err != nil {
		m.logger.Warn("clipboard write failed", "err", err)
		m.setStatus("Copy failed: "+err.Error(), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %d active tasks", len(parts)), false)
}

// rows is the filtered view, optionally narrowed by the search query. The
// query never touches the store's filter.
func (m *Model) rows() []model.Item {
	visible := m.svc.Visible()
	if m.query == "" {
		return visible
	}
	out := visible[:0:0]
	for _, it := range visible {
		if fuzzy.MatchNormalizedFold(m.query, it.Text) {
			out = append(out, it)
		}
	}
	return out
}

func (m *Model) ensureCursor() {
	rows := m.rows()
	if len(rows) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clamp(m.cursor, 0, len(rows)-1)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

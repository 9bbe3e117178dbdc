// Package tui is the interactive single-page view over the todo server.
// All data flows through the client package: mutations hit the API and
// the list is re-fetched, so the screen always shows the server's
// authoritative order.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nboone/todoapp/internal/client"
	"github.com/nboone/todoapp/internal/model"
)

// listItem adapts a model.Todo to bubbles/list.Item
type listItem struct {
	todo model.Todo
}

func (i listItem) titleText() string {
	box := boxUnchecked
	if i.todo.Completed {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.todo.Title)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.titleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

// Messages produced by client commands.
type todosMsg struct {
	todos []model.Todo
	stats client.Stats
}

type loadErrMsg struct{ err error }

type actionErrMsg struct{ err error }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.todo.Title
	if it.todo.Completed {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.todo.Title)
	}

	line := fmt.Sprintf("%s %s", boxStyled, textStyled)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// Model is the Bubble Tea model for the todo list view.
type Model struct {
	api  *client.Client
	list list.Model

	loading bool
	loadErr string
	stats   client.Stats

	width  int
	height int

	// Inline add
	adding bool
	ti     textinput.Model
	addErr string

	// Inline edit
	editing bool
	editID  int64
	editErr string

	// Last failed action (list stays as-is)
	actionErr string
}

// NewModel builds the initial model; the list is fetched by Init.
func NewModel(api *client.Client) Model {
	l := list.New([]list.Item{}, itemDelegate{}, 0, 0)
	l.Title = titleStyle.Render("Todos")
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	refreshBind := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, refreshBind} }
	l.AdditionalFullHelpKeys = func() []key.Binding { return []key.Binding{addBind, editBind, refreshBind} }

	m := Model{
		api:     api,
		list:    l,
		loading: true,
		width:   80,
		height:  24,
	}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.Placeholder = "New todo title..."
	m.ti.CharLimit = 200
	return m
}

// Run starts the interactive list.
func Run(api *client.Client) error {
	p := tea.NewProgram(NewModel(api), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.refreshCmd(true)
}

// refreshCmd fetches the list; initial load failures get their own
// message so the view can distinguish "nothing to show" from "an
// action failed against a list we already have".
func (m Model) refreshCmd(initial bool) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		if err := api.Refresh(context.Background()); err != nil {
			if initial {
				return loadErrMsg{err: err}
			}
			return actionErrMsg{err: err}
		}
		return todosMsg{todos: api.Todos(), stats: api.Stats()}
	}
}

func (m Model) mutateCmd(mutate func(context.Context) error) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		if err := mutate(context.Background()); err != nil {
			return actionErrMsg{err: err}
		}
		return todosMsg{todos: api.Todos(), stats: api.Stats()}
	}
}

func (m Model) selectedTodo() (model.Todo, bool) {
	i := m.list.Index()
	items := m.list.Items()
	if i < 0 || i >= len(items) {
		return model.Todo{}, false
	}
	li, ok := items[i].(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return li.todo, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case todosMsg:
		m.loading = false
		m.loadErr = ""
		m.actionErr = ""
		m.stats = msg.stats
		items := make([]list.Item, 0, len(msg.todos))
		for _, t := range msg.todos {
			items = append(items, listItem{todo: t})
		}
		cmd := m.list.SetItems(items)
		m.list.Title = statsHeader(msg.stats)
		return m, cmd

	case loadErrMsg:
		m.loading = false
		m.loadErr = msg.err.Error()
		return m, nil

	case actionErrMsg:
		// Keep the cached list on screen, just surface the error.
		m.actionErr = msg.err.Error()
		return m, nil
	}

	// add mode
	if m.adding {
		var cmd tea.Cmd
		if x, ok := msg.(tea.KeyMsg); ok {
			switch x.String() {
			case "enter":
				title := strings.TrimSpace(m.ti.Value())
				if title == "" {
					m.addErr = "Title cannot be empty"
					return m, nil
				}
				m.adding = false
				m.addErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, m.mutateCmd(func(ctx context.Context) error {
					_, err := m.api.Create(ctx, title)
					return err
				})
			case "esc":
				m.adding = false
				m.addErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	// edit mode
	if m.editing {
		var cmd tea.Cmd
		if x, ok := msg.(tea.KeyMsg); ok {
			switch x.String() {
			case "enter":
				title := strings.TrimSpace(m.ti.Value())
				if title == "" {
					m.editErr = "Title cannot be empty"
					return m, nil
				}
				id := m.editID
				m.editing = false
				m.editErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, m.mutateCmd(func(ctx context.Context) error {
					_, err := m.api.Update(ctx, id, model.UpdateTodoRequest{Title: &title})
					return err
				})
			case "esc":
				m.editing = false
				m.editErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd(m.loadErr != "")
		case " ":
			if t, ok := m.selectedTodo(); ok {
				return m, m.mutateCmd(func(ctx context.Context) error {
					_, err := m.api.Toggle(ctx, t.ID)
					return err
				})
			}
			return m, nil
		case "d":
			if t, ok := m.selectedTodo(); ok {
				return m, m.mutateCmd(func(ctx context.Context) error {
					return m.api.Delete(ctx, t.ID)
				})
			}
			return m, nil
		case "a":
			m.adding = true
			m.ti.SetValue("")
			m.ti.Placeholder = "New todo title..."
			m.ti.Focus()
			return m, nil
		case "e":
			if t, ok := m.selectedTodo(); ok {
				m.editing = true
				m.editID = t.ID
				m.ti.SetValue(t.Title)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit todo title..."
				m.ti.Focus()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return panelStyle.Render(mutedStyle.Render("Loading todos..."))
	}
	if m.loadErr != "" {
		return panelStyle.Render(
			errorStyle.Render("Error loading todos: "+m.loadErr) +
				"\n" + helpStyle.Render("r retry • q quit"))
	}

	listHeight := m.height - 4
	if m.adding || m.editing {
		listHeight = m.height - 6
	}
	m.list.SetSize(m.width-2, listHeight)

	var content string
	if len(m.list.Items()) == 0 && !m.adding {
		content = m.list.View() + "\n" +
			mutedStyle.Render("No todos yet. Press a to add one.")
	} else {
		content = m.list.View()
	}

	if m.actionErr != "" {
		content += "\n" + errorStyle.Render("✖ "+m.actionErr)
	}

	if m.adding || m.editing {
		title := "Add new todo"
		if m.editing {
			title = "Edit todo"
		}
		if m.addErr != "" && m.adding {
			title += " — " + errorStyle.Render(m.addErr)
		}
		if m.editErr != "" && m.editing {
			title += " — " + errorStyle.Render(m.editErr)
		}
		inputLine := title + "\n" + m.ti.View()
		content = content + "\n" + panelStyle.Render(inputLine)
	}
	return panelStyle.Render(content)
}

// statsHeader renders the title line with live derived counts.
func statsHeader(s client.Stats) string {
	return fmt.Sprintf("%s   %s %d left  %s %d done",
		titleStyle.Render("Todos"),
		pendingStyle.Render("•"), s.ItemsLeft,
		successStyle.Render("✔"), s.Completed,
	)
}

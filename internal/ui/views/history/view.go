package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	"pomodoro/internal/ui/theme"
)

type HistoryPort interface {
	History(ctx context.Context, filter historydomain.Filter) (historydto.HistoryView, error)
}

type LoadedMsg struct {
	View historydto.HistoryView
	Err  error
}

type sessionItem struct {
	rec historydomain.SessionRecord
}

func (i sessionItem) Title() string {
	label := "Work"
	if i.rec.Kind == historydomain.KindBreak {
		label = "Break"
	}
	if i.rec.Kind == historydomain.KindWork && i.rec.Project != "" {
		label += " · " + i.rec.Project
	}
	return label
}

func (i sessionItem) Description() string {
	return fmt.Sprintf("%s %s  %d min  %s", i.rec.ISODate, i.rec.CompletedAt.Format("15:04"), i.rec.DurationMinutes, i.rec.ID)
}

func (i sessionItem) FilterValue() string { return i.rec.Project + " " + i.rec.ISODate }

type Model struct {
	port    HistoryPort
	filter  historydomain.Filter
	list    list.Model
	summary viewport.Model
	view    historydto.HistoryView
	width   int
	height  int
}

func New(port HistoryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "History"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	return Model{port: port, filter: historydomain.Filter{Period: historydomain.PeriodAll}, list: l, summary: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload fetches the log with the current filter.
func (m Model) Reload() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		view, err := m.port.History(context.Background(), filter)
		return LoadedMsg{View: view, Err: err}
	}
}

// SetFilter replaces the filter and reloads.
func (m *Model) SetFilter(filter historydomain.Filter) tea.Cmd {
	m.filter = filter
	return m.Reload()
}

func (m Model) Filter() historydomain.Filter { return m.filter }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "History: " + msg.Err.Error()
			return m, nil
		}
		m.view = msg.View
		var items []list.Item
		for _, day := range msg.View.Days {
			for _, rec := range day.Sessions {
				items = append(items, sessionItem{rec: rec})
			}
		}
		m.list.Title = fmt.Sprintf("History (%s)", periodLabel(m.filter))
		cmds = append(cmds, m.list.SetItems(items))
		m.summary.SetContent(m.renderSummary())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	m.summary, cmd = m.summary.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width * 55 / 100
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	summaryPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(m.width - listW - 2).
		Height(m.height - 2).
		Render(m.summary.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, summaryPane)
}

// SelectedID is the id of the highlighted session, if any.
func (m Model) SelectedID() (string, bool) {
	if item, ok := m.list.SelectedItem().(sessionItem); ok {
		return item.rec.ID, true
	}
	return "", false
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) resize() {
	listW := m.width * 55 / 100
	m.list.SetSize(listW, m.height)
	m.summary.Width = m.width - listW - 4
	m.summary.Height = m.height - 4
}

func (m Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Projects") + "\n\n")
	if len(m.view.Projects) == 0 {
		sb.WriteString(theme.Muted.Render("no work sessions in this period") + "\n")
	}
	for _, p := range m.view.Projects {
		sb.WriteString(fmt.Sprintf("%-20s %3d  %8s  avg %s\n", p.Name, p.Sessions,
			historydomain.FormatDuration(p.TotalMinutes), historydomain.FormatDuration(p.AverageMinutes)))
	}
	sb.WriteString("\n" + theme.Title.Render("Days") + "\n\n")
	for _, day := range m.view.Days {
		sb.WriteString(fmt.Sprintf("%s  %d sessions\n", day.Date, len(day.Sessions)))
	}
	sb.WriteString("\n" + theme.Muted.Render("x: delete  f: cycle period  /: search"))
	return sb.String()
}

func periodLabel(f historydomain.Filter) string {
	label := string(f.Period)
	if label == "" {
		label = string(historydomain.PeriodAll)
	}
	if f.Project != "" {
		label += ", " + f.Project
	}
	return label
}

package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	"pomodoro/internal/ui/theme"
)

type StatsPort interface {
	Stats(ctx context.Context) (historydto.StatsView, error)
}

type LoadedMsg struct {
	Stats historydto.StatsView
	Err   error
}

type Model struct {
	port   StatsPort
	table  table.Model
	stats  historydto.StatsView
	err    error
	width  int
	height int
}

func New(port StatsPort) Model {
	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Lavender)
	t.SetStyles(styles)
	return Model{port: port, table: t}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.port.Stats(context.Background())
		return LoadedMsg{Stats: stats, Err: err}
	}
}

// SelectedProject is the highlighted project name, if any.
func (m Model) SelectedProject() (string, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return "", false
	}
	return row[0], true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetHeight(max(3, msg.Height-6))
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.stats = msg.Stats
			m.table.SetRows(rows(msg.Stats.Projects))
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return theme.Hot.Render("stats: " + m.err.Error())
	}
	today := m.stats.Today
	header := theme.Title.Render("Today") + "  " +
		fmt.Sprintf("%d work sessions, %s", today.WorkSessions, today.Formatted)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", m.table.View(), "",
		theme.Muted.Render("R: rename  M: merge into  D: delete project"))
}

func columns(width int) []table.Column {
	name := max(12, width-68)
	return []table.Column{
		{Title: "Project", Width: name},
		{Title: "Sessions", Width: 8},
		{Title: "Total", Width: 9},
		{Title: "Avg", Width: 7},
		{Title: "First", Width: 10},
		{Title: "Last", Width: 10},
		{Title: "Streak", Width: 6},
		{Title: "Best", Width: 5},
	}
}

func rows(projects map[string]historydomain.ProjectStats) []table.Row {
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return projects[names[i]].TotalMinutes > projects[names[j]].TotalMinutes
	})
	out := make([]table.Row, 0, len(names))
	for _, name := range names {
		p := projects[name]
		out = append(out, table.Row{
			name,
			strconv.Itoa(p.SessionsCompleted),
			historydomain.FormatDuration(p.TotalMinutes),
			strconv.Itoa(p.AverageSessionMinutes) + "m",
			p.FirstSessionDate,
			p.LastSessionDate,
			strconv.Itoa(p.CurrentStreakDays),
			strconv.Itoa(p.BestStreakDays),
		})
	}
	return out
}

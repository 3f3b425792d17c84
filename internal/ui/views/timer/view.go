package timer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	timerdomain "pomodoro/internal/modules/timer/domain"
	timerdto "pomodoro/internal/modules/timer/dto"
	"pomodoro/internal/ui/theme"
)

// Model renders the status last polled from the timer; it never mutates it.
type Model struct {
	status   timerdto.Status
	loaded   bool
	progress progress.Model
	width    int
	height   int
}

func New() Model {
	return Model{progress: progress.New(progress.WithoutPercentage())}
}

func (m Model) SetStatus(status timerdto.Status) Model {
	m.status = status
	m.loaded = true
	return m
}

func (m Model) Status() timerdto.Status { return m.status }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		m.progress.Width = max(10, min(size.Width-8, 60))
	}
	return m, nil
}

func (m Model) View() string {
	if !m.loaded {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Muted.Render("connecting…"))
	}
	s := m.status
	kind := ""
	if s.ActiveSession != nil {
		kind = string(s.ActiveSession.Kind)
	}
	accent := theme.PhaseColor(string(s.Phase), kind)

	clock := lipgloss.NewStyle().Foreground(accent).Bold(true).Render(timerdomain.FormatClock(s.RemainingSeconds))
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(headline(s)) + "\n\n")
	sb.WriteString(clock + "\n\n")
	if s.ActiveSession != nil && s.ActiveSession.PlannedDurationSeconds > 0 {
		total := float64(s.ActiveSession.DurationMinutes * 60)
		done := 1 - float64(s.RemainingSeconds)/total
		m.progress.FullColor = string(accent)
		sb.WriteString(m.progress.ViewAs(clamp(done)) + "\n\n")
	}
	autoStart := "off"
	if s.AutoStartEnabled {
		autoStart = "on"
	}
	sb.WriteString(theme.Muted.Render(fmt.Sprintf("auto-start: %s   last project: %s", autoStart, orDash(s.LastProject))) + "\n\n")
	sb.WriteString(theme.Muted.Render(keyHelp(s.Phase)))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, theme.Pane.Render(sb.String()))
}

func headline(s timerdto.Status) string {
	if s.ActiveSession == nil {
		return "Ready"
	}
	label := "Work"
	if s.ActiveSession.Kind == timerdomain.KindBreak {
		label = "Break"
	}
	if s.ActiveSession.Project != "" {
		label += " · " + s.ActiveSession.Project
	}
	if s.Phase == timerdomain.PhasePaused {
		label += " (paused)"
	}
	return label
}

func keyHelp(phase timerdomain.Phase) string {
	switch phase {
	case timerdomain.PhaseRunning:
		return "space: pause  r: reset  a: auto-start"
	case timerdomain.PhasePaused:
		return "space: resume  r: reset  a: auto-start"
	}
	return "w: work  b: break  a: auto-start  :: palette"
}

func clamp(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	alertin "pomodoro/internal/modules/alert/adapter/in"
	completionservice "pomodoro/internal/modules/completion/service"
	historyin "pomodoro/internal/modules/history/adapter/in"
	historydomain "pomodoro/internal/modules/history/domain"
	historydto "pomodoro/internal/modules/history/dto"
	settingsin "pomodoro/internal/modules/settings/adapter/in"
	settingsdto "pomodoro/internal/modules/settings/dto"
	settingsservice "pomodoro/internal/modules/settings/service"
	timerin "pomodoro/internal/modules/timer/adapter/in"
	timerdto "pomodoro/internal/modules/timer/dto"
	timerservice "pomodoro/internal/modules/timer/service"
	timerusecase "pomodoro/internal/modules/timer/usecase"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/ui/components"
	"pomodoro/internal/ui/theme"
	historyview "pomodoro/internal/ui/views/history"
	statsview "pomodoro/internal/ui/views/stats"
	timerview "pomodoro/internal/ui/views/timer"
)

const defaultPoll = time.Second

// Client runs one action against the core. *bus.Bus satisfies it in-process.
type Client interface {
	Call(ctx context.Context, action string, params, out any) error
}

// eventSource is optional; without it the model relies on polling alone.
type eventSource interface {
	Subscribe(buffer int) (string, <-chan bus.Event)
	Unsubscribe(id string)
}

type tabID int

const (
	tabTimer tabID = iota
	tabHistory
	tabStats
	tabCount
)

var tabLabels = [tabCount]string{"Timer", "History", "Stats"}

type statusMsg struct {
	status timerdto.Status
	err    error
}

type settingsMsg struct {
	view settingsdto.View
	err  error
}

type pollMsg struct{}

type eventMsg struct{ event bus.Event }

type eventsClosedMsg struct{}

// actionDoneMsg reports a command outcome; refresh asks for a status refetch.
type actionDoneMsg struct {
	label   string
	err     error
	refresh bool
	reload  bool
}

type keyMap struct {
	Work      key.Binding
	Break     key.Binding
	Toggle    key.Binding
	Reset     key.Binding
	AutoStart key.Binding
	Tab       key.Binding
	Help      key.Binding
	Palette   key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Work:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "start work")),
		Break:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "start break")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Reset:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		AutoStart: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle auto-start")),
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Work, k.Break, k.Toggle, k.Reset},
		{k.AutoStart, k.Tab},
		{k.Help, k.Palette, k.Quit},
	}
}

// Model is the root Bubble Tea model. It owns tab routing, the status poll,
// the help overlay and the command palette. Every mutation goes through the
// client; sub-views only render.
type Model struct {
	ctx    context.Context
	client Client
	poll   time.Duration

	events  eventSource
	subID   string
	eventCh <-chan bus.Event
	polling bool

	timerView   timerview.Model
	historyView historyview.Model
	statsView   statsview.Model

	settings  settingsdto.View
	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(ctx context.Context, client Client, poll time.Duration) Model {
	if poll <= 0 {
		poll = defaultPoll
	}
	m := Model{
		ctx:         ctx,
		client:      client,
		poll:        poll,
		timerView:   timerview.New(),
		historyView: historyview.New(historyPort{client: client, ctx: ctx}),
		statsView:   statsview.New(statsPort{client: client, ctx: ctx}),
		activeTab:   tabTimer,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
	if src, ok := client.(eventSource); ok {
		m.events = src
		m.subID, m.eventCh = src.Subscribe(32)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchStatus(),
		m.fetchSettings(),
		m.historyView.Init(),
		m.statsView.Init(),
		m.waitEvent(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case statusMsg:
		if msg.err != nil {
			// The core may be briefly unreachable; the next poll retries.
			m.status = "status: " + msg.err.Error()
		} else {
			m.timerView = m.timerView.SetStatus(msg.status)
			m.settings.AutoStartEnabled = msg.status.AutoStartEnabled
			m.settings.LastProject = msg.status.LastProject
		}
		if m.timerView.Status().IsRunning() && !m.polling {
			m.polling = true
			cmds = append(cmds, m.schedulePoll())
		}
		return m, tea.Batch(cmds...)

	case pollMsg:
		m.polling = false
		return m, m.fetchStatus()

	case settingsMsg:
		if msg.err != nil {
			m.status = "settings: " + msg.err.Error()
		} else {
			m.settings = msg.view
		}
		return m, nil

	case eventMsg:
		cmds = append(cmds, m.waitEvent())
		switch msg.event.Name {
		case timerservice.EventTick, timerusecase.EventAutoStartChanged:
			cmds = append(cmds, m.fetchStatus())
		case settingsservice.EventSettingsChanged:
			cmds = append(cmds, m.fetchStatus(), m.fetchSettings())
		case completionservice.EventSessionCompleted:
			m.status = "session completed"
			cmds = append(cmds, m.fetchStatus(), m.historyView.Reload(), m.statsView.Reload())
		case historyin.EventHistoryChanged:
			cmds = append(cmds, m.historyView.Reload(), m.statsView.Reload())
		}
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		m.eventCh = nil
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.label + " failed: " + msg.err.Error()
		} else {
			m.status = msg.label
		}
		if msg.refresh {
			cmds = append(cmds, m.fetchStatus())
		}
		if msg.reload {
			cmds = append(cmds, m.historyView.Reload(), m.statsView.Reload())
		}
		return m, tea.Batch(cmds...)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case historyview.LoadedMsg:
		var cmd tea.Cmd
		m.historyView, cmd = m.historyView.Update(msg)
		return m, cmd

	case statsview.LoadedMsg:
		var cmd tea.Cmd
		m.statsView, cmd = m.statsView.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabHistory && m.historyView.Filtering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.unsubscribe()
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "w":
			if m.settings.LastProject == "" {
				m.status = "no recent project, use :work <project>"
				return m, nil
			}
			return m, m.startCmd("work", m.settings.LastProject, m.settings.WorkMinutes)
		case "b":
			return m, m.startCmd("break", "", m.settings.BreakMinutes)
		case " ":
			if m.timerView.Status().IsRunning() {
				return m, m.actionCmd("paused", timerin.ActionPause, nil, true, false)
			}
			return m, m.actionCmd("resumed", timerin.ActionResume, nil, true, false)
		case "r":
			return m, m.actionCmd("reset", timerin.ActionReset, nil, true, false)
		case "a":
			return m, m.setAutoStartCmd(!m.timerView.Status().AutoStartEnabled)
		case "x":
			if m.activeTab == tabHistory {
				if id, ok := m.historyView.SelectedID(); ok {
					return m, m.actionCmd("session deleted", historyin.ActionDeleteSession, map[string]string{"id": id}, false, true)
				}
			}
		case "R", "M", "D":
			if m.activeTab == tabStats {
				if name, ok := m.statsView.SelectedProject(); ok {
					verb := map[string]string{"R": "rename", "M": "merge", "D": "delete-project"}[msg.String()]
					return m, m.palette.OpenWith(verb + " " + name + " ")
				}
			}
		case "f":
			if m.activeTab == tabHistory {
				filter := m.historyView.Filter()
				filter.Period = nextPeriod(filter.Period)
				return m, m.historyView.SetFilter(filter)
			}
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabTimer:
		m.timerView, tabCmd = m.timerView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	case tabStats:
		m.statsView, tabCmd = m.statsView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(1, m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar))

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabTimer:
		return m.timerView.View()
	case tabHistory:
		return m.historyView.View()
	case tabStats:
		return m.statsView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "pomodoro  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	status := m.timerView.Status()
	if status.Badge.Text != "" {
		badge := lipgloss.NewStyle().Foreground(lipgloss.Color(status.Badge.Color)).Bold(true)
		left = badge.Render("● "+status.Badge.Text) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "work":
		if len(parts) < 2 {
			m.status = "usage: work <project> [minutes]"
			return m, nil
		}
		minutes, project, ok := trailingMinutes(parts[1:], m.settings.WorkMinutes)
		if !ok {
			m.status = "invalid minutes"
			return m, nil
		}
		return m, m.startCmd("work", project, minutes)

	case "break":
		minutes := m.settings.BreakMinutes
		if len(parts) >= 2 {
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				m.status = "invalid minutes"
				return m, nil
			}
			minutes = n
		}
		return m, m.startCmd("break", "", minutes)

	case "pause":
		return m, m.actionCmd("paused", timerin.ActionPause, nil, true, false)
	case "resume":
		return m, m.actionCmd("resumed", timerin.ActionResume, nil, true, false)
	case "reset":
		return m, m.actionCmd("reset", timerin.ActionReset, nil, true, false)

	case "autostart":
		if len(parts) < 2 || (parts[1] != "on" && parts[1] != "off") {
			m.status = "usage: autostart <on|off>"
			return m, nil
		}
		return m, m.setAutoStartCmd(parts[1] == "on")

	case "filter":
		filter := historydomain.Filter{Period: historydomain.PeriodAll}
		if len(parts) >= 2 {
			filter.Period = historydomain.Period(parts[1])
			if !filter.Period.Valid() {
				m.status = "usage: filter <all|today|week|month> [project]"
				return m, nil
			}
		}
		if len(parts) >= 3 {
			filter.Project = strings.Join(parts[2:], " ")
		}
		m.activeTab = tabHistory
		return m, m.historyView.SetFilter(filter)

	case "rename", "merge":
		if len(parts) != 3 {
			m.status = "usage: " + parts[0] + " <from> <to>"
			return m, nil
		}
		action := historyin.ActionRenameProject
		if parts[0] == "merge" {
			action = historyin.ActionMergeProjects
		}
		return m, m.actionCmd(parts[0]+" done", action, historydto.RenameInput{From: parts[1], To: parts[2]}, false, true)

	case "delete-project":
		if len(parts) < 2 {
			m.status = "usage: delete-project <name>"
			return m, nil
		}
		name := strings.Join(parts[1:], " ")
		return m, m.actionCmd("project deleted", historyin.ActionDeleteProject, map[string]string{"name": name}, false, true)

	case "delete":
		if len(parts) != 2 {
			m.status = "usage: delete <session-id>"
			return m, nil
		}
		return m, m.actionCmd("session deleted", historyin.ActionDeleteSession, map[string]string{"id": parts[1]}, false, true)

	case "edit":
		if len(parts) != 3 {
			m.status = "usage: edit <session-id> <minutes>"
			return m, nil
		}
		minutes, err := strconv.Atoi(parts[2])
		if err != nil {
			m.status = "invalid minutes"
			return m, nil
		}
		input := historydto.EditInput{ID: parts[1], DurationMinutes: &minutes}
		return m, m.actionCmd("session edited", historyin.ActionEditSession, input, false, true)

	case "alert":
		kv := strings.SplitN(strings.TrimSpace(strings.TrimPrefix(input, "alert")), "=", 2)
		if len(kv) != 2 {
			m.status = "usage: alert <key>=<value>"
			return m, nil
		}
		input := settingsdto.AlertInput{Key: strings.TrimSpace(kv[0]), Value: strings.TrimSpace(kv[1])}
		return m, m.actionCmd("alert setting saved", settingsin.ActionUpdateAlertSetting, input, false, false)

	case "test-alerts":
		return m, m.actionCmd("test alert sent", alertin.ActionTestAlerts, nil, false, false)

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.timerView, _ = m.timerView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.statsView, _ = m.statsView.Update(sz)
}

func (m *Model) unsubscribe() {
	if m.events != nil && m.subID != "" {
		m.events.Unsubscribe(m.subID)
		m.subID = ""
	}
}

func (m Model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		var status timerdto.Status
		err := m.client.Call(m.ctx, timerin.ActionGetStatus, nil, &status)
		return statusMsg{status: status, err: err}
	}
}

func (m Model) fetchSettings() tea.Cmd {
	return func() tea.Msg {
		var view settingsdto.View
		err := m.client.Call(m.ctx, settingsin.ActionGetSettings, nil, &view)
		return settingsMsg{view: view, err: err}
	}
}

func (m Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.poll, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m Model) waitEvent() tea.Cmd {
	ch := m.eventCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

func (m Model) startCmd(kind, project string, minutes int) tea.Cmd {
	input := timerdto.StartInput{Type: kind, Project: project, Duration: minutes}
	label := fmt.Sprintf("%s started (%d min)", kind, minutes)
	return m.actionCmd(label, timerin.ActionStart, input, true, false)
}

func (m Model) setAutoStartCmd(enabled bool) tea.Cmd {
	label := "auto-start off"
	if enabled {
		label = "auto-start on"
	}
	return m.actionCmd(label, timerin.ActionSetAutoStart, timerdto.AutoStartInput{Enabled: enabled}, true, false)
}

func (m Model) actionCmd(label, action string, params any, refresh, reload bool) tea.Cmd {
	return func() tea.Msg {
		err := m.client.Call(m.ctx, action, params, nil)
		return actionDoneMsg{label: label, err: err, refresh: refresh, reload: reload}
	}
}

// trailingMinutes splits "<project words> [minutes]".
func trailingMinutes(args []string, fallback int) (int, string, bool) {
	last := args[len(args)-1]
	if n, err := strconv.Atoi(last); err == nil {
		if len(args) == 1 {
			return 0, "", false
		}
		return n, strings.Join(args[:len(args)-1], " "), true
	}
	return fallback, strings.Join(args, " "), true
}

func nextPeriod(p historydomain.Period) historydomain.Period {
	order := []historydomain.Period{historydomain.PeriodAll, historydomain.PeriodToday, historydomain.PeriodWeek, historydomain.PeriodMonth}
	for i, candidate := range order {
		if candidate == p {
			return order[(i+1)%len(order)]
		}
	}
	return historydomain.PeriodAll
}

type historyPort struct {
	client Client
	ctx    context.Context
}

func (p historyPort) History(_ context.Context, filter historydomain.Filter) (historydto.HistoryView, error) {
	var view historydto.HistoryView
	err := p.client.Call(p.ctx, historyin.ActionHistory, filter, &view)
	return view, err
}

type statsPort struct {
	client Client
	ctx    context.Context
}

func (p statsPort) Stats(_ context.Context) (historydto.StatsView, error) {
	var view historydto.StatsView
	err := p.client.Call(p.ctx, historyin.ActionStats, nil, &view)
	return view, err
}

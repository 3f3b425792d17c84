package dto

import (
	"time"

	"pomodoro/internal/modules/history/domain"
)

type RecordInput struct {
	Kind            domain.Kind
	Project         string
	DurationMinutes int
	// CompletedAt is when the session ran out; zero or future means now.
	CompletedAt     time.Time
}

// EditInput patches a completed record; nil fields are left unchanged.
type EditInput struct {
	ID              string  `json:"id"`
	Project         *string `json:"project,omitempty"`
	DurationMinutes *int    `json:"duration,omitempty"`
}

type RenameInput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type HistoryView struct {
	Filter   domain.Filter           `json:"filter"`
	Total    int                     `json:"total"`
	Days     []domain.DayGroup       `json:"days"`
	Projects []domain.ProjectSummary `json:"projects"`
}

type StatsView struct {
	Projects map[string]domain.ProjectStats `json:"projectStats"`
	Daily    map[string]domain.DailyStats   `json:"dailyStats"`
	Today    domain.TodaySummary            `json:"today"`
}

type ExportDocument struct {
	Sessions     []domain.SessionRecord         `json:"sessions"`
	ProjectStats map[string]domain.ProjectStats `json:"projectStats"`
	DailyStats   map[string]domain.DailyStats   `json:"dailyStats"`
	ExportDate   time.Time                      `json:"exportDate"`
	Version      string                         `json:"version"`
}

type ExportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

type ImportResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type ProjectChange struct {
	Project  string `json:"project"`
	Affected int    `json:"affected"`
}

// Query is the wire form of a history filter.
type Query struct {
	Project string `json:"project,omitempty"`
	Period  string `json:"period,omitempty"`
	Type    string `json:"type,omitempty"`
}

func (q Query) Filter() domain.Filter {
	return domain.Filter{Project: q.Project, Period: domain.Period(q.Period), Kind: domain.Kind(q.Type)}
}

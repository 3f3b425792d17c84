package domain

import (
	"math"
	"time"
)

type Kind string

const (
	KindWork  Kind = "work"
	KindBreak Kind = "break"
)

func (k Kind) Valid() bool { return k == KindWork || k == KindBreak }

// NoProject is stored for sessions completed without a project.
const NoProject = "Sin proyecto"

// DefaultLegacyMinutes is assumed for repaired records that carry no duration.
const DefaultLegacyMinutes = 25

const isoLayout = "2006-01-02"

// SessionRecord is one completed session. Calendar fields are derived once
// from CompletedAt when the record is written.
type SessionRecord struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"type"`
	Project         string    `json:"project"`
	DurationMinutes int       `json:"duration"`
	CompletedAt     time.Time `json:"completedAt"`
	ISODate         string    `json:"isoDate"`
	Weekday         string    `json:"dayOfWeek"`
	Month           string    `json:"month"`
	Year            int       `json:"year"`
	WeekNumber      int       `json:"weekNumber"`
}

// HasProject reports whether the record counts towards project statistics.
func (r SessionRecord) HasProject() bool {
	return r.Project != "" && r.Project != NoProject
}

func NewRecord(id string, kind Kind, project string, minutes int, completedAt time.Time, loc Locale) SessionRecord {
	if project == "" {
		project = NoProject
	}
	rec := SessionRecord{
		ID:              id,
		Kind:            kind,
		Project:         project,
		DurationMinutes: minutes,
		CompletedAt:     completedAt,
	}
	rec.fillCalendar(loc)
	return rec
}

func (r *SessionRecord) fillCalendar(loc Locale) {
	t := r.CompletedAt
	r.ISODate = t.Format(isoLayout)
	r.Weekday = loc.WeekdayName(t.Weekday())
	r.Month = loc.MonthName(t.Month())
	r.Year = t.Year()
	r.WeekNumber = WeekNumber(t)
}

// WeekNumber counts weeks from January 1st, with the first partial week as 1.
func WeekNumber(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	pastDays := t.Sub(jan1).Hours() / 24
	return int(math.Ceil((pastDays + float64(jan1.Weekday()) + 1) / 7))
}

// ISODate formats t the way records key their day.
func ISODate(t time.Time) string {
	return t.Format(isoLayout)
}

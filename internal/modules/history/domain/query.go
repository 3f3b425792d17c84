package domain

import (
	"fmt"
	"sort"
	"time"
)

type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodAll, PeriodToday, PeriodWeek, PeriodMonth, "":
		return true
	}
	return false
}

// Filter selects records. Empty fields match everything.
type Filter struct {
	Project string `json:"project,omitempty"`
	Period  Period `json:"period,omitempty"`
	Kind    Kind   `json:"type,omitempty"`
}

// Apply returns the matching records in log order.
func (f Filter) Apply(sessions []SessionRecord, now time.Time) []SessionRecord {
	var since string
	switch f.Period {
	case PeriodToday:
		since = ISODate(now)
	case PeriodWeek:
		since = ISODate(now.Add(-7 * 24 * time.Hour))
	case PeriodMonth:
		since = ISODate(now.Add(-30 * 24 * time.Hour))
	}
	today := ISODate(now)

	out := make([]SessionRecord, 0, len(sessions))
	for _, rec := range sessions {
		if f.Project != "" && rec.Project != f.Project {
			continue
		}
		if f.Kind != "" && rec.Kind != f.Kind {
			continue
		}
		if f.Period == PeriodToday && rec.ISODate != today {
			continue
		}
		if since != "" && rec.ISODate < since {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// DayGroup is one ISO day of history, newest records first.
type DayGroup struct {
	Date     string          `json:"date"`
	Sessions []SessionRecord `json:"sessions"`
}

// GroupByDay orders records newest first and groups them by ISO date.
func GroupByDay(sessions []SessionRecord) []DayGroup {
	sorted := append([]SessionRecord(nil), sessions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})
	var groups []DayGroup
	for _, rec := range sorted {
		if n := len(groups); n > 0 && groups[n-1].Date == rec.ISODate {
			groups[n-1].Sessions = append(groups[n-1].Sessions, rec)
			continue
		}
		groups = append(groups, DayGroup{Date: rec.ISODate, Sessions: []SessionRecord{rec}})
	}
	return groups
}

// ProjectSummary is a per-project rollup of an already filtered set.
type ProjectSummary struct {
	Name           string `json:"name"`
	Sessions       int    `json:"sessions"`
	TotalMinutes   int    `json:"totalTime"`
	AverageMinutes int    `json:"avgSession"`
}

// SummarizeProjects rolls up work records by project, largest total first.
func SummarizeProjects(sessions []SessionRecord) []ProjectSummary {
	byName := map[string]*ProjectSummary{}
	for _, rec := range sessions {
		if rec.Kind != KindWork || rec.Project == "" {
			continue
		}
		s, ok := byName[rec.Project]
		if !ok {
			s = &ProjectSummary{Name: rec.Project}
			byName[rec.Project] = s
		}
		s.Sessions++
		s.TotalMinutes += rec.DurationMinutes
	}
	out := make([]ProjectSummary, 0, len(byName))
	for _, s := range byName {
		s.AverageMinutes = roundDiv(s.TotalMinutes, s.Sessions)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalMinutes != out[j].TotalMinutes {
			return out[i].TotalMinutes > out[j].TotalMinutes
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TodaySummary counts the work done on the current day.
type TodaySummary struct {
	Date             string `json:"date"`
	WorkSessions     int    `json:"workSessions"`
	TotalWorkMinutes int    `json:"totalWorkTime"`
	Formatted        string `json:"formatted"`
}

func SummarizeToday(sessions []SessionRecord, now time.Time) TodaySummary {
	summary := TodaySummary{Date: ISODate(now)}
	for _, rec := range sessions {
		if rec.ISODate == summary.Date && rec.Kind == KindWork {
			summary.WorkSessions++
			summary.TotalWorkMinutes += rec.DurationMinutes
		}
	}
	summary.Formatted = FormatDuration(summary.TotalWorkMinutes)
	return summary
}

// ProjectFilter lists every distinct project present in the log.
func ProjectFilter(sessions []SessionRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, rec := range sessions {
		if rec.Project == "" {
			continue
		}
		if _, ok := seen[rec.Project]; ok {
			continue
		}
		seen[rec.Project] = struct{}{}
		out = append(out, rec.Project)
	}
	return out
}

// ManagedProjects lists the user's real projects, sorted.
func ManagedProjects(sessions []SessionRecord) []string {
	var out []string
	for _, name := range ProjectFilter(sessions) {
		if name != NoProject {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// FormatDuration renders minutes as "45m", "2h" or "1h 5m".
func FormatDuration(minutes int) string {
	hours, mins := minutes/60, minutes%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
}

func roundDiv(total, n int) int {
	if n == 0 {
		return 0
	}
	return int(float64(total)/float64(n) + 0.5)
}

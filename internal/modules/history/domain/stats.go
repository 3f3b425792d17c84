package domain

import (
	"math"
	"sort"
	"time"
)

type ProjectStats struct {
	Name                  string `json:"name"`
	TotalMinutes          int    `json:"totalTime"`
	SessionsCompleted     int    `json:"sessionsCompleted"`
	AverageSessionMinutes int    `json:"averageSession"`
	FirstSessionDate      string `json:"firstSession"`
	LastSessionDate       string `json:"lastSession"`
	CurrentStreakDays     int    `json:"streak"`
	BestStreakDays        int    `json:"bestStreak"`
}

type DailyStats struct {
	Date              string   `json:"date"`
	WorkSessions      int      `json:"workSessions"`
	BreakSessions     int      `json:"breakSessions"`
	TotalWorkMinutes  int      `json:"totalWorkTime"`
	TotalBreakMinutes int      `json:"totalBreakTime"`
	Projects          []string `json:"projects"`
}

// Snapshot is the whole session log with its derived aggregates.
type Snapshot struct {
	Sessions []SessionRecord        `json:"sessions"`
	Projects map[string]ProjectStats `json:"projectStats"`
	Daily    map[string]DailyStats   `json:"dailyStats"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{
		Sessions: []SessionRecord{},
		Projects: map[string]ProjectStats{},
		Daily:    map[string]DailyStats{},
	}
}

// Rebuild derives every aggregate from the log alone.
func Rebuild(sessions []SessionRecord, today string) Snapshot {
	snap := EmptySnapshot()
	snap.Sessions = append(snap.Sessions, sessions...)
	for _, rec := range sessions {
		snap.Daily[rec.ISODate] = addToDay(snap.Daily[rec.ISODate], rec)
		if rec.Kind == KindWork && rec.HasProject() {
			snap.Projects[rec.Project] = addToProject(snap.Projects[rec.Project], rec)
		}
	}
	snap.RefreshStreaks(today)
	return snap
}

// Append adds rec to the log and updates the aggregates against today. It
// returns the day and project rows rec touched, the ones a store writes.
// Afterwards the snapshot equals Rebuild over the extended log.
func (s *Snapshot) Append(rec SessionRecord, today string) (day DailyStats, project *ProjectStats) {
	if s.Projects == nil {
		s.Projects = map[string]ProjectStats{}
	}
	if s.Daily == nil {
		s.Daily = map[string]DailyStats{}
	}
	s.Sessions = append(s.Sessions, rec)

	day = addToDay(s.Daily[rec.ISODate], rec)
	s.Daily[rec.ISODate] = day

	counted := rec.Kind == KindWork && rec.HasProject()
	if counted {
		s.Projects[rec.Project] = addToProject(s.Projects[rec.Project], rec)
	}
	s.RefreshStreaks(today)
	if counted {
		stats := s.Projects[rec.Project]
		project = &stats
	}
	return day, project
}

// RefreshStreaks recomputes both streaks of every project against today.
// A stored current streak is only valid on the day it was written.
func (s *Snapshot) RefreshStreaks(today string) {
	for name, stats := range s.Projects {
		stats.CurrentStreakDays, stats.BestStreakDays = ComputeStreaks(projectDates(s.Sessions, name), today)
		s.Projects[name] = stats
	}
}

func addToDay(day DailyStats, rec SessionRecord) DailyStats {
	day.Date = rec.ISODate
	if day.Projects == nil {
		day.Projects = []string{}
	}
	switch rec.Kind {
	case KindWork:
		day.WorkSessions++
		day.TotalWorkMinutes += rec.DurationMinutes
		if rec.HasProject() && !contains(day.Projects, rec.Project) {
			day.Projects = append(append([]string(nil), day.Projects...), rec.Project)
			sort.Strings(day.Projects)
		}
	default:
		day.BreakSessions++
		day.TotalBreakMinutes += rec.DurationMinutes
	}
	return day
}

func addToProject(stats ProjectStats, rec SessionRecord) ProjectStats {
	if stats.SessionsCompleted == 0 {
		stats.Name = rec.Project
		stats.FirstSessionDate = rec.ISODate
		stats.LastSessionDate = rec.ISODate
	}
	stats.TotalMinutes += rec.DurationMinutes
	stats.SessionsCompleted++
	stats.AverageSessionMinutes = int(math.Round(float64(stats.TotalMinutes) / float64(stats.SessionsCompleted)))
	if rec.ISODate < stats.FirstSessionDate {
		stats.FirstSessionDate = rec.ISODate
	}
	if rec.ISODate > stats.LastSessionDate {
		stats.LastSessionDate = rec.ISODate
	}
	return stats
}

func projectDates(sessions []SessionRecord, project string) []string {
	var dates []string
	for _, rec := range sessions {
		if rec.Kind == KindWork && rec.Project == project {
			dates = append(dates, rec.ISODate)
		}
	}
	return dates
}

// ComputeStreaks scans the distinct dates in ascending order. best is the
// longest run of consecutive days; current is the run ending exactly on
// today, or 0 when today has no session.
func ComputeStreaks(dates []string, today string) (current, best int) {
	days := distinctDays(dates)
	if len(days) == 0 {
		return 0, 0
	}
	run := 1
	best = 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		best = max(best, run)
		if ISODate(days[i]) == today {
			current = run
		}
	}
	if ISODate(days[0]) == today {
		current = 1
	}
	return current, best
}

func distinctDays(dates []string) []time.Time {
	seen := make(map[string]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		t, err := time.Parse(isoLayout, d)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}

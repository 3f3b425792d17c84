package domain

import (
	"reflect"
	"testing"
	"time"
)

func workOn(id, project, date string, minutes int) SessionRecord {
	t, _ := time.Parse("2006-01-02 15:04", date+" 10:00")
	return NewRecord(id, KindWork, project, minutes, t, DefaultLocale())
}

func TestComputeStreaks_GapResetsRun(t *testing.T) {
	t.Parallel()
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-05"}

	current, best := ComputeStreaks(dates, "2024-01-05")
	if best != 3 {
		t.Fatalf("expected best streak 3, got %d", best)
	}
	if current != 1 {
		t.Fatalf("expected current streak 1, got %d", current)
	}
}

func TestComputeStreaks_TodayMissing(t *testing.T) {
	t.Parallel()
	current, best := ComputeStreaks([]string{"2024-01-01", "2024-01-02"}, "2024-01-04")
	if current != 0 || best != 2 {
		t.Fatalf("unexpected streaks current=%d best=%d", current, best)
	}
}

func TestComputeStreaks_DuplicatesAndUnsorted(t *testing.T) {
	t.Parallel()
	dates := []string{"2024-01-03", "2024-01-01", "2024-01-02", "2024-01-02", "2024-01-03"}
	current, best := ComputeStreaks(dates, "2024-01-03")
	if current != 3 || best != 3 {
		t.Fatalf("unexpected streaks current=%d best=%d", current, best)
	}
}

func TestComputeStreaks_TodayInsideEarlierRun(t *testing.T) {
	t.Parallel()
	dates := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-10"}
	current, best := ComputeStreaks(dates, "2024-01-02")
	if current != 2 || best != 4 {
		t.Fatalf("unexpected streaks current=%d best=%d", current, best)
	}
}

func TestAppendMatchesRebuild(t *testing.T) {
	t.Parallel()
	records := []SessionRecord{
		workOn("1", "Acme", "2024-01-01", 25),
		NewRecord("2", KindBreak, "", 5, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), DefaultLocale()),
		workOn("3", "Acme", "2024-01-02", 50),
		workOn("4", "Side", "2024-01-02", 25),
		workOn("5", "Acme", "2024-01-03", 25),
	}
	today := "2024-01-03"

	incremental := EmptySnapshot()
	for _, rec := range records {
		incremental.Append(rec, today)
	}
	rebuilt := Rebuild(records, today)

	if !reflect.DeepEqual(incremental, rebuilt) {
		t.Fatalf("incremental aggregates drifted:\n%+v\n%+v", incremental, rebuilt)
	}
	acme := rebuilt.Projects["Acme"]
	if acme.TotalMinutes != 100 || acme.SessionsCompleted != 3 || acme.AverageSessionMinutes != 33 {
		t.Fatalf("unexpected Acme stats %+v", acme)
	}
	if acme.CurrentStreakDays != 3 || acme.BestStreakDays != 3 {
		t.Fatalf("unexpected Acme streaks %+v", acme)
	}
	if _, ok := rebuilt.Projects[NoProject]; ok {
		t.Fatalf("break without project must not create project stats")
	}
	day := rebuilt.Daily["2024-01-01"]
	if day.WorkSessions != 1 || day.BreakSessions != 1 || day.TotalBreakMinutes != 5 {
		t.Fatalf("unexpected day stats %+v", day)
	}
	if got := rebuilt.Daily["2024-01-02"].Projects; !reflect.DeepEqual(got, []string{"Acme", "Side"}) {
		t.Fatalf("unexpected projects touched %v", got)
	}
}

func TestDailyProjectsAreUnique(t *testing.T) {
	t.Parallel()
	snap := Rebuild([]SessionRecord{
		workOn("1", "Acme", "2024-01-01", 25),
		workOn("2", "Acme", "2024-01-01", 25),
	}, "2024-01-01")
	if got := snap.Daily["2024-01-01"].Projects; len(got) != 1 {
		t.Fatalf("expected one project, got %v", got)
	}
}

func TestWeekNumber(t *testing.T) {
	t.Parallel()
	cases := map[string]int{
		"2024-01-01": 1,
		"2024-01-07": 2,
		"2024-03-01": 9,
	}
	for date, want := range cases {
		d, _ := time.Parse("2006-01-02 15:04", date+" 12:00")
		if got := WeekNumber(d); got != want {
			t.Fatalf("WeekNumber(%s)=%d want %d", date, got, want)
		}
	}
}

func TestNewRecordCalendarFields(t *testing.T) {
	t.Parallel()
	rec := NewRecord("x", KindWork, "Acme", 25, time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC), DefaultLocale())
	if rec.ISODate != "2024-03-01" || rec.Weekday != "Friday" || rec.Month != "March" || rec.Year != 2024 {
		t.Fatalf("unexpected calendar fields %+v", rec)
	}
	brk := NewRecord("y", KindBreak, "", 5, time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC), DefaultLocale())
	if brk.Project != NoProject {
		t.Fatalf("break should default to the no-project sentinel, got %q", brk.Project)
	}
}

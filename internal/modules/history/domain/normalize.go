package domain

import "time"

// Normalize repairs records written by older versions: missing ids, missing
// calendar fields, empty projects and zero durations. It reports whether any
// record changed.
func Normalize(sessions []SessionRecord, now time.Time, newID func() string, loc Locale, tz *time.Location) ([]SessionRecord, bool) {
	changed := false
	out := make([]SessionRecord, len(sessions))
	for i, rec := range sessions {
		if rec.ID == "" {
			rec.ID = newID()
			changed = true
		}
		if rec.Project == "" {
			rec.Project = NoProject
			changed = true
		}
		if rec.DurationMinutes <= 0 {
			rec.DurationMinutes = DefaultLegacyMinutes
			changed = true
		}
		if !rec.Kind.Valid() {
			rec.Kind = KindWork
			changed = true
		}
		if rec.ISODate == "" || rec.Weekday == "" || rec.Month == "" {
			if rec.CompletedAt.IsZero() {
				rec.CompletedAt = now
			}
			rec.CompletedAt = rec.CompletedAt.In(tz)
			rec.fillCalendar(loc)
			changed = true
		}
		out[i] = rec
	}
	return out, changed
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"pomodoro/internal/modules/history/domain"
	"pomodoro/internal/modules/history/dto"
	apperrors "pomodoro/internal/platform/errors"
)

// legacyRecord accepts both our own export format and the older layout
// where ids and completion times were epoch milliseconds.
type legacyRecord struct {
	ID          json.RawMessage `json:"id"`
	Type        string          `json:"type"`
	Project     string          `json:"project"`
	Duration    float64         `json:"duration"`
	CompletedAt json.RawMessage `json:"completedAt"`
	Date        string          `json:"date"`
	ISODate     string          `json:"isoDate"`
	DayOfWeek   string          `json:"dayOfWeek"`
	Month       string          `json:"month"`
	Year        int             `json:"year"`
	WeekNumber  int             `json:"weekNumber"`
}

// Import merges records from an export document or a bare array into the
// log. Records whose id already exists are skipped.
func (l *Log) Import(ctx context.Context, data []byte) (dto.ImportResult, error) {
	incoming, err := decodeLegacy(data)
	if err != nil {
		return dto.ImportResult{}, err
	}
	var result dto.ImportResult
	err = l.rewrite(ctx, func(sessions []domain.SessionRecord) ([]domain.SessionRecord, error) {
		known := make(map[string]struct{}, len(sessions))
		for _, rec := range sessions {
			known[rec.ID] = struct{}{}
		}
		repaired, _ := domain.Normalize(incoming, l.now(), l.ids.New, l.locale, l.tz)
		for _, rec := range repaired {
			if _, ok := known[rec.ID]; ok {
				result.Skipped++
				continue
			}
			known[rec.ID] = struct{}{}
			sessions = append(sessions, rec)
			result.Added++
		}
		return sessions, nil
	})
	return result, err
}

func decodeLegacy(data []byte) ([]domain.SessionRecord, error) {
	data = bytes.TrimSpace(data)
	var raw []legacyRecord
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, apperrors.Invalid("import", err.Error())
		}
	} else {
		var doc struct {
			Sessions []legacyRecord `json:"sessions"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, apperrors.Invalid("import", err.Error())
		}
		raw = doc.Sessions
	}

	out := make([]domain.SessionRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, domain.SessionRecord{
			ID:              rawString(r.ID),
			Kind:            domain.Kind(r.Type),
			Project:         r.Project,
			DurationMinutes: int(r.Duration),
			CompletedAt:     legacyTime(r.CompletedAt, r.Date),
			ISODate:         r.ISODate,
			Weekday:         r.DayOfWeek,
			Month:           r.Month,
			Year:            r.Year,
			WeekNumber:      r.WeekNumber,
		})
	}
	return out, nil
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func legacyTime(raw json.RawMessage, date string) time.Time {
	if v := rawString(raw); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.UnixMilli(ms)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return time.UnixMilli(int64(f))
		}
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	if date != "" {
		if t, err := time.ParseInLocation("Mon Jan 02 2006", date, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pomodoro/internal/modules/history/domain"
	"pomodoro/internal/modules/history/dto"
)

const exportVersion = "1.0"

func (l *Log) ExportJSON(ctx context.Context) (dto.ExportFile, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return dto.ExportFile{}, err
	}
	now := l.now()
	doc := dto.ExportDocument{
		Sessions:     snap.Sessions,
		ProjectStats: snap.Projects,
		DailyStats:   snap.Daily,
		ExportDate:   now,
		Version:      exportVersion,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return dto.ExportFile{}, fmt.Errorf("encode export: %w", err)
	}
	return dto.ExportFile{
		Filename:    "pomodoro-data-" + domain.ISODate(now) + ".json",
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// ExportCSV writes one row per record with every field double-quoted.
func (l *Log) ExportCSV(ctx context.Context) (dto.ExportFile, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return dto.ExportFile{}, err
	}
	var b strings.Builder
	writeCSVRow(&b, l.locale.CSVHeader)
	for _, rec := range snap.Sessions {
		b.WriteByte('\n')
		writeCSVRow(&b, l.csvFields(rec))
	}
	return dto.ExportFile{
		Filename:    "pomodoro-sessions-" + domain.ISODate(l.now()) + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte(b.String()),
	}, nil
}

func (l *Log) csvFields(rec domain.SessionRecord) []string {
	project := rec.Project
	if project == "" {
		project = domain.NoProject
	}
	return []string{
		rec.ISODate,
		rec.CompletedAt.In(l.tz).Format("15:04:05"),
		l.locale.KindLabel(rec.Kind),
		project,
		strconv.Itoa(rec.DurationMinutes),
		rec.Weekday,
		rec.Month,
		strconv.Itoa(rec.Year),
	}
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
}

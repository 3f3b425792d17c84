package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomodoro/internal/modules/history/domain"
	"pomodoro/internal/modules/history/dto"
	historyin "pomodoro/internal/modules/history/port/in"
	historyout "pomodoro/internal/modules/history/port/out"
	"pomodoro/internal/platform/clock"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/id"
	"pomodoro/internal/platform/metrics"
)

const metricsStore = "history"

// Log is the single writer of the session log. Every mutation holds mu for
// its whole read-modify-write cycle so aggregates never interleave.
type Log struct {
	mu      sync.Mutex
	store   historyout.Store
	clock   clock.Clock
	ids     id.Generator
	locale  domain.Locale
	tz      *time.Location
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

var _ historyin.Usecase = (*Log)(nil)

func NewLog(store historyout.Store, clk clock.Clock, ids id.Generator, locale domain.Locale, tz *time.Location, logger zerolog.Logger, m *metrics.Metrics) *Log {
	if tz == nil {
		tz = time.Local
	}
	return &Log{store: store, clock: clk, ids: ids, locale: locale, tz: tz, logger: logger, metrics: m}
}

func (l *Log) now() time.Time {
	return l.clock.Now().In(l.tz)
}

func (l *Log) Record(ctx context.Context, input dto.RecordInput) (domain.SessionRecord, error) {
	if !input.Kind.Valid() {
		return domain.SessionRecord{}, apperrors.Invalid("type", fmt.Sprintf("unknown session type %q", input.Kind))
	}
	if input.DurationMinutes <= 0 {
		return domain.SessionRecord{}, apperrors.Invalid("duration", "must be a positive number of minutes")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	completedAt := now
	if !input.CompletedAt.IsZero() && input.CompletedAt.Before(now) {
		completedAt = input.CompletedAt.In(l.tz)
	}
	rec := domain.NewRecord(l.ids.New(), input.Kind, strings.TrimSpace(input.Project), input.DurationMinutes, completedAt, l.locale)
	snap, err := l.loadLocked(ctx)
	if err != nil {
		return rec, err
	}
	day, project := snap.Append(rec, domain.ISODate(now))
	if err := l.store.Append(ctx, rec, day, project); err != nil {
		return rec, l.persistenceFailed("append session", err)
	}
	l.logger.Info().Str("id", rec.ID).Str("type", string(rec.Kind)).Str("project", rec.Project).Int("minutes", rec.DurationMinutes).Msg("session recorded")
	return rec, nil
}

func (l *Log) List(ctx context.Context, filter domain.Filter) ([]domain.SessionRecord, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	snap, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(snap.Sessions, l.now()), nil
}

func (l *Log) History(ctx context.Context, filter domain.Filter) (dto.HistoryView, error) {
	sessions, err := l.List(ctx, filter)
	if err != nil {
		return dto.HistoryView{}, err
	}
	return dto.HistoryView{
		Filter:   filter,
		Total:    len(sessions),
		Days:     domain.GroupByDay(sessions),
		Projects: domain.SummarizeProjects(sessions),
	}, nil
}

func (l *Log) Stats(ctx context.Context) (dto.StatsView, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return dto.StatsView{}, err
	}
	return dto.StatsView{
		Projects: snap.Projects,
		Daily:    snap.Daily,
		Today:    domain.SummarizeToday(snap.Sessions, l.now()),
	}, nil
}

func (l *Log) Today(ctx context.Context) (domain.TodaySummary, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return domain.TodaySummary{}, err
	}
	return domain.SummarizeToday(snap.Sessions, l.now()), nil
}

func (l *Log) ProjectFilter(ctx context.Context) ([]string, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ProjectFilter(snap.Sessions), nil
}

func (l *Log) ManagedProjects(ctx context.Context) ([]string, error) {
	snap, err := l.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ManagedProjects(snap.Sessions), nil
}

func (l *Log) Edit(ctx context.Context, input dto.EditInput) (domain.SessionRecord, error) {
	if input.DurationMinutes != nil && *input.DurationMinutes <= 0 {
		return domain.SessionRecord{}, apperrors.Invalid("duration", "must be a positive number of minutes")
	}
	var edited domain.SessionRecord
	err := l.rewrite(ctx, func(sessions []domain.SessionRecord) ([]domain.SessionRecord, error) {
		for i := range sessions {
			if sessions[i].ID != input.ID {
				continue
			}
			if input.Project != nil {
				sessions[i].Project = strings.TrimSpace(*input.Project)
				if sessions[i].Project == "" {
					sessions[i].Project = domain.NoProject
				}
			}
			if input.DurationMinutes != nil {
				sessions[i].DurationMinutes = *input.DurationMinutes
			}
			edited = sessions[i]
			return sessions, nil
		}
		return nil, fmt.Errorf("session %q: %w", input.ID, apperrors.ErrNotFound)
	})
	return edited, err
}

func (l *Log) Delete(ctx context.Context, id string) error {
	return l.rewrite(ctx, func(sessions []domain.SessionRecord) ([]domain.SessionRecord, error) {
		for i := range sessions {
			if sessions[i].ID == id {
				return append(sessions[:i], sessions[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("session %q: %w", id, apperrors.ErrNotFound)
	})
}

func (l *Log) RenameProject(ctx context.Context, input dto.RenameInput) (dto.ProjectChange, error) {
	return l.reassign(ctx, input, "rename")
}

// MergeProjects moves every record of From onto To. Aggregates are rebuilt
// from the merged log, so merged streaks are exact.
func (l *Log) MergeProjects(ctx context.Context, input dto.RenameInput) (dto.ProjectChange, error) {
	return l.reassign(ctx, input, "merge")
}

func (l *Log) reassign(ctx context.Context, input dto.RenameInput, op string) (dto.ProjectChange, error) {
	from, to := strings.TrimSpace(input.From), strings.TrimSpace(input.To)
	if from == "" || to == "" {
		return dto.ProjectChange{}, apperrors.Invalid("project", "source and target names are required")
	}
	if from == to {
		return dto.ProjectChange{}, apperrors.Invalid("project", "source and target must differ")
	}
	change := dto.ProjectChange{Project: to}
	err := l.rewrite(ctx, func(sessions []domain.SessionRecord) ([]domain.SessionRecord, error) {
		for i := range sessions {
			if sessions[i].Project == from {
				sessions[i].Project = to
				change.Affected++
			}
		}
		if change.Affected == 0 {
			return nil, fmt.Errorf("project %q: %w", from, apperrors.ErrNotFound)
		}
		return sessions, nil
	})
	if err == nil {
		l.logger.Info().Str("op", op).Str("from", from).Str("to", to).Int("sessions", change.Affected).Msg("project reassigned")
	}
	return change, err
}

func (l *Log) DeleteProject(ctx context.Context, name string) (dto.ProjectChange, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return dto.ProjectChange{}, apperrors.Invalid("project", "name is required")
	}
	change := dto.ProjectChange{Project: name}
	err := l.rewrite(ctx, func(sessions []domain.SessionRecord) ([]domain.SessionRecord, error) {
		kept := sessions[:0]
		for _, rec := range sessions {
			if rec.Project == name {
				change.Affected++
				continue
			}
			kept = append(kept, rec)
		}
		if change.Affected == 0 {
			return nil, fmt.Errorf("project %q: %w", name, apperrors.ErrNotFound)
		}
		return kept, nil
	})
	return change, err
}

// rewrite applies fn to a copy of the log and stores the log together with
// aggregates rebuilt from scratch.
func (l *Log) rewrite(ctx context.Context, fn func([]domain.SessionRecord) ([]domain.SessionRecord, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap, err := l.loadLocked(ctx)
	if err != nil {
		return err
	}
	sessions, err := fn(append([]domain.SessionRecord(nil), snap.Sessions...))
	if err != nil {
		return err
	}
	next := domain.Rebuild(sessions, domain.ISODate(l.now()))
	if err := l.store.Replace(ctx, next); err != nil {
		return l.persistenceFailed("replace log", err)
	}
	return nil
}

func (l *Log) snapshot(ctx context.Context) (domain.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx)
}

// loadLocked reads the stored log and repairs legacy records, writing the
// repaired log back once. Current streaks are derived against today on every
// load.
func (l *Log) loadLocked(ctx context.Context) (domain.Snapshot, error) {
	snap, err := l.store.Load(ctx)
	if err != nil {
		return domain.EmptySnapshot(), l.persistenceFailed("load log", err)
	}
	sessions, changed := domain.Normalize(snap.Sessions, l.now(), l.ids.New, l.locale, l.tz)
	if !changed {
		snap.RefreshStreaks(domain.ISODate(l.now()))
		return snap, nil
	}
	repaired := domain.Rebuild(sessions, domain.ISODate(l.now()))
	if err := l.store.Replace(ctx, repaired); err != nil {
		l.persistenceFailed("write repaired log", err)
	} else {
		l.logger.Info().Int("sessions", len(sessions)).Msg("legacy sessions repaired")
	}
	return repaired, nil
}

func (l *Log) persistenceFailed(op string, err error) error {
	l.metrics.RecordPersistenceError(metricsStore)
	l.logger.Error().Err(err).Str("op", op).Msg("session log persistence failed")
	if errors.Is(err, apperrors.ErrPersistence) {
		return err
	}
	return apperrors.Persistence(op, err)
}

func validateFilter(f domain.Filter) error {
	if !f.Period.Valid() {
		return apperrors.Invalid("period", "must be one of all|today|week|month")
	}
	if f.Kind != "" && !f.Kind.Valid() {
		return apperrors.Invalid("type", "must be work or break")
	}
	return nil
}

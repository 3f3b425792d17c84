package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pomodoro/internal/modules/history/domain"
	historyout "pomodoro/internal/modules/history/port/out"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/tx"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the session log and both aggregate tables in one
// database; every write runs in a single transaction.
type SQLiteStore struct {
	db  *sql.DB
	txm tx.Manager
}

var _ historyout.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, txm: tx.NewSQLManager(db)}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  project TEXT NOT NULL,
  duration_minutes INTEGER NOT NULL,
  completed_at TEXT NOT NULL,
  iso_date TEXT NOT NULL,
  day_of_week TEXT NOT NULL,
  month TEXT NOT NULL,
  year INTEGER NOT NULL,
  week_number INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS project_stats (
  name TEXT PRIMARY KEY,
  total_minutes INTEGER NOT NULL,
  sessions_completed INTEGER NOT NULL,
  average_minutes INTEGER NOT NULL,
  first_session TEXT NOT NULL,
  last_session TEXT NOT NULL,
  current_streak INTEGER NOT NULL,
  best_streak INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS daily_stats (
  date TEXT PRIMARY KEY,
  work_sessions INTEGER NOT NULL,
  break_sessions INTEGER NOT NULL,
  total_work_minutes INTEGER NOT NULL,
  total_break_minutes INTEGER NOT NULL,
  projects TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create history tables: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Snapshot, error) {
	snap := domain.EmptySnapshot()
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		var err error
		if snap.Sessions, err = s.loadSessions(ctx); err != nil {
			return err
		}
		if snap.Projects, err = s.loadProjects(ctx); err != nil {
			return err
		}
		snap.Daily, err = s.loadDaily(ctx)
		return err
	})
	if err != nil {
		return domain.EmptySnapshot(), apperrors.Persistence("load history", err)
	}
	return snap, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec domain.SessionRecord, day domain.DailyStats, project *domain.ProjectStats) error {
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		if err := s.insertSession(ctx, rec); err != nil {
			return err
		}
		if err := s.upsertDaily(ctx, day); err != nil {
			return err
		}
		if project != nil {
			return s.upsertProject(ctx, *project)
		}
		return nil
	})
	return apperrors.Persistence("append session", err)
}

func (s *SQLiteStore) Replace(ctx context.Context, snap domain.Snapshot) error {
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		exec := tx.From(ctx, s.db)
		for _, table := range []string{"sessions", "project_stats", "daily_stats"} {
			if _, err := exec.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, rec := range snap.Sessions {
			if err := s.insertSession(ctx, rec); err != nil {
				return err
			}
		}
		for _, stats := range snap.Projects {
			if err := s.upsertProject(ctx, stats); err != nil {
				return err
			}
		}
		for _, day := range snap.Daily {
			if err := s.upsertDaily(ctx, day); err != nil {
				return err
			}
		}
		return nil
	})
	return apperrors.Persistence("replace history", err)
}

func (s *SQLiteStore) insertSession(ctx context.Context, rec domain.SessionRecord) error {
	const stmt = `
INSERT INTO sessions (id, type, project, duration_minutes, completed_at, iso_date, day_of_week, month, year, week_number)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := tx.From(ctx, s.db).ExecContext(ctx, stmt,
		rec.ID,
		string(rec.Kind),
		rec.Project,
		rec.DurationMinutes,
		rec.CompletedAt.Format(time.RFC3339Nano),
		rec.ISODate,
		rec.Weekday,
		rec.Month,
		rec.Year,
		rec.WeekNumber,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) upsertProject(ctx context.Context, p domain.ProjectStats) error {
	const stmt = `
INSERT INTO project_stats (name, total_minutes, sessions_completed, average_minutes, first_session, last_session, current_streak, best_streak)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
  total_minutes=excluded.total_minutes,
  sessions_completed=excluded.sessions_completed,
  average_minutes=excluded.average_minutes,
  first_session=excluded.first_session,
  last_session=excluded.last_session,
  current_streak=excluded.current_streak,
  best_streak=excluded.best_streak;
`
	_, err := tx.From(ctx, s.db).ExecContext(ctx, stmt,
		p.Name, p.TotalMinutes, p.SessionsCompleted, p.AverageSessionMinutes,
		p.FirstSessionDate, p.LastSessionDate, p.CurrentStreakDays, p.BestStreakDays,
	)
	if err != nil {
		return fmt.Errorf("upsert project stats %s: %w", p.Name, err)
	}
	return nil
}

func (s *SQLiteStore) upsertDaily(ctx context.Context, d domain.DailyStats) error {
	projects, err := json.Marshal(d.Projects)
	if err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	const stmt = `
INSERT INTO daily_stats (date, work_sessions, break_sessions, total_work_minutes, total_break_minutes, projects)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
  work_sessions=excluded.work_sessions,
  break_sessions=excluded.break_sessions,
  total_work_minutes=excluded.total_work_minutes,
  total_break_minutes=excluded.total_break_minutes,
  projects=excluded.projects;
`
	_, err = tx.From(ctx, s.db).ExecContext(ctx, stmt,
		d.Date, d.WorkSessions, d.BreakSessions, d.TotalWorkMinutes, d.TotalBreakMinutes, string(projects),
	)
	if err != nil {
		return fmt.Errorf("upsert daily stats %s: %w", d.Date, err)
	}
	return nil
}

func (s *SQLiteStore) loadSessions(ctx context.Context) ([]domain.SessionRecord, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `
SELECT id, type, project, duration_minutes, completed_at, iso_date, day_of_week, month, year, week_number
FROM sessions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.SessionRecord{}
	for rows.Next() {
		var (
			rec         domain.SessionRecord
			kind        string
			completedAt string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Project, &rec.DurationMinutes, &completedAt,
			&rec.ISODate, &rec.Weekday, &rec.Month, &rec.Year, &rec.WeekNumber); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Kind = domain.Kind(kind)
		if rec.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
			return nil, fmt.Errorf("parse completed_at for %s: %w", rec.ID, err)
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) loadProjects(ctx context.Context) (map[string]domain.ProjectStats, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `
SELECT name, total_minutes, sessions_completed, average_minutes, first_session, last_session, current_streak, best_streak
FROM project_stats`)
	if err != nil {
		return nil, fmt.Errorf("query project stats: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.ProjectStats{}
	for rows.Next() {
		var p domain.ProjectStats
		if err := rows.Scan(&p.Name, &p.TotalMinutes, &p.SessionsCompleted, &p.AverageSessionMinutes,
			&p.FirstSessionDate, &p.LastSessionDate, &p.CurrentStreakDays, &p.BestStreakDays); err != nil {
			return nil, fmt.Errorf("scan project stats: %w", err)
		}
		out[p.Name] = p
	}
	return out, rows.Err()
}

func (s *SQLiteStore) loadDaily(ctx context.Context) (map[string]domain.DailyStats, error) {
	rows, err := tx.From(ctx, s.db).QueryContext(ctx, `
SELECT date, work_sessions, break_sessions, total_work_minutes, total_break_minutes, projects
FROM daily_stats`)
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.DailyStats{}
	for rows.Next() {
		var (
			d        domain.DailyStats
			projects string
		)
		if err := rows.Scan(&d.Date, &d.WorkSessions, &d.BreakSessions, &d.TotalWorkMinutes, &d.TotalBreakMinutes, &projects); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		if err := json.Unmarshal([]byte(projects), &d.Projects); err != nil {
			return nil, fmt.Errorf("decode projects for %s: %w", d.Date, err)
		}
		out[d.Date] = d
	}
	return out, rows.Err()
}

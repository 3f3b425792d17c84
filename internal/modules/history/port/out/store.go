package out

import (
	"context"

	"pomodoro/internal/modules/history/domain"
)

// Store persists the session log and its aggregates. Each call is atomic:
// a failed write leaves the previously stored snapshot intact.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Append(ctx context.Context, rec domain.SessionRecord, day domain.DailyStats, project *domain.ProjectStats) error
	Replace(ctx context.Context, snap domain.Snapshot) error
}

package in

import (
	"context"

	"pomodoro/internal/modules/history/domain"
	"pomodoro/internal/modules/history/dto"
)

type Usecase interface {
	Record(ctx context.Context, input dto.RecordInput) (domain.SessionRecord, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.SessionRecord, error)
	History(ctx context.Context, filter domain.Filter) (dto.HistoryView, error)
	Stats(ctx context.Context) (dto.StatsView, error)
	Today(ctx context.Context) (domain.TodaySummary, error)
	ProjectFilter(ctx context.Context) ([]string, error)
	ManagedProjects(ctx context.Context) ([]string, error)

	Edit(ctx context.Context, input dto.EditInput) (domain.SessionRecord, error)
	Delete(ctx context.Context, id string) error
	RenameProject(ctx context.Context, input dto.RenameInput) (dto.ProjectChange, error)
	MergeProjects(ctx context.Context, input dto.RenameInput) (dto.ProjectChange, error)
	DeleteProject(ctx context.Context, name string) (dto.ProjectChange, error)

	ExportJSON(ctx context.Context) (dto.ExportFile, error)
	ExportCSV(ctx context.Context) (dto.ExportFile, error)
	Import(ctx context.Context, data []byte) (dto.ImportResult, error)
}

package in

import (
	"context"
	"encoding/json"

	"pomodoro/internal/modules/history/dto"
	historyin "pomodoro/internal/modules/history/port/in"
	"pomodoro/internal/platform/bus"
)

const (
	ActionHistory         = "getHistory"
	ActionStats           = "getStats"
	ActionToday           = "getTodaySummary"
	ActionProjectFilter   = "loadProjectFilter"
	ActionManagedProjects = "loadProjects"
	ActionEditSession     = "editSession"
	ActionDeleteSession   = "deleteSession"
	ActionRenameProject   = "renameProject"
	ActionMergeProjects   = "mergeProjects"
	ActionDeleteProject   = "deleteProject"
	ActionExportJSON      = "exportJSON"
	ActionExportCSV       = "exportCSV"
	ActionImport          = "importSessions"

	EventHistoryChanged = "historyChanged"
)

// ExportPayload carries an export over the bus; Content is the file body.
type ExportPayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type idParams struct {
	ID string `json:"id"`
}

type nameParams struct {
	Name string `json:"name"`
}

type importParams struct {
	Data json.RawMessage `json:"data"`
}

type BusHandler struct {
	usecase   historyin.Usecase
	publisher bus.Publisher
}

func NewBusHandler(usecase historyin.Usecase, publisher bus.Publisher) BusHandler {
	return BusHandler{usecase: usecase, publisher: publisher}
}

func (h BusHandler) Register(b *bus.Bus) {
	b.Handle(ActionHistory, h.history)
	b.Handle(ActionStats, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.Stats(ctx)
	})
	b.Handle(ActionToday, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.Today(ctx)
	})
	b.Handle(ActionProjectFilter, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.ProjectFilter(ctx)
	})
	b.Handle(ActionManagedProjects, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return h.usecase.ManagedProjects(ctx)
	})
	b.Handle(ActionEditSession, h.edit)
	b.Handle(ActionDeleteSession, h.deleteSession)
	b.Handle(ActionRenameProject, h.rename)
	b.Handle(ActionMergeProjects, h.merge)
	b.Handle(ActionDeleteProject, h.deleteProject)
	b.Handle(ActionExportJSON, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return payload(h.usecase.ExportJSON(ctx))
	})
	b.Handle(ActionExportCSV, func(ctx context.Context, _ json.RawMessage) (any, error) {
		return payload(h.usecase.ExportCSV(ctx))
	})
	b.Handle(ActionImport, h.importSessions)
}

func (h BusHandler) history(ctx context.Context, params json.RawMessage) (any, error) {
	query, err := bus.Decode[dto.Query](params)
	if err != nil {
		return nil, err
	}
	return h.usecase.History(ctx, query.Filter())
}

func (h BusHandler) edit(ctx context.Context, params json.RawMessage) (any, error) {
	input, err := bus.Decode[dto.EditInput](params)
	if err != nil {
		return nil, err
	}
	rec, err := h.usecase.Edit(ctx, input)
	if err != nil {
		return nil, err
	}
	h.changed(ActionEditSession)
	return rec, nil
}

func (h BusHandler) deleteSession(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := bus.Decode[idParams](params)
	if err != nil {
		return nil, err
	}
	if err := h.usecase.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	h.changed(ActionDeleteSession)
	return nil, nil
}

func (h BusHandler) rename(ctx context.Context, params json.RawMessage) (any, error) {
	input, err := bus.Decode[dto.RenameInput](params)
	if err != nil {
		return nil, err
	}
	return h.projectChange(ActionRenameProject)(h.usecase.RenameProject(ctx, input))
}

func (h BusHandler) merge(ctx context.Context, params json.RawMessage) (any, error) {
	input, err := bus.Decode[dto.RenameInput](params)
	if err != nil {
		return nil, err
	}
	return h.projectChange(ActionMergeProjects)(h.usecase.MergeProjects(ctx, input))
}

func (h BusHandler) deleteProject(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := bus.Decode[nameParams](params)
	if err != nil {
		return nil, err
	}
	return h.projectChange(ActionDeleteProject)(h.usecase.DeleteProject(ctx, p.Name))
}

func (h BusHandler) importSessions(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := bus.Decode[importParams](params)
	if err != nil {
		return nil, err
	}
	result, err := h.usecase.Import(ctx, p.Data)
	if err != nil {
		return nil, err
	}
	if result.Added > 0 {
		h.changed(ActionImport)
	}
	return result, nil
}

func (h BusHandler) projectChange(action string) func(dto.ProjectChange, error) (any, error) {
	return func(change dto.ProjectChange, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		h.changed(action)
		return change, nil
	}
}

func (h BusHandler) changed(action string) {
	if h.publisher != nil {
		_ = h.publisher.Publish(EventHistoryChanged, map[string]string{"action": action})
	}
}

func payload(file dto.ExportFile, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return ExportPayload{Filename: file.Filename, ContentType: file.ContentType, Content: string(file.Data)}, nil
}

package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"pomodoro/internal/modules/settings/domain"
	"pomodoro/internal/modules/settings/dto"
	settingsin "pomodoro/internal/modules/settings/port/in"
	settingsout "pomodoro/internal/modules/settings/port/out"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/metrics"
)

const EventSettingsChanged = "settingsUpdated"

// SettingsService serializes read-modify-write cycles over the settings store.
type SettingsService struct {
	mu        sync.Mutex
	store     settingsout.Store
	publisher bus.Publisher
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

var _ settingsin.Usecase = (*SettingsService)(nil)

func NewSettingsService(store settingsout.Store, publisher bus.Publisher, logger zerolog.Logger, m *metrics.Metrics) *SettingsService {
	return &SettingsService{store: store, publisher: publisher, logger: logger, metrics: m}
}

// Get returns the stored settings. A read failure is logged and the
// defaults are returned so callers can keep working.
func (s *SettingsService) Get(ctx context.Context) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *SettingsService) Update(ctx context.Context, input dto.UpdateInput) (domain.Settings, error) {
	return s.mutate(ctx, func(next *domain.Settings) error {
		if input.WorkMinutes != nil {
			if err := domain.ValidateMinutes("workMinutes", *input.WorkMinutes); err != nil {
				return err
			}
			next.WorkMinutes = *input.WorkMinutes
		}
		if input.BreakMinutes != nil {
			if err := domain.ValidateMinutes("breakMinutes", *input.BreakMinutes); err != nil {
				return err
			}
			next.BreakMinutes = *input.BreakMinutes
		}
		if input.AutoStartEnabled != nil {
			next.AutoStartEnabled = *input.AutoStartEnabled
		}
		return nil
	})
}

func (s *SettingsService) SetAutoStart(ctx context.Context, enabled bool) (domain.Settings, error) {
	return s.mutate(ctx, func(next *domain.Settings) error {
		next.AutoStartEnabled = enabled
		return nil
	})
}

func (s *SettingsService) SetLastProject(ctx context.Context, project string) error {
	_, err := s.mutate(ctx, func(next *domain.Settings) error {
		next.LastProject = project
		return nil
	})
	return err
}

func (s *SettingsService) SetAlert(ctx context.Context, input dto.AlertInput) (domain.Settings, error) {
	return s.mutate(ctx, func(next *domain.Settings) error {
		return next.Alerts.Set(input.Key, input.Value)
	})
}

func (s *SettingsService) ResetAlerts(ctx context.Context) (domain.Settings, error) {
	return s.mutate(ctx, func(next *domain.Settings) error {
		next.Alerts = domain.DefaultAlerts()
		return nil
	})
}

func (s *SettingsService) mutate(ctx context.Context, fn func(*domain.Settings) error) (domain.Settings, error) {
	s.mu.Lock()
	current := s.loadLocked(ctx)
	next := current
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return current, err
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		s.metrics.RecordPersistenceError("settings")
		s.logger.Error().Err(err).Msg("save settings")
		return current, err
	}
	s.mu.Unlock()

	if s.publisher != nil {
		_ = s.publisher.Publish(EventSettingsChanged, next)
	}
	return next, nil
}

func (s *SettingsService) loadLocked(ctx context.Context) domain.Settings {
	settings, err := s.store.Load(ctx)
	if err != nil {
		s.metrics.RecordPersistenceError("settings")
		s.logger.Warn().Err(err).Msg("load settings, using defaults")
		return domain.Default()
	}
	return settings
}

package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"pomodoro/internal/modules/settings/domain"
	apperrors "pomodoro/internal/platform/errors"
)

type yamlSettings struct {
	WorkMinutes      int        `yaml:"work_minutes"`
	BreakMinutes     int        `yaml:"break_minutes"`
	AutoStartEnabled *bool      `yaml:"auto_start_enabled"`
	LastProject      string     `yaml:"last_project,omitempty"`
	Alerts           yamlAlerts `yaml:"alerts"`
}

type yamlAlerts struct {
	SystemNotifications       *bool  `yaml:"system_notifications"`
	Sounds                    *bool  `yaml:"sounds"`
	NativeAlert               *bool  `yaml:"native_alert"`
	IconFlashing              *bool  `yaml:"icon_flashing"`
	PanelAutoOpen             *bool  `yaml:"panel_auto_open"`
	Vibration                 *bool  `yaml:"vibration"`
	RepeatReminders           *bool  `yaml:"repeat_reminders"`
	SoundFile                 string `yaml:"sound_file"`
	Intensity                 string `yaml:"intensity"`
	FlashDurationMS           int    `yaml:"flash_duration_ms"`
	NotificationPersistenceMS int    `yaml:"notification_persistence_ms"`
}

// YAMLStore keeps settings in a single YAML file.
type YAMLStore struct {
	path string
	mu   sync.Mutex
}

func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Load reads settings from disk. A missing file yields the defaults; fields
// that are absent or out of range keep their default value.
func (s *YAMLStore) Load(_ context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.Default()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, apperrors.Persistence("read settings", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(raw, &fileData); err != nil {
		return settings, apperrors.Persistence("parse settings yaml", err)
	}
	applyYAML(&settings, fileData)
	return settings, nil
}

func (s *YAMLStore) Save(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.Persistence("create settings directory", err)
	}
	serialized, err := yaml.Marshal(toYAML(settings))
	if err != nil {
		return apperrors.Persistence("marshal settings yaml", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, serialized, 0o644); err != nil {
		return apperrors.Persistence("write settings", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return apperrors.Persistence("replace settings", fmt.Errorf("rename %s: %w", tmp, err))
	}
	return nil
}

func toYAML(s domain.Settings) yamlSettings {
	a := s.Alerts
	return yamlSettings{
		WorkMinutes:      s.WorkMinutes,
		BreakMinutes:     s.BreakMinutes,
		AutoStartEnabled: &s.AutoStartEnabled,
		LastProject:      s.LastProject,
		Alerts: yamlAlerts{
			SystemNotifications:       &a.SystemNotifications,
			Sounds:                    &a.Sounds,
			NativeAlert:               &a.NativeAlert,
			IconFlashing:              &a.IconFlashing,
			PanelAutoOpen:             &a.PanelAutoOpen,
			Vibration:                 &a.Vibration,
			RepeatReminders:           &a.RepeatReminders,
			SoundFile:                 a.SoundFile,
			Intensity:                 a.Intensity,
			FlashDurationMS:           int(a.FlashDuration / time.Millisecond),
			NotificationPersistenceMS: int(a.NotificationPersistence / time.Millisecond),
		},
	}
}

func applyYAML(s *domain.Settings, f yamlSettings) {
	if domain.ValidateMinutes("workMinutes", f.WorkMinutes) == nil {
		s.WorkMinutes = f.WorkMinutes
	}
	if domain.ValidateMinutes("breakMinutes", f.BreakMinutes) == nil {
		s.BreakMinutes = f.BreakMinutes
	}
	setBool(&s.AutoStartEnabled, f.AutoStartEnabled)
	s.LastProject = f.LastProject

	a := &s.Alerts
	setBool(&a.SystemNotifications, f.Alerts.SystemNotifications)
	setBool(&a.Sounds, f.Alerts.Sounds)
	setBool(&a.NativeAlert, f.Alerts.NativeAlert)
	setBool(&a.IconFlashing, f.Alerts.IconFlashing)
	setBool(&a.PanelAutoOpen, f.Alerts.PanelAutoOpen)
	setBool(&a.Vibration, f.Alerts.Vibration)
	setBool(&a.RepeatReminders, f.Alerts.RepeatReminders)

	candidate := *a
	if f.Alerts.SoundFile != "" {
		candidate.SoundFile = f.Alerts.SoundFile
	}
	if f.Alerts.Intensity != "" {
		candidate.Intensity = f.Alerts.Intensity
	}
	if candidate.Validate() == nil {
		*a = candidate
	}
	if f.Alerts.FlashDurationMS > 0 {
		a.FlashDuration = time.Duration(f.Alerts.FlashDurationMS) * time.Millisecond
	}
	if f.Alerts.NotificationPersistenceMS > 0 {
		a.NotificationPersistence = time.Duration(f.Alerts.NotificationPersistenceMS) * time.Millisecond
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

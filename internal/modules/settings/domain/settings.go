package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "pomodoro/internal/platform/errors"
)

const (
	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
	MaxSessionMinutes   = 240
)

// Settings are the user-configurable preferences.
type Settings struct {
	WorkMinutes      int           `json:"workMinutes"`
	BreakMinutes     int           `json:"breakMinutes"`
	AutoStartEnabled bool          `json:"autoStartEnabled"`
	LastProject      string        `json:"lastProject"`
	Alerts           AlertSettings `json:"alertSettings"`
}

// AlertSettings toggle each presentation channel independently.
type AlertSettings struct {
	SystemNotifications     bool          `json:"systemNotifications"`
	Sounds                  bool          `json:"sounds"`
	NativeAlert             bool          `json:"nativeAlert"`
	IconFlashing            bool          `json:"iconFlashing"`
	PanelAutoOpen           bool          `json:"panelAutoOpen"`
	Vibration               bool          `json:"vibration"`
	RepeatReminders         bool          `json:"repeatReminders"`
	SoundFile               string        `json:"soundFile"`
	Intensity               string        `json:"alertIntensity"`
	FlashDuration           time.Duration `json:"flashDuration"`
	NotificationPersistence time.Duration `json:"notificationPersistence"`
}

var (
	soundFiles  = []string{"default", "bell", "chime", "custom"}
	intensities = []string{"low", "medium", "high"}
)

func Default() Settings {
	return Settings{
		WorkMinutes:      DefaultWorkMinutes,
		BreakMinutes:     DefaultBreakMinutes,
		AutoStartEnabled: true,
		Alerts:           DefaultAlerts(),
	}
}

func DefaultAlerts() AlertSettings {
	return AlertSettings{
		SystemNotifications:     true,
		Sounds:                  true,
		NativeAlert:             false,
		IconFlashing:            true,
		PanelAutoOpen:           true,
		Vibration:               true,
		RepeatReminders:         false,
		SoundFile:               "default",
		Intensity:               "medium",
		FlashDuration:           5 * time.Second,
		NotificationPersistence: 8 * time.Second,
	}
}

func ValidateMinutes(field string, minutes int) error {
	if minutes <= 0 {
		return apperrors.Invalid(field, "must be a positive number of minutes")
	}
	if minutes > MaxSessionMinutes {
		return apperrors.Invalid(field, fmt.Sprintf("must be at most %d minutes", MaxSessionMinutes))
	}
	return nil
}

func (s Settings) Validate() error {
	if err := ValidateMinutes("workMinutes", s.WorkMinutes); err != nil {
		return err
	}
	if err := ValidateMinutes("breakMinutes", s.BreakMinutes); err != nil {
		return err
	}
	return s.Alerts.Validate()
}

func (a AlertSettings) Validate() error {
	if !oneOf(a.SoundFile, soundFiles) {
		return apperrors.Invalid("soundFile", "must be one of "+strings.Join(soundFiles, "|"))
	}
	if !oneOf(a.Intensity, intensities) {
		return apperrors.Invalid("alertIntensity", "must be one of "+strings.Join(intensities, "|"))
	}
	if a.FlashDuration < 0 || a.NotificationPersistence < 0 {
		return apperrors.Invalid("duration", "must not be negative")
	}
	return nil
}

// Set updates one alert setting by its JSON key.
func (a *AlertSettings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	toggles := map[string]*bool{
		"systemNotifications": &a.SystemNotifications,
		"sounds":              &a.Sounds,
		"nativeAlert":         &a.NativeAlert,
		"iconFlashing":        &a.IconFlashing,
		"panelAutoOpen":       &a.PanelAutoOpen,
		"vibration":           &a.Vibration,
		"repeatReminders":     &a.RepeatReminders,
	}
	if target, ok := toggles[key]; ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return apperrors.Invalid(key, "must be true or false")
		}
		*target = parsed
		return nil
	}

	next := *a
	switch key {
	case "soundFile":
		next.SoundFile = value
	case "alertIntensity":
		next.Intensity = value
	case "flashDuration", "notificationPersistence":
		d, err := parseDuration(value)
		if err != nil {
			return apperrors.Invalid(key, err.Error())
		}
		if key == "flashDuration" {
			next.FlashDuration = d
		} else {
			next.NotificationPersistence = d
		}
	default:
		return apperrors.Invalid("key", fmt.Sprintf("unknown alert setting %q", key))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*a = next
	return nil
}

// parseDuration accepts Go durations or a bare number of milliseconds.
func parseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

package domain

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindWork  Kind = "work"
	KindBreak Kind = "break"
)

const (
	ChannelNotification = "notification"
	ChannelSound        = "sound"
	ChannelFlash        = "flash"
	ChannelPanel        = "panel"
	ChannelNative       = "native"
	ChannelVibration    = "vibration"
)

// Alert announces one completed session.
type Alert struct {
	Kind            Kind      `json:"type"`
	DurationMinutes int       `json:"duration"`
	Project         string    `json:"project,omitempty"`
	NextKind        Kind      `json:"nextType,omitempty"`
	AutoStart       bool      `json:"autoStart"`
	At              time.Time `json:"at"`
	Reminder        int       `json:"reminder,omitempty"`
	Test            bool      `json:"test,omitempty"`
}

// Options are the presentation preferences in effect for one fan-out.
type Options struct {
	SoundFile               string
	Intensity               string
	FlashDuration           time.Duration
	NotificationPersistence time.Duration
}

// DedupKey buckets alerts of the same kind into fixed windows.
func DedupKey(kind Kind, at time.Time, window time.Duration) string {
	if window <= 0 {
		window = 5 * time.Second
	}
	return fmt.Sprintf("%s-%d", kind, at.UnixMilli()/window.Milliseconds())
}

func (a Alert) Title() string {
	if a.Reminder > 0 {
		return "Pomodoro reminder"
	}
	if a.Kind == KindWork {
		return "Work session complete"
	}
	return "Break is over"
}

func (a Alert) Message() string {
	switch {
	case a.Reminder > 0 && a.Kind == KindWork:
		return "Take your break."
	case a.Reminder > 0:
		return "Get back to work."
	case a.Kind == KindWork:
		project := a.Project
		if project == "" {
			project = "your project"
		}
		return fmt.Sprintf("You finished %d minutes of work on %q. Break starting.", a.DurationMinutes, project)
	case a.AutoStart:
		return fmt.Sprintf("Your %d minute break is over. Work starts automatically.", a.DurationMinutes)
	default:
		return fmt.Sprintf("Your %d minute break is over. Start when you are ready.", a.DurationMinutes)
	}
}

// VibrationPattern alternates vibrate and pause durations in milliseconds.
func VibrationPattern(kind Kind) []int {
	if kind == KindWork {
		return []int{200, 100, 200, 100, 200}
	}
	return []int{300, 200, 300}
}

// ToneCount is the number of beeps played for kind.
func ToneCount(kind Kind) int {
	if kind == KindWork {
		return 3
	}
	return 2
}

// Report summarizes one fan-out.
type Report struct {
	Key        string            `json:"key"`
	Suppressed bool              `json:"suppressed"`
	Fired      []string          `json:"fired"`
	Failed     map[string]string `json:"failed,omitempty"`
}

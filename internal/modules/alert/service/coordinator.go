package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pomodoro/internal/modules/alert/domain"
	alertin "pomodoro/internal/modules/alert/port/in"
	alertout "pomodoro/internal/modules/alert/port/out"
	settingsdomain "pomodoro/internal/modules/settings/domain"
	"pomodoro/internal/platform/bus"
	"pomodoro/internal/platform/clock"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/metrics"
)

const EventReminder = "reminder"

type Config struct {
	Timeout          time.Duration
	DedupWindow      time.Duration
	ReminderInterval time.Duration
	ReminderCount    int
}

func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		DedupWindow:      5 * time.Second,
		ReminderInterval: 30 * time.Second,
		ReminderCount:    3,
	}
}

// Coordinator fans a completion out to every enabled channel. Channels run
// concurrently and a failing channel never affects the others.
type Coordinator struct {
	channels  []alertout.Channel
	settings  alertout.SettingsReader
	publisher bus.Publisher
	clock     clock.Clock
	cfg       Config
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	afterFunc func(time.Duration, func()) *time.Timer

	mu          sync.Mutex
	seen        map[string]time.Time
	reminder    *time.Timer
	reminderGen uint64
}

var _ alertin.Usecase = (*Coordinator)(nil)

func NewCoordinator(channels []alertout.Channel, settings alertout.SettingsReader, publisher bus.Publisher, clk clock.Clock, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Coordinator {
	return &Coordinator{
		channels:  channels,
		settings:  settings,
		publisher: publisher,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		afterFunc: time.AfterFunc,
		seen:      make(map[string]time.Time),
	}
}

// Notify announces alert unless an alert of the same kind was already
// announced in the same dedup window.
func (c *Coordinator) Notify(ctx context.Context, alert domain.Alert) domain.Report {
	if alert.At.IsZero() {
		alert.At = c.clock.Now()
	}
	key := domain.DedupKey(alert.Kind, alert.At, c.cfg.DedupWindow)

	c.mu.Lock()
	c.pruneLocked(alert.At)
	if _, dup := c.seen[key]; dup {
		c.mu.Unlock()
		c.logger.Debug().Str("key", key).Msg("duplicate alert suppressed")
		return domain.Report{Key: key, Suppressed: true}
	}
	c.seen[key] = alert.At
	c.mu.Unlock()

	prefs := c.settings.Get(ctx).Alerts
	report := c.fanOut(ctx, alert, prefs, enabledChannels(prefs))
	report.Key = key
	if prefs.RepeatReminders {
		c.scheduleReminders(alert, prefs)
	}
	return report
}

// Test fires a sample alert on every enabled channel, bypassing dedup.
func (c *Coordinator) Test(ctx context.Context) domain.Report {
	prefs := c.settings.Get(ctx).Alerts
	alert := domain.Alert{
		Kind:            domain.KindWork,
		DurationMinutes: settingsdomain.DefaultWorkMinutes,
		Project:         "Test",
		NextKind:        domain.KindBreak,
		At:              c.clock.Now(),
		Test:            true,
	}
	return c.fanOut(ctx, alert, prefs, enabledChannels(prefs))
}

// CancelPending stops scheduled reminders and any channel still presenting.
func (c *Coordinator) CancelPending() {
	c.mu.Lock()
	c.reminderGen++
	if c.reminder != nil {
		c.reminder.Stop()
		c.reminder = nil
	}
	c.mu.Unlock()

	for _, ch := range c.channels {
		if canceler, ok := ch.(alertout.Canceler); ok {
			canceler.CancelPending()
		}
	}
}

func (c *Coordinator) fanOut(ctx context.Context, alert domain.Alert, prefs settingsdomain.AlertSettings, enabled map[string]bool) domain.Report {
	opts := domain.Options{
		SoundFile:               prefs.SoundFile,
		Intensity:               prefs.Intensity,
		FlashDuration:           prefs.FlashDuration,
		NotificationPersistence: prefs.NotificationPersistence,
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		report = domain.Report{Fired: []string{}}
	)
	for _, ch := range c.channels {
		if !enabled[ch.Name()] {
			continue
		}
		wg.Add(1)
		go func(ch alertout.Channel) {
			defer wg.Done()
			err := c.fire(ctx, ch, alert, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if report.Failed == nil {
					report.Failed = map[string]string{}
				}
				report.Failed[ch.Name()] = err.Error()
				c.metrics.RecordAlert(ch.Name(), "error")
				c.logger.Warn().Err(err).Str("channel", ch.Name()).Msg("alert channel failed")
				return
			}
			report.Fired = append(report.Fired, ch.Name())
			c.metrics.RecordAlert(ch.Name(), "ok")
		}(ch)
	}
	wg.Wait()
	return report
}

func (c *Coordinator) fire(ctx context.Context, ch alertout.Channel, alert domain.Alert, opts domain.Options) (err error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = &apperrors.ChannelError{Channel: ch.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := ch.Fire(ctx, alert, opts); err != nil {
		return &apperrors.ChannelError{Channel: ch.Name(), Err: err}
	}
	return nil
}

func (c *Coordinator) scheduleReminders(alert domain.Alert, prefs settingsdomain.AlertSettings) {
	if c.cfg.ReminderCount <= 0 || c.cfg.ReminderInterval <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reminder != nil {
		c.reminder.Stop()
	}
	c.reminderGen++
	gen := c.reminderGen

	var fire func(n int)
	fire = func(n int) {
		c.mu.Lock()
		if gen != c.reminderGen {
			c.mu.Unlock()
			return
		}
		c.reminder = nil
		if n < c.cfg.ReminderCount {
			c.reminder = c.afterFunc(c.cfg.ReminderInterval, func() { fire(n + 1) })
		}
		c.mu.Unlock()

		reminder := alert
		reminder.Reminder = n
		reminder.At = c.clock.Now()
		c.remind(reminder, prefs)
	}
	c.reminder = c.afterFunc(c.cfg.ReminderInterval, func() { fire(1) })
}

func (c *Coordinator) remind(alert domain.Alert, prefs settingsdomain.AlertSettings) {
	if c.publisher != nil {
		_ = c.publisher.Publish(EventReminder, map[string]any{
			"type":    alert.Kind,
			"count":   alert.Reminder,
			"message": alert.Message(),
		})
	}
	enabled := map[string]bool{domain.ChannelNotification: prefs.SystemNotifications}
	c.fanOut(context.Background(), alert, prefs, enabled)
}

func (c *Coordinator) pruneLocked(now time.Time) {
	horizon := 2 * c.cfg.DedupWindow
	if horizon <= 0 {
		horizon = 10 * time.Second
	}
	for key, at := range c.seen {
		if now.Sub(at) > horizon {
			delete(c.seen, key)
		}
	}
}

func enabledChannels(prefs settingsdomain.AlertSettings) map[string]bool {
	return map[string]bool{
		domain.ChannelNotification: prefs.SystemNotifications,
		domain.ChannelSound:        prefs.Sounds,
		domain.ChannelFlash:        prefs.IconFlashing,
		domain.ChannelPanel:        prefs.PanelAutoOpen,
		domain.ChannelNative:       prefs.NativeAlert,
		domain.ChannelVibration:    prefs.Vibration,
	}
}

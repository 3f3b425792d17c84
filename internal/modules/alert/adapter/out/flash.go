package out

import (
	"context"
	"sync"
	"time"

	"pomodoro/internal/modules/alert/domain"
	"pomodoro/internal/platform/bus"
)

const EventBadgeFlash = "badgeFlash"

// FlashChannel alternates the badge between "!" and empty for the configured
// duration. A new flash replaces the running one.
type FlashChannel struct {
	publisher bus.Publisher
	interval  time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func NewFlashChannel(publisher bus.Publisher, interval time.Duration) *FlashChannel {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &FlashChannel{publisher: publisher, interval: interval}
}

func (f *FlashChannel) Name() string { return domain.ChannelFlash }

func (f *FlashChannel) Fire(_ context.Context, alert domain.Alert, opts domain.Options) error {
	duration := opts.FlashDuration
	if duration <= 0 {
		return nil
	}
	stop := make(chan struct{})
	f.mu.Lock()
	if f.stop != nil {
		close(f.stop)
	}
	f.stop = stop
	f.mu.Unlock()

	go f.run(stop, alert.Kind, duration)
	return nil
}

func (f *FlashChannel) CancelPending() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stop != nil {
		close(f.stop)
		f.stop = nil
	}
}

func (f *FlashChannel) run(stop chan struct{}, kind domain.Kind, duration time.Duration) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	deadline := time.NewTimer(duration)
	defer deadline.Stop()

	on := true
	_ = publish(f.publisher, EventBadgeFlash, map[string]any{"text": "!", "type": kind})
	for {
		select {
		case <-stop:
			_ = publish(f.publisher, EventBadgeFlash, map[string]any{"text": "", "type": kind, "done": true})
			return
		case <-deadline.C:
			f.mu.Lock()
			if f.stop == stop {
				f.stop = nil
			}
			f.mu.Unlock()
			_ = publish(f.publisher, EventBadgeFlash, map[string]any{"text": "", "type": kind, "done": true})
			return
		case <-ticker.C:
			on = !on
			text := ""
			if on {
				text = "!"
			}
			_ = publish(f.publisher, EventBadgeFlash, map[string]any{"text": text, "type": kind})
		}
	}
}

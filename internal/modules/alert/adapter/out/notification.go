package out

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pomodoro/internal/modules/alert/domain"
	alertin "pomodoro/internal/modules/alert/port/in"
	alertout "pomodoro/internal/modules/alert/port/out"
	"pomodoro/internal/platform/bus"
	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/id"
)

const (
	EventNotification        = "notification"
	EventNotificationCleared = "notificationCleared"
)

type registration struct {
	notification domain.Notification
	timer        *time.Timer
}

// NotificationChannel shows system notifications and keeps a registry of the
// ones still on screen, keyed by notification id. Entries leave the registry
// on click, dismissal or timeout.
type NotificationChannel struct {
	publisher bus.Publisher
	ids       id.Generator

	mu      sync.Mutex
	entries map[string]*registration
}

var _ alertout.Channel = (*NotificationChannel)(nil)

var _ alertin.NotificationActions = (*NotificationChannel)(nil)

func NewNotificationChannel(publisher bus.Publisher, ids id.Generator) *NotificationChannel {
	return &NotificationChannel{publisher: publisher, ids: ids, entries: make(map[string]*registration)}
}

func (n *NotificationChannel) Name() string { return domain.ChannelNotification }

func (n *NotificationChannel) Fire(_ context.Context, alert domain.Alert, opts domain.Options) error {
	note := domain.Notification{
		ID:       fmt.Sprintf("pomodoro-%s-%s", alert.Kind, n.ids.New()),
		Kind:     alert.Kind,
		Title:    alert.Title(),
		Message:  alert.Message(),
		Priority: domain.Priority(opts.Intensity),
		Buttons:  domain.DefaultButtons(),
	}
	if opts.NotificationPersistence > 0 {
		note.ExpiresAt = alert.At.Add(opts.NotificationPersistence)
	}

	n.mu.Lock()
	reg := &registration{notification: note}
	if opts.NotificationPersistence > 0 {
		noteID := note.ID
		reg.timer = time.AfterFunc(opts.NotificationPersistence, func() { n.Dismiss(noteID) })
	}
	n.entries[note.ID] = reg
	n.mu.Unlock()

	return publish(n.publisher, EventNotification, note)
}

// Act resolves a click on notification id and returns the UI event it
// triggered. The notification is removed from the registry.
func (n *NotificationChannel) Act(id, action string) (string, error) {
	event, ok := domain.ActionEvent(action)
	if !ok {
		return "", apperrors.Invalid("action", fmt.Sprintf("unknown notification action %q", action))
	}
	if !n.remove(id) {
		return "", fmt.Errorf("notification %q: %w", id, apperrors.ErrNotFound)
	}
	if err := publish(n.publisher, event, map[string]string{"notificationId": id}); err != nil {
		return event, err
	}
	return event, nil
}

func (n *NotificationChannel) Dismiss(id string) bool {
	return n.remove(id)
}

func (n *NotificationChannel) Active() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.Notification, 0, len(n.entries))
	for _, reg := range n.entries {
		out = append(out, reg.notification)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (n *NotificationChannel) remove(id string) bool {
	n.mu.Lock()
	reg, ok := n.entries[id]
	delete(n.entries, id)
	n.mu.Unlock()
	if !ok {
		return false
	}
	if reg.timer != nil {
		reg.timer.Stop()
	}
	_ = publish(n.publisher, EventNotificationCleared, map[string]string{"notificationId": id})
	return true
}

// Package bus is the in-process messaging layer: a command dispatcher keyed by
// action name and an event subscription registry keyed by subscription id.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "pomodoro/internal/platform/errors"
	"pomodoro/internal/platform/metrics"
)

// ErrUnknownAction is returned when no handler is registered for an action.
var ErrUnknownAction = fmt.Errorf("%w: unknown action", apperrors.ErrNotFound)

// Request is a command sent to a registered handler.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response mirrors the request/response contract of every command.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Event is a broadcast to every current subscriber.
type Event struct {
	Name string    `json:"name"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// HandlerFunc handles one command. A nil result with nil error is a plain success.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

// Publisher is the narrow broadcast side used by producers.
type Publisher interface {
	Publish(name string, data any) error
}

type Bus struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	subs     map[string]chan Event
	nextID   int
	closed   bool
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func New(logger zerolog.Logger, m *metrics.Metrics) *Bus {
	return &Bus{
		handlers: make(map[string]HandlerFunc),
		subs:     make(map[string]chan Event),
		logger:   logger.With().Str("component", "bus").Logger(),
		metrics:  m,
	}
}

// Handle registers h for action, replacing any previous handler.
func (b *Bus) Handle(action string, h HandlerFunc) {
	b.mu.Lock()
	b.handlers[action] = h
	b.mu.Unlock()
}

// Actions lists registered action names.
func (b *Bus) Actions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		out = append(out, name)
	}
	return out
}

// Exec runs the handler for req and returns its raw result.
func (b *Bus) Exec(ctx context.Context, req Request) (any, error) {
	b.mu.RLock()
	h, ok := b.handlers[req.Action]
	b.mu.RUnlock()
	if !ok {
		b.metrics.RecordCommand(req.Action, "unknown")
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, req.Action)
	}

	data, err := h(ctx, req.Params)
	if err != nil {
		result := "error"
		if errors.Is(err, apperrors.ErrInvalidInput) {
			result = "invalid"
		}
		b.metrics.RecordCommand(req.Action, result)
		b.logger.Debug().Err(err).Str("action", req.Action).Msg("command rejected")
		return nil, err
	}
	b.metrics.RecordCommand(req.Action, "ok")
	return data, nil
}

// Dispatch runs req and folds the outcome into a Response.
func (b *Bus) Dispatch(ctx context.Context, req Request) Response {
	data, err := b.Exec(ctx, req)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true, Data: data}
}

// Call is the in-process client: params are encoded, and the result is decoded into out when non-nil.
func (b *Bus) Call(ctx context.Context, action string, params any, out any) error {
	var raw json.RawMessage
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode %s params: %w", action, err)
		}
		raw = encoded
	}
	data, err := b.Exec(ctx, Request{Action: action, Params: raw})
	if err != nil {
		return err
	}
	if out == nil || data == nil {
		return nil
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s result: %w", action, err)
	}
	if err := json.Unmarshal(encoded, out); err != nil {
		return fmt.Errorf("decode %s result: %w", action, err)
	}
	return nil
}

// Subscribe registers a new observer channel.
func (b *Bus) Subscribe(buffer int) (string, <-chan Event) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return "", ch
	}
	b.nextID++
	id := "sub-" + strconv.Itoa(b.nextID)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes the subscription. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish delivers to every subscriber without blocking; full subscribers miss the event.
// It returns ErrTransport when nobody is listening.
func (b *Bus) Publish(name string, data any) error {
	event := Event{Name: name, Data: data, At: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.subs) == 0 {
		return apperrors.ErrTransport
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Close drops every subscription.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]chan Event)
	b.closed = true
	b.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// Decode unmarshals command params, reporting malformed input as a validation error.
func Decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, apperrors.Invalid("params", err.Error())
	}
	return v, nil
}

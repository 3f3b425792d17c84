package bus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pomodoro/internal/platform/errors"
)

type echoParams struct {
	Value string `json:"value"`
}

func newTestBus() *Bus {
	b := New(zerolog.Nop(), nil)
	b.Handle("echo", func(_ context.Context, raw json.RawMessage) (any, error) {
		p, err := Decode[echoParams](raw)
		if err != nil {
			return nil, err
		}
		if p.Value == "" {
			return nil, apperrors.Invalid("value", "required")
		}
		return map[string]string{"value": p.Value}, nil
	})
	return b
}

func TestDispatch_Success(t *testing.T) {
	b := newTestBus()
	resp := b.Dispatch(context.Background(), Request{Action: "echo", Params: json.RawMessage(`{"value":"hi"}`)})
	assert.True(t, resp.Success)
	assert.Equal(t, map[string]string{"value": "hi"}, resp.Data)
}

func TestDispatch_ValidationFailure(t *testing.T) {
	b := newTestBus()
	resp := b.Dispatch(context.Background(), Request{Action: "echo"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "value")
}

func TestExec_UnknownAction(t *testing.T) {
	b := newTestBus()
	_, err := b.Exec(context.Background(), Request{Action: "nope"})
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCall_DecodesResult(t *testing.T) {
	b := newTestBus()
	var out echoParams
	require.NoError(t, b.Call(context.Background(), "echo", echoParams{Value: "x"}, &out))
	assert.Equal(t, "x", out.Value)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode[echoParams](json.RawMessage(`{`))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestPublish_NoSubscribersIsTransportError(t *testing.T) {
	b := newTestBus()
	assert.ErrorIs(t, b.Publish("tick", nil), apperrors.ErrTransport)
}

func TestSubscribeReceivesAndUnsubscribeCloses(t *testing.T) {
	b := newTestBus()
	id, ch := b.Subscribe(4)
	require.NoError(t, b.Publish("sessionCompleted", map[string]string{"kind": "work"}))

	event := <-ch
	assert.Equal(t, "sessionCompleted", event.Name)

	b.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	b.Unsubscribe(id)
}

func TestPublish_DoesNotBlockOnFullSubscriber(t *testing.T) {
	b := newTestBus()
	_, ch := b.Subscribe(1)
	require.NoError(t, b.Publish("a", nil))
	require.NoError(t, b.Publish("b", nil))
	assert.Equal(t, "a", (<-ch).Name)
}

func TestClose(t *testing.T) {
	b := newTestBus()
	_, ch := b.Subscribe(1)
	b.Close()
	_, open := <-ch
	assert.False(t, open)

	_, late := b.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

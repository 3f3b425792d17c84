package out

import (
	"errors"

	"pomodoro/internal/platform/bus"
	apperrors "pomodoro/internal/platform/errors"
)

// publish treats a missing listener as delivered; UI surfaces come and go.
func publish(p bus.Publisher, name string, data any) error {
	if p == nil {
		return nil
	}
	if err := p.Publish(name, data); err != nil && !errors.Is(err, apperrors.ErrTransport) {
		return err
	}
	return nil
}

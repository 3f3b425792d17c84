package out

import (
	"context"

	"pomodoro/internal/modules/alert/domain"
	"pomodoro/internal/platform/bus"
)

const EventProminentAlert = "showProminentAlert"

// PanelChannel asks the UI to surface itself with a prominent alert.
type PanelChannel struct {
	publisher bus.Publisher
}

func NewPanelChannel(publisher bus.Publisher) *PanelChannel {
	return &PanelChannel{publisher: publisher}
}

func (p *PanelChannel) Name() string { return domain.ChannelPanel }

func (p *PanelChannel) Fire(_ context.Context, alert domain.Alert, _ domain.Options) error {
	if err := publish(p.publisher, EventProminentAlert, alert); err != nil {
		return err
	}
	return publish(p.publisher, domain.EventOpenPanel, map[string]string{"reason": "alert"})
}

package out

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"pomodoro/internal/modules/alert/domain"
)

// SoundChannel plays a tone pattern as terminal bells.
type SoundChannel struct {
	mu  sync.Mutex
	out io.Writer
	gap time.Duration
}

func NewSoundChannel(out io.Writer, gap time.Duration) *SoundChannel {
	return &SoundChannel{out: out, gap: gap}
}

func (s *SoundChannel) Name() string { return domain.ChannelSound }

func (s *SoundChannel) Fire(ctx context.Context, alert domain.Alert, opts domain.Options) error {
	if s.out == nil {
		return fmt.Errorf("no audio output")
	}
	tones := domain.ToneCount(alert.Kind)
	if opts.Intensity == "high" {
		tones++
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < tones; i++ {
		if i > 0 && s.gap > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.gap):
			}
		}
		if _, err := io.WriteString(s.out, "\a"); err != nil {
			return fmt.Errorf("play tone: %w", err)
		}
	}
	return nil
}

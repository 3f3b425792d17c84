package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", false)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestComponent_AddsField(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, "debug", false), "engine")
	logger.Debug().Msg("tick")
	assert.Contains(t, buf.String(), `"component":"engine"`)
}

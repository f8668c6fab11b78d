package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("reason", "http_404").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden", "info line should be filtered at warn level")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "http_404")
}

func TestNewFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("not-a-level", &buf)

	log.Debug().Msg("debug")
	log.Info().Msg("info")

	out := buf.String()
	assert.NotContains(t, out, "debug")
	assert.Contains(t, out, "info")
}

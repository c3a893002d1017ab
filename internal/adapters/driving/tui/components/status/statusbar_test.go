package status

import (
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.Width())
	assert.Contains(t, bar.View(), "Ready")
}

func TestBar_Thinking(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetMessage("stale")

	cmd := bar.StartThinking()

	require.NotNil(t, cmd)
	assert.Equal(t, StateThinking, bar.State())
	assert.Empty(t, bar.Message())
	assert.Contains(t, bar.View(), "Thinking...")

	_, next := bar.Update(cmd())
	assert.NotNil(t, next, "spinner keeps ticking while thinking")
}

func TestBar_SpinnerIgnoredWhenIdle(t *testing.T) {
	bar := NewBar(nil, nil)

	_, cmd := bar.Update(spinner.TickMsg{})

	assert.Nil(t, cmd)
}

func TestBar_SetAnswered(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(120)

	bar.SetAnswered(domain.AgentWeb, 2500*time.Millisecond, "rate limited")

	assert.Equal(t, StateAnswered, bar.State())
	assert.Equal(t, domain.AgentWeb, bar.Agent())
	out := bar.View()
	assert.Contains(t, out, "[WEB]")
	assert.Contains(t, out, "2.50s")
	assert.Contains(t, out, "rate limited")
	assert.Contains(t, out, "new question")
}

func TestBar_ErrorState(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "with message", message: "boom", want: "Error: boom"},
		{name: "without message", want: "Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetState(StateError)
			bar.SetMessage(tt.message)
			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetAnswered(domain.AgentPaper, time.Second, "x")

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Empty(t, bar.Agent())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIngestionState(t *testing.T) {
	tests := []struct {
		state    IngestionState
		valid    bool
		terminal bool
	}{
		{IngestionProcessing, true, false},
		{IngestionEmbedding, true, false},
		{IngestionCompleted, true, true},
		{IngestionFailed, true, true},
		{IngestionState("queued"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.state.IsValid())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestIngestResult_OK(t *testing.T) {
	assert.True(t, IngestResult{Status: IngestSuccess}.OK())
	assert.False(t, IngestResult{Status: IngestError}.OK())
}

package cli

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/triage/internal/core/domain"
)

func sampleEntries() []domain.LogEntry {
	return []domain.LogEntry{
		{
			Timestamp: 1700000300,
			Decision:  domain.AgentPaper,
			Rationale: "Rule: research keywords",
			Input:     "recent papers on diffusion",
			Trace:     domain.Trace{Query: "diffusion"},
		},
		{
			Timestamp: 1700000200,
			Decision:  domain.AgentWeb,
			Rationale: "Rule: web search keywords",
			Input:     "who won the match",
			Trace:     domain.Trace{Query: "who won the match", Error: "rate limited"},
		},
	}
}

func TestLogsCmd_LimitFlag(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantLimit int
	}{
		{name: "default", args: []string{"logs"}, wantLimit: 20},
		{name: "short flag", args: []string{"logs", "-n", "5"}, wantLimit: 5},
		{name: "long flag", args: []string{"logs", "--limit", "50"}, wantLimit: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()

			_, err := execute("", tt.args...)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, ts.logs.lastLimit)
		})
	}
}

func TestLogsCmd_Renders(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.logs.entries = sampleEntries()

	out, err := execute("", "logs")

	require.NoError(t, err)
	assert.Contains(t, out, "PAPER")
	assert.Contains(t, out, "recent papers on diffusion")
	assert.Contains(t, out, "Rule: research keywords")
	assert.Contains(t, out, "rate limited")
	assert.Less(t, strings.Index(out, "diffusion"), strings.Index(out, "who won"), "newest first")
}

func TestLogsCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("", "logs")

	require.NoError(t, err)
	assert.Contains(t, out, "No decisions logged yet.")
}

func TestLogsCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.logs.entries = sampleEntries()

	out, err := execute("", "logs", "--json")

	require.NoError(t, err)
	var got []domain.LogEntry
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, sampleEntries(), got)
}

func TestLogsCmd_ServiceError(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.logs.err = errors.New("corrupt line")

	_, err := execute("", "logs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read decision log")
}

func TestLogsExport(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.logs.entries = sampleEntries()
	path := filepath.Join(t.TempDir(), "decisions.xlsx")

	out, err := execute("", "logs", "export", path, "-n", "10")

	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 decisions")
	assert.Equal(t, 10, ts.logs.lastLimit)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(logsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Time", "Decision", "Rationale", "Input", "Query", "Error"}, rows[0])
	assert.Equal(t, time.Unix(1700000300, 0).UTC().Format(time.RFC3339), rows[1][0])
	assert.Equal(t, "PAPER", rows[1][1])
	assert.Equal(t, "recent papers on diffusion", rows[1][3])
	assert.Equal(t, "rate limited", rows[2][5])
}

func TestLogsExport_RequiresXLSX(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("", "logs", "export", filepath.Join(t.TempDir(), "decisions.csv"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must end in .xlsx")
	assert.Zero(t, ts.logs.lastLimit, "log not read")
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTUICommand_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"tui"})
	require.NoError(t, err)
	assert.Equal(t, "tui", cmd.Name())
}

func TestTUICommand_RequiresAskService(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	SetServices(Services{})

	_, err := execute("", "tui")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ask service is required")
}

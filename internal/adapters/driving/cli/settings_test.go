package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// Test helper functions in settings.go

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM.APIKey = "gsk_1234567890abcd"

	out, err := execute("", "settings", "show")

	require.NoError(t, err)
	for _, section := range []string{"[Embedding]", "[LLM]", "[Web]", "[Paper]", "[Retrieval]", "[Server]"} {
		assert.Contains(t, out, section)
	}
	assert.Contains(t, out, "Groq (cloud)")
	assert.Contains(t, out, "gsk_...abcd")
	assert.NotContains(t, out, "gsk_1234567890abcd")
	assert.Contains(t, out, "Recent window: 540 days")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShow_ValidationWarning(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("serpapi backend requires an API key")

	out, err := execute("", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: serpapi backend requires an API key")
	assert.Contains(t, out, "triage settings wizard")
}

func TestSettingsLLM(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantProvider domain.AIProvider
		wantModel    string
		wantKey      string
		wantErr      string
	}{
		{
			name:         "default groq with key",
			input:        "\n\ngsk_secret\n",
			wantProvider: domain.AIProviderGroq,
			wantModel:    "llama-3.3-70b-versatile",
			wantKey:      "gsk_secret",
		},
		{
			name:         "ollama needs no key",
			input:        "2\nqwen2.5\n",
			wantProvider: domain.AIProviderOllama,
			wantModel:    "qwen2.5",
		},
		{
			name:    "missing key",
			input:   "3\n\n\n",
			wantErr: "API key is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()

			out, err := execute(tt.input, "settings", "llm")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "Validating configuration... OK")
			assert.Equal(t, tt.wantProvider, ts.settings.settings.LLM.Provider)
			assert.Equal(t, tt.wantModel, ts.settings.settings.LLM.Model)
			assert.Equal(t, tt.wantKey, ts.settings.settings.LLM.APIKey)
		})
	}
}

func TestSettingsEmbedding_ValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.pingErr = errors.New("connection refused")

	out, err := execute("1\n\n", "settings", "embedding")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding configuration validation failed")
	assert.Contains(t, out, "FAILED: connection refused")
}

func TestSettingsWeb(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantBackend domain.WebBackend
		wantKey     string
		wantErr     bool
	}{
		{name: "serpapi", input: "1\nserp-key\n", wantBackend: domain.WebBackendSerpAPI, wantKey: "serp-key"},
		{name: "duckduckgo", input: "2\n", wantBackend: domain.WebBackendDuckDuckGo},
		{name: "serpapi without key", input: "1\n\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()

			out, err := execute(tt.input, "settings", "web")

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, "Web search configured: "+string(tt.wantBackend))
			assert.Equal(t, tt.wantBackend, ts.settings.settings.Web.Backend)
			assert.Equal(t, tt.wantKey, ts.settings.settings.Web.SerpAPIKey)
		})
	}
}

func TestSettingsWizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	// LLM: ollama default model; embedding: ollama default; web: duckduckgo.
	out, err := execute("2\n\n1\n\n2\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration Complete!")
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.LLM.Provider)
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, domain.WebBackendDuckDuckGo, ts.settings.settings.Web.Backend)
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	SetServices(Services{})

	for _, sub := range []string{"show", "llm", "embedding", "web", "wizard"} {
		_, err := execute("", "settings", sub)
		require.Error(t, err, sub)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}

package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

func TestConfigStore_SaveIsNoop(t *testing.T) {
	var store driven.ConfigStore = NewConfigStore()
	require.NoError(t, store.Set("web.backend", "duckduckgo"))
	assert.NoError(t, store.Save())
	assert.Equal(t, "duckduckgo", store.GetString("web.backend"))
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("llm.provider", "groq"))
	require.NoError(t, store.Set("llm.provider", "ollama"))

	val, ok := store.Get("llm.provider")
	assert.True(t, ok)
	assert.Equal(t, "ollama", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("str", "value"))
	require.NoError(t, store.Set("int", 42))
	require.NoError(t, store.Set("int64", int64(7)))
	require.NoError(t, store.Set("float", 3.0))

	assert.Equal(t, "value", store.GetString("str"))
	assert.Empty(t, store.GetString("int"), "wrong type")
	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 7, store.GetInt("int64"))
	assert.Equal(t, 3, store.GetInt("float"))
	assert.Zero(t, store.GetInt("str"))
}

func TestConfigStore_GetDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected time.Duration
	}{
		{name: "duration", value: 3 * time.Second, expected: 3 * time.Second},
		{name: "string", value: "540h", expected: 540 * time.Hour},
		{name: "int seconds", value: 2, expected: 2 * time.Second},
		{name: "int64 seconds", value: int64(5), expected: 5 * time.Second},
		{name: "invalid string", value: "soon", expected: 0},
		{name: "wrong type", value: true, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewConfigStore()
			require.NoError(t, store.Set("retry.delay", tt.value))
			assert.Equal(t, tt.expected, store.GetDuration("retry.delay"))
		})
	}

	assert.Zero(t, NewConfigStore().GetDuration("missing"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key.%d", n)
			_ = store.Set(key, n)
			_ = store.GetInt(key)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key.%d", i)))
	}
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// reversedServer answers with embeddings in reverse index order, each vector
// holding the input's length.
func reversedServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var parts []string
		for i := len(req.Input) - 1; i >= 0; i-- {
			parts = append(parts, fmt.Sprintf(`{"index":%d,"embedding":[%d,0.5]}`, i, len(req.Input[i])))
		}
		_, _ = w.Write([]byte(`{"data":[` + strings.Join(parts, ",") + `]}`))
	}))
}

func TestNewEmbeddingService(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, svc.Dimensions())
	assert.Equal(t, "text-embedding-3-large", svc.ModelName())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	var requests int32
	server := reversedServer(t, &requests)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float32{1, 0.5}, got[0])
	assert.Equal(t, []float32{2, 0.5}, got[1])
	assert.Equal(t, []float32{3, 0.5}, got[2])
}

func TestEmbedBatch_SplitsBatches(t *testing.T) {
	var requests int32
	server := reversedServer(t, &requests)
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL, BatchSize: 2})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
	assert.Equal(t, float32(5), got[4][0])
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmbed_MissingVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrUpstream)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrUpstream)
	assert.True(t, domain.IsRetryable(err))
}

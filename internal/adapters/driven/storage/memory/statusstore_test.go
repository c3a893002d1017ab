package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/triage/internal/core/domain"
)

func TestNewStatusStore(t *testing.T) {
	store := NewStatusStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.statuses)
}

func TestStatusStore_PutAndGet(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.Put(ctx, domain.UploadStatus{
		DocID:     "upload_1",
		State:     domain.IngestionProcessing,
		Message:   "Extracting text",
		Filename:  "paper.pdf",
		UpdatedAt: now,
	}))

	got, err := store.Get(ctx, "upload_1")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionProcessing, got.State)
	assert.Equal(t, "paper.pdf", got.Filename)
	assert.Equal(t, now.Unix(), got.UpdatedAt.Unix())
}

func TestStatusStore_PutReplaces(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.UploadStatus{DocID: "d", State: domain.IngestionProcessing}))
	require.NoError(t, store.Put(ctx, domain.UploadStatus{DocID: "d", State: domain.IngestionCompleted, ChunkCount: 7}))

	got, err := store.Get(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, domain.IngestionCompleted, got.State)
	assert.Equal(t, 7, got.ChunkCount)
	assert.False(t, got.UpdatedAt.IsZero(), "timestamp filled in")
}

func TestStatusStore_PutRequiresDocID(t *testing.T) {
	store := NewStatusStore()
	err := store.Put(context.Background(), domain.UploadStatus{State: domain.IngestionFailed})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStatusStore_GetNotFound(t *testing.T) {
	store := NewStatusStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusStore_ListMostRecentFirst(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, store.Put(ctx, domain.UploadStatus{DocID: "old", UpdatedAt: base.Add(-time.Hour)}))
	require.NoError(t, store.Put(ctx, domain.UploadStatus{DocID: "new", UpdatedAt: base}))
	require.NoError(t, store.Put(ctx, domain.UploadStatus{DocID: "mid", UpdatedAt: base.Add(-time.Minute)}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].DocID)
	assert.Equal(t, "mid", list[1].DocID)
	assert.Equal(t, "old", list[2].DocID)
}

func TestStatusStore_Delete(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, domain.UploadStatus{DocID: "d"}))
	require.NoError(t, store.Delete(ctx, "d"))
	require.NoError(t, store.Delete(ctx, "d"), "deleting twice is fine")

	_, err := store.Get(ctx, "d")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusStore_ConcurrentAccess(t *testing.T) {
	store := NewStatusStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("doc_%d", n)
			_ = store.Put(ctx, domain.UploadStatus{DocID: id, State: domain.IngestionProcessing})
			_, _ = store.Get(ctx, id)
			_, _ = store.List(ctx)
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 50)
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

type recordingRecomputer struct {
	mu    sync.Mutex
	calls map[uuid.UUID]int
	fail  int
}

func (r *recordingRecomputer) Recompute(ctx context.Context, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[productID]++
	if r.fail > 0 {
		r.fail--
		return errors.New("database unavailable")
	}
	return nil
}

func (r *recordingRecomputer) count(productID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[productID]
}

func setupTestWorker(t *testing.T, failures int) (*RatingWorker, *recordingRecomputer) {
	recomputer := &recordingRecomputer{calls: map[uuid.UUID]int{}, fail: failures}
	worker := NewRatingWorker(recomputer, logger.New("test"))
	worker.window = 20 * time.Millisecond
	worker.policy = RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond}

	return worker, recomputer
}

func reviewEventJSON(t *testing.T, productID uuid.UUID, ts time.Time) []byte {
	data, err := json.Marshal(reviewEvent{EventType: "review.created", ProductID: productID, Timestamp: ts})
	require.NoError(t, err)
	return data
}

func TestRatingWorker_HandleEvent_Success(t *testing.T) {
	worker, recomputer := setupTestWorker(t, 0)
	productID := uuid.New()

	err := worker.HandleEvent(context.Background(), reviewEventJSON(t, productID, time.Now()))
	assert.NoError(t, err)
	assert.Equal(t, 1, worker.PendingCount())

	assert.Eventually(t, func() bool {
		return recomputer.count(productID) == 1 && worker.PendingCount() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestRatingWorker_HandleEvent_InvalidJSON(t *testing.T) {
	worker, _ := setupTestWorker(t, 0)

	err := worker.HandleEvent(context.Background(), []byte(`{invalid json}`))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestRatingWorker_Debouncing_MultipleEvents(t *testing.T) {
	worker, recomputer := setupTestWorker(t, 0)
	worker.window = time.Second
	productID := uuid.New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, worker.HandleEvent(context.Background(), reviewEventJSON(t, productID, now.Add(time.Duration(i)*time.Millisecond))))
	}
	assert.Equal(t, 1, worker.PendingCount())

	require.NoError(t, worker.Shutdown(context.Background()))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, recomputer.count(productID))
}

func TestRatingWorker_RetriesTransientFailure(t *testing.T) {
	worker, recomputer := setupTestWorker(t, 2)
	productID := uuid.New()

	require.NoError(t, worker.HandleEvent(context.Background(), reviewEventJSON(t, productID, time.Now())))

	assert.Eventually(t, func() bool {
		return recomputer.count(productID) == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, worker.Shutdown(context.Background()))
	assert.Equal(t, 3, recomputer.count(productID))
}

func TestRatingWorker_IgnoresEventsAfterShutdown(t *testing.T) {
	worker, recomputer := setupTestWorker(t, 0)
	productID := uuid.New()

	require.NoError(t, worker.Shutdown(context.Background()))
	require.NoError(t, worker.HandleEvent(context.Background(), reviewEventJSON(t, productID, time.Now())))

	assert.Equal(t, 0, worker.PendingCount())
	assert.Equal(t, 0, recomputer.count(productID))
}

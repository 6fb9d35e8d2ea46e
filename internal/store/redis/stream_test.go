package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublish(t *testing.T) {
	pub := NewInMemory()
	runID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, pub.Publish(context.Background(), IterationEvent{
			RunID:     runID,
			NetworkID: "net-1",
			Iteration: i,
			Fitness:   float64(10 - i),
			State:     "RUNNING",
			Timestamp: time.Now(),
		}))
	}

	events := pub.Events()
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, runID, ev.RunID)
		assert.Equal(t, i, ev.Iteration)
	}
	assert.NoError(t, pub.Close())
}

func TestInMemoryEventsReturnsCopy(t *testing.T) {
	pub := NewInMemory()
	require.NoError(t, pub.Publish(context.Background(), IterationEvent{Iteration: 0}))

	events := pub.Events()
	events[0].Iteration = 99
	assert.Equal(t, 0, pub.Events()[0].Iteration)
}

func TestInMemoryConcurrentPublish(t *testing.T) {
	pub := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = pub.Publish(context.Background(), IterationEvent{Iteration: i})
		}(i)
	}
	wg.Wait()
	assert.Len(t, pub.Events(), 20)
}

func TestNewStreamRejectsBadURL(t *testing.T) {
	_, err := NewStream("not-a-redis-url", "calibration")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

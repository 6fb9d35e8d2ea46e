// Package redis publishes calibration progress events to a Redis stream so
// operators can follow long runs without polling the database.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IterationEvent is emitted once per completed calibration iteration and
// once at run termination.
type IterationEvent struct {
	RunID     uuid.UUID
	NetworkID string
	Iteration int
	Fitness   float64
	State     string
	Timestamp time.Time
}

// EventPublisher abstracts the progress channel; redis-backed in
// production, in-memory in tests.
type EventPublisher interface {
	Publish(ctx context.Context, ev IterationEvent) error
	Close() error
}

type Stream struct {
	client    *redis.Client
	namespace string
}

func NewStream(url, namespace string) (*Stream, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if namespace == "" {
		namespace = "calibration"
	}
	return &Stream{client: client, namespace: namespace}, nil
}

func (s *Stream) Publish(ctx context.Context, ev IterationEvent) error {
	key := s.namespace + ":events:" + ev.RunID.String()
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		Values: map[string]any{
			"network":   ev.NetworkID,
			"iteration": strconv.Itoa(ev.Iteration),
			"fitness":   strconv.FormatFloat(ev.Fitness, 'g', -1, 64),
			"state":     ev.State,
			"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", key, err)
	}
	return nil
}

func (s *Stream) Close() error {
	return s.client.Close()
}

// InMemory buffers events for tests and for runs without a Redis endpoint.
type InMemory struct {
	mu     sync.Mutex
	events []IterationEvent
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) Publish(_ context.Context, ev IterationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *InMemory) Events() []IterationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]IterationEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *InMemory) Close() error { return nil }

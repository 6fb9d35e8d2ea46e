package sim

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		class  Class
		reason string
	}{
		{
			name:   "nil error",
			err:    nil,
			class:  ClassTerminal,
			reason: "nil_error",
		},
		{
			name:   "simulation timeout",
			err:    &SimulationError{Engine: "engine-http", Iteration: 3, Timeout: true, Err: errors.New("deadline")},
			class:  ClassTransient,
			reason: "simulation_timeout",
		},
		{
			name:   "context canceled",
			err:    fmt.Errorf("simulate: %w", context.Canceled),
			class:  ClassTerminal,
			reason: "context_canceled",
		},
		{
			name:   "context deadline",
			err:    fmt.Errorf("simulate: %w", context.DeadlineExceeded),
			class:  ClassTransient,
			reason: "context_deadline_exceeded",
		},
		{
			name:   "engine busy message",
			err:    errors.New("engine returned http status 500: engine busy, 2 scenarios queued"),
			class:  ClassTransient,
			reason: "message_transient",
		},
		{
			name:   "license in use",
			err:    errors.New("engine returned http status 500: license in use by another host"),
			class:  ClassTransient,
			reason: "message_transient",
		},
		{
			name:   "bad gateway status",
			err:    errors.New("engine returned http status 502: "),
			class:  ClassTransient,
			reason: "message_transient",
		},
		{
			name:   "malformed output",
			err:    errors.New("malformed output: unexpected end of JSON input"),
			class:  ClassTerminal,
			reason: "message_terminal",
		},
		{
			name:   "scenario build failed",
			err:    errors.New("engine returned http status 500: scenario build failed"),
			class:  ClassTerminal,
			reason: "message_terminal",
		},
		{
			name:   "unknown defaults terminal",
			err:    errors.New("something unexpected"),
			class:  ClassTerminal,
			reason: "unknown_terminal_default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.err)
			assert.Equal(t, tt.class, d.Class)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestSimulationErrorUnwrap(t *testing.T) {
	cause := errors.New("post scenario: connection refused")
	err := &SimulationError{Engine: "engine-http", Iteration: 1, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "engine-http")
	assert.Contains(t, err.Error(), "iteration 1")
}

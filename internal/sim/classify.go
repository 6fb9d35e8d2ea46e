package sim

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Simulator failures are never retried automatically (the operator resumes
// from the last saved iteration), but the classification is recorded so the
// operator can tell a transient host hiccup from a broken scenario.

type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

type Decision struct {
	Class  Class
	Reason string
}

func (d Decision) IsTransient() bool {
	return d.Class == ClassTransient
}

func Classify(err error) Decision {
	if err == nil {
		return Decision{Class: ClassTerminal, Reason: "nil_error"}
	}

	var simErr *SimulationError
	if errors.As(err, &simErr) && simErr.Timeout {
		return Decision{Class: ClassTransient, Reason: "simulation_timeout"}
	}

	if errors.Is(err, context.Canceled) {
		return Decision{Class: ClassTerminal, Reason: "context_canceled"}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Decision{Class: ClassTransient, Reason: "context_deadline_exceeded"}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Decision{Class: ClassTransient, Reason: "net_timeout"}
	}

	lower := strings.ToLower(err.Error())
	if containsAny(lower, terminalMessageTokens) {
		return Decision{Class: ClassTerminal, Reason: "message_terminal"}
	}
	if containsAny(lower, transientMessageTokens) {
		return Decision{Class: ClassTransient, Reason: "message_transient"}
	}

	return Decision{Class: ClassTerminal, Reason: "unknown_terminal_default"}
}

func containsAny(msg string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(msg, token) {
			return true
		}
	}
	return false
}

var transientMessageTokens = []string{
	"timeout",
	"timed out",
	"temporar",
	"unavailable",
	"connection reset",
	"connection refused",
	"broken pipe",
	"too many requests",
	"http status 429",
	"http status 502",
	"http status 503",
	"http status 504",
	"engine busy",
	"license in use",
}

var terminalMessageTokens = []string{
	"malformed output",
	"unknown network",
	"unknown scenario",
	"invalid demand",
	"invalid control plan",
	"scenario build failed",
	"engine crashed",
}

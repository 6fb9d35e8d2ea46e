package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/johnlee-jh/traffic-microsimulation/internal/domain/model"
	"github.com/johnlee-jh/traffic-microsimulation/internal/metrics"
	"github.com/johnlee-jh/traffic-microsimulation/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// HTTPSimulator drives the host engine through its HTTP scenario bridge.
// One POST per iteration; the bridge blocks until the scenario finishes.
type HTTPSimulator struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

type HTTPConfig struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

func NewHTTPSimulator(cfg HTTPConfig, logger *slog.Logger) (*HTTPSimulator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("simulator base url is required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("simulator timeout must be positive, got %s", cfg.Timeout)
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPSimulator{
		baseURL: cfg.BaseURL,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		timeout: cfg.Timeout,
		logger:  logger.With("component", "simulator"),
	}, nil
}

func (s *HTTPSimulator) Name() string { return "engine-http" }

type simulateRequestBody struct {
	RunID     uuid.UUID                    `json:"run_id"`
	Iteration int                          `json:"iteration"`
	NetworkID string                       `json:"network_id"`
	Demand    demandBody                   `json:"demand"`
	Control   *model.ControlPlan           `json:"control_plan,omitempty"`
	SpeedCap  *model.SpeedCapacityTable    `json:"speed_capacity,omitempty"`
	Centroids *model.CentroidConfiguration `json:"centroid_configuration,omitempty"`
}

type demandBody struct {
	Intervals int          `json:"intervals"`
	Cells     []demandCell `json:"cells"`
}

type demandCell struct {
	Origin      model.CentroidID `json:"origin"`
	Destination model.CentroidID `json:"destination"`
	Interval    int              `json:"interval"`
	Demand      float64          `json:"demand"`
}

type simulateResponseBody struct {
	EngineVersion string     `json:"engine_version"`
	Flows         []flowBody `json:"flows"`
}

type flowBody struct {
	Section  model.SectionID `json:"section"`
	Interval int             `json:"interval"`
	Flow     float64         `json:"flow"`
}

func (s *HTTPSimulator) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	network := req.Network.ID()

	if err := s.wait(ctx, network); err != nil {
		return nil, &SimulationError{Engine: s.Name(), Iteration: req.Iteration, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := tracing.Tracer("sim").Start(ctx, "simulate")
	defer span.End()
	span.SetAttributes(
		attribute.String("network", network),
		attribute.Int("iteration", req.Iteration),
	)

	started := time.Now()
	result, err := s.post(ctx, req)
	elapsed := time.Since(started)

	metrics.SimulateDuration.WithLabelValues(network).Observe(elapsed.Seconds())
	if err != nil {
		simErr := &SimulationError{
			Engine:    s.Name(),
			Iteration: req.Iteration,
			Timeout:   isTimeout(err),
			Err:       err,
		}
		metrics.SimulateCalls.WithLabelValues(network, "error").Inc()
		s.logger.Error("simulation failed",
			"network", network, "iteration", req.Iteration,
			"timeout", simErr.Timeout, "elapsed", elapsed, "error", err)
		return nil, simErr
	}

	metrics.SimulateCalls.WithLabelValues(network, "ok").Inc()
	result.Elapsed = elapsed
	s.logger.Info("simulation completed",
		"network", network, "iteration", req.Iteration,
		"flows", result.Flows.Len(), "elapsed", elapsed)
	return result, nil
}

// wait blocks on the rate limiter, counting delayed calls.
func (s *HTTPSimulator) wait(ctx context.Context, network string) error {
	r := s.limiter.Reserve()
	if !r.OK() {
		return fmt.Errorf("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.SimulateRateLimitWaits.WithLabelValues(network).Inc()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

func (s *HTTPSimulator) post(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	body := simulateRequestBody{
		RunID:     req.RunID,
		Iteration: req.Iteration,
		NetworkID: req.Network.ID(),
		Demand:    demandBody{Intervals: req.Demand.Intervals()},
		Control:   req.Tables.ControlPlan,
		SpeedCap:  req.Tables.SpeedCapacity,
		Centroids: req.Tables.CentroidConf,
	}
	for _, c := range req.Demand.Cells() {
		body.Demand.Cells = append(body.Demand.Cells, demandCell{
			Origin:      c.Origin,
			Destination: c.Destination,
			Interval:    c.Interval,
			Demand:      c.Demand,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/simulate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post scenario: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("engine returned http status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var parsed simulateResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("malformed output: %w", err)
	}

	flows := make([]model.SimulatedFlow, 0, len(parsed.Flows))
	for _, f := range parsed.Flows {
		flows = append(flows, model.SimulatedFlow{Section: f.Section, Interval: f.Interval, Flow: f.Flow})
	}
	flowSet, err := model.NewSimulatedFlowSet(flows)
	if err != nil {
		return nil, fmt.Errorf("malformed output: %w", err)
	}

	return &SimulationResult{Flows: flowSet, EngineVersion: parsed.EngineVersion}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

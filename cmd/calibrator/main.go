package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/johnlee-jh/traffic-microsimulation/internal/adjust"
	"github.com/johnlee-jh/traffic-microsimulation/internal/alert"
	"github.com/johnlee-jh/traffic-microsimulation/internal/config"
	"github.com/johnlee-jh/traffic-microsimulation/internal/controller"
	"github.com/johnlee-jh/traffic-microsimulation/internal/discrepancy"
	"github.com/johnlee-jh/traffic-microsimulation/internal/input"
	"github.com/johnlee-jh/traffic-microsimulation/internal/matcher"
	"github.com/johnlee-jh/traffic-microsimulation/internal/sim"
	"github.com/johnlee-jh/traffic-microsimulation/internal/store"
	"github.com/johnlee-jh/traffic-microsimulation/internal/store/filestore"
	"github.com/johnlee-jh/traffic-microsimulation/internal/store/postgres"
	redispkg "github.com/johnlee-jh/traffic-microsimulation/internal/store/redis"
	"github.com/johnlee-jh/traffic-microsimulation/internal/tracing"
)

func main() {
	logLevel := slog.LevelInfo
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	switch cfg.Log.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting od-calibrator",
		"backend", cfg.Paths.Backend,
		"simulator_url", cfg.Simulator.BaseURL,
		"network_file", cfg.Paths.NetworkFile,
		"alpha", cfg.Calibration.Alpha,
		"max_iterations", cfg.Calibration.MaxIterations,
		"convergence_threshold", cfg.Calibration.ConvergenceThreshold,
	)

	shutdownTracing, err := tracing.Init(context.Background(), tracing.Config{
		ServiceName: "od-calibrator",
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown error", "error", err)
		}
	}()

	st, cleanup, err := buildStore(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err, "backend", cfg.Paths.Backend)
		os.Exit(1)
	}
	defer cleanup()

	events, err := buildEventPublisher(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize event stream", "error", err, "redis_url", cfg.Redis.URL)
		os.Exit(1)
	}
	defer events.Close()

	inputs, weights, err := loadInputs(cfg, logger)
	if err != nil {
		logger.Error("failed to load inputs", "error", err)
		os.Exit(1)
	}
	logger.Info("inputs loaded",
		"network", inputs.Network.ID(),
		"centroids", inputs.Network.NumCentroids(),
		"detectors", len(inputs.Network.Detectors()),
		"observations", len(inputs.Observations.All()),
		"od_cells", len(inputs.Initial.Cells()),
	)

	simulator, err := sim.NewHTTPSimulator(sim.HTTPConfig{
		BaseURL: cfg.Simulator.BaseURL,
		Timeout: cfg.Simulator.Timeout,
		RPS:     cfg.Simulator.RPS,
		Burst:   cfg.Simulator.Burst,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize simulator client", "error", err)
		os.Exit(1)
	}

	engine, err := adjust.New(adjust.Options{
		Alpha:          cfg.Calibration.Alpha,
		MaxChangeRatio: cfg.Calibration.MaxChangeRatio,
	}, weights, logger)
	if err != nil {
		logger.Error("failed to initialize adjustment engine", "error", err)
		os.Exit(1)
	}

	ctrl, err := controller.New(
		controller.Options{
			ConvergenceThreshold:  cfg.Calibration.ConvergenceThreshold,
			MaxIterations:         cfg.Calibration.MaxIterations,
			DivergenceMargin:      cfg.Calibration.DivergenceMargin,
			DivergenceConsecutive: cfg.Calibration.DivergenceConsecutive,
			WarningFlood:          cfg.Alert.WarningFlood,
		},
		simulator,
		matcher.New(cfg.Calibration.MatchWorkers, logger),
		discrepancy.Options{
			Epsilon:           cfg.Calibration.Epsilon,
			MinValidIntervals: cfg.Calibration.MinValidIntervals,
			Workers:           cfg.Calibration.EvalWorkers,
		},
		engine,
		st,
		events,
		buildAlerter(cfg, logger),
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize controller", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHealthServer(gCtx, cfg.Server.HealthPort, logger)
	})

	g.Go(func() error {
		defer cancel()
		outcome, err := runCalibration(gCtx, ctrl, cfg, inputs, logger)
		if err != nil {
			return err
		}
		logger.Info("calibration finished",
			"run_id", outcome.Report.RunID,
			"state", outcome.Report.State,
			"accepted_iteration", outcome.Report.AcceptedIteration,
			"accepted_fitness", outcome.Report.AcceptedFitness,
			"iterations", len(outcome.Report.Iterations),
		)
		return nil
	})

	g.Go(func() error {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("calibrator exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("calibrator shut down gracefully")
}

func runCalibration(
	ctx context.Context,
	ctrl *controller.Controller,
	cfg *config.Config,
	inputs controller.Inputs,
	logger *slog.Logger,
) (*controller.Outcome, error) {
	if cfg.Calibration.ResumeRunID != "" {
		runID, err := uuid.Parse(cfg.Calibration.ResumeRunID)
		if err != nil {
			return nil, fmt.Errorf("parse resume run id: %w", err)
		}
		logger.Info("resuming calibration run", "run_id", runID)
		return ctrl.Resume(ctx, runID, inputs)
	}
	runID := uuid.New()
	logger.Info("starting calibration run", "run_id", runID, "network", inputs.Network.ID())
	return ctrl.Run(ctx, runID, inputs)
}

func buildStore(cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Paths.Backend {
	case "postgres":
		db, err := postgres.New(postgres.Config{
			URL:             cfg.DB.URL,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.RunMigrations(cfg.DB.MigrationsDir); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("connected to database")
		return postgres.NewStore(db), func() { db.Close() }, nil

	case "file":
		fs, err := filestore.New(cfg.Paths.StorageRoot, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize file store: %w", err)
		}
		logger.Info("file store ready", "root", cfg.Paths.StorageRoot)
		return fs, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Paths.Backend)
	}
}

func buildEventPublisher(cfg *config.Config, logger *slog.Logger) (redispkg.EventPublisher, error) {
	if !cfg.Redis.Enabled {
		return redispkg.NewInMemory(), nil
	}
	stream, err := redispkg.NewStream(cfg.Redis.URL, cfg.Redis.Namespace)
	if err != nil {
		return nil, err
	}
	logger.Info("redis progress events enabled", "namespace", cfg.Redis.Namespace)
	return stream, nil
}

func buildAlerter(cfg *config.Config, logger *slog.Logger) alert.Alerter {
	cooldown := time.Duration(cfg.Alert.CooldownMinutes) * time.Minute
	if cfg.Alert.WebhookURL == "" {
		return alert.NewMultiAlerter(cooldown, logger)
	}
	return alert.NewMultiAlerter(cooldown, logger, alert.NewWebhookAlerter(cfg.Alert.WebhookURL))
}

func loadInputs(cfg *config.Config, logger *slog.Logger) (controller.Inputs, adjust.Weights, error) {
	network, err := input.LoadNetwork(cfg.Paths.NetworkFile)
	if err != nil {
		return controller.Inputs{}, nil, err
	}
	tables, err := input.LoadStaticTables(cfg.Paths.StaticTablesFile)
	if err != nil {
		return controller.Inputs{}, nil, err
	}
	observations, excluded, err := input.LoadObservations(cfg.Paths.ObservationsFile, network.Window(), logger)
	if err != nil {
		return controller.Inputs{}, nil, err
	}
	if len(excluded) > 0 {
		logger.Warn("misaligned detectors excluded from calibration",
			"network", network.ID(), "count", len(excluded))
	}
	initial, err := input.LoadMatrix(cfg.Paths.InitialMatrixFile, network.Window())
	if err != nil {
		return controller.Inputs{}, nil, err
	}
	weights, err := input.LoadAssignmentWeights(cfg.Paths.AssignmentFile)
	if err != nil {
		return controller.Inputs{}, nil, err
	}
	return controller.Inputs{
		Network:      network,
		Observations: observations,
		Initial:      initial,
		Tables:       tables,
	}, weights, nil
}

func runHealthServer(ctx context.Context, port int, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Warn("failed to write health response", "error", err)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()

	logger.Info("health server started", "port", port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	natsadapter "github.com/ChicagoDave/polyplanner/internal/adapters/nats"
	"github.com/ChicagoDave/polyplanner/internal/adapters/valkey"
	"github.com/ChicagoDave/polyplanner/internal/config"
	"github.com/ChicagoDave/polyplanner/internal/metrics"
	"github.com/ChicagoDave/polyplanner/internal/server"
	"github.com/ChicagoDave/polyplanner/internal/telemetry"
	"github.com/ChicagoDave/polyplanner/pkg/packing"
	"github.com/ChicagoDave/polyplanner/pkg/planner"
	"github.com/ChicagoDave/polyplanner/pkg/result"
	"github.com/ChicagoDave/polyplanner/pkg/scene2d"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

type planOptions struct {
	format   string
	blocks   bool
	progress bool
}

// loadAndValidate loads the spec and runs schema validation.
func loadAndValidate(projectPath string) (*spec.PlanSpec, *validation.Report, error) {
	planSpec, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spec: %w", err)
	}
	return planSpec, validation.ValidateSchema(planSpec), nil
}

func newPlanner(cfg *config.Config) *planner.Planner {
	return planner.New(
		planner.WithLogger(slog.Default()),
		planner.WithDefaultTerrainURL(cfg.Terrain.SourceURL),
	)
}

func runPlan(ctx context.Context, cfg *config.Config, projectPath string, opts planOptions) error {
	switch opts.format {
	case "json", "geojson", "scene", "svg", "summary":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	planSpec, schemaReport, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}
	if !schemaReport.Valid {
		printValidationReport(os.Stderr, schemaReport)
		return fmt.Errorf("spec has validation errors")
	}

	var progress func(packing.Event)
	if opts.progress {
		progress = func(e packing.Event) {
			slog.Info("progress", "kind", e.Kind, "tier", e.Tier, "angle", e.Angle, "structures", e.Structures, "placed_area", e.PlacedArea)
		}
	}

	res, err := newPlanner(cfg).PlanWithProgress(ctx, planSpec, progress)
	if err != nil {
		if ie, ok := planner.IsInputError(err); ok {
			printValidationReport(os.Stderr, ie.Report)
		}
		return err
	}

	switch opts.format {
	case "geojson":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.FeatureCollection(res, opts.blocks))
	case "scene":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scene2d.Assemble2D(planSpec, res))
	case "svg":
		return scene2d.RenderSVG(os.Stdout, scene2d.Assemble2D(planSpec, res), scene2d.SVGOptions{Blocks: opts.blocks})
	case "summary":
		printPlanSummary(os.Stdout, res)
		return nil
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
}

func runValidate(ctx context.Context, cfg *config.Config, projectPath string, placement bool) error {
	planSpec, report, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	if placement && report.Valid {
		res, err := newPlanner(cfg).Plan(ctx, planSpec)
		if err != nil {
			return err
		}
		report = res.Validation
	}

	printValidationReport(os.Stdout, report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func runSolar(w io.Writer, arg string) error {
	lat, err := strconv.ParseFloat(arg, 64)
	if err != nil || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be a number in [-90, 90], got %q", arg)
	}
	printSolarWindow(w, lat, solar.Window(lat), solar.SuggestedOrientations(lat))
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, projectPath string) error {
	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(sctx)
			}()
		}
	}

	// Job store
	var store planner.JobStore = planner.NewMemoryStore()
	if cfg.Valkey.Enabled {
		vs, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix, time.Duration(cfg.Valkey.JobTTL)*time.Second)
		if err != nil {
			slog.Warn("valkey unavailable, keeping jobs in memory", "error", err)
		} else {
			defer vs.Close()
			store = vs
		}
	}

	// Progress events
	var events planner.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			slog.Warn("nats unavailable, progress events disabled", "error", err)
		} else {
			defer pub.Close()
			events = pub
		}
	}

	p := planner.New(
		planner.WithLogger(slog.Default()),
		planner.WithDefaultTerrainURL(cfg.Terrain.SourceURL),
		planner.WithObserver(metrics.PlanObserver{}),
	)

	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	pool := planner.NewPool(p, store, events, planner.PoolConfig{
		Workers:    cfg.Workers.Count,
		QueueSize:  cfg.Workers.QueueSize,
		JobTimeout: cfg.Workers.JobTimeoutDuration(),
	}, slog.Default())
	pool.Start(poolCtx)

	srv := server.New(p, pool, server.Config{
		ProjectPath:  projectPath,
		Version:      version,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	}, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		pool.Stop()
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, draining connections")

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Error("server shutdown", "error", err)
	}

	// Running and queued jobs finish early with partial results.
	cancelPool()
	pool.Stop()
	slog.Info("server stopped")
	return nil
}

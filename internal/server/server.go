package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ChicagoDave/polyplanner/internal/metrics"
	"github.com/ChicagoDave/polyplanner/pkg/planner"
)

// Config configures the HTTP server.
type Config struct {
	// ProjectPath is an optional project directory whose plan.yaml is
	// served at /v1/project.
	ProjectPath  string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

// Server exposes the planner over HTTP.
type Server struct {
	app       *fiber.App
	planner   *planner.Planner
	pool      *planner.Pool
	cfg       Config
	logger    *slog.Logger
	startedAt time.Time
}

// New creates a server. pool may be nil, in which case the job endpoints
// answer 503.
func New(p *planner.Planner, pool *planner.Pool, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	app := fiber.New(fiber.Config{
		AppName:               "polyplanner",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})
	s := &Server{
		app:       app,
		planner:   p,
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(metrics.Middleware())
	s.app.Use(requestid.New())
	s.app.Use(s.accessLog())

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", metrics.Handler())

	v1 := s.app.Group("/v1")
	v1.Get("/project", s.handleProject)
	v1.Post("/project/plan", s.handleProjectPlan)
	v1.Post("/plans", s.handlePlan)
	v1.Post("/validate", s.handleValidate)
	v1.Post("/jobs", s.handleSubmitJob)
	v1.Get("/jobs/:id", s.handleGetJob)
	v1.Get("/solar", s.handleSolar)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on port until Shutdown is called.
func (s *Server) Listen(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("polyplanner server starting", "addr", addr, "project", s.cfg.ProjectPath)
	return s.app.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// accessLog logs each request with its request ID.
func (s *Server) accessLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		switch {
		case err != nil || status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, slog.String("request_id", rid))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.LogAttrs(c.Context(), level, "request", attrs...)
		return err
	}
}

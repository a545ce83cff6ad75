package server

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ChicagoDave/polyplanner/pkg/planner"
	"github.com/ChicagoDave/polyplanner/pkg/result"
	"github.com/ChicagoDave/polyplanner/pkg/scene2d"
	"github.com/ChicagoDave/polyplanner/pkg/solar"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
	"github.com/ChicagoDave/polyplanner/pkg/validation"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"uptime":  time.Since(s.startedAt).String(),
		"version": s.cfg.Version,
		"jobs":    s.pool != nil,
	})
}

// parseSpec decodes the request body as YAML when the content type says
// so and as JSON otherwise.
func parseSpec(c *fiber.Ctx) (*spec.PlanSpec, error) {
	body := c.Body()
	if len(body) == 0 {
		return nil, errors.New("request body is empty")
	}
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	if strings.Contains(ct, "yaml") {
		return spec.Parse(body)
	}
	return spec.ParseJSON(body)
}

func (s *Server) loadProject() (*spec.PlanSpec, error) {
	if s.cfg.ProjectPath == "" {
		return nil, os.ErrNotExist
	}
	return spec.LoadProject(s.cfg.ProjectPath)
}

func (s *Server) handleProject(c *fiber.Ctx) error {
	ps, err := s.loadProject()
	if errors.Is(err, os.ErrNotExist) {
		return errNotFound(c, "no project plan configured")
	}
	if err != nil {
		return errInternal(c, err.Error())
	}
	return c.JSON(ps)
}

func (s *Server) handleProjectPlan(c *fiber.Ctx) error {
	ps, err := s.loadProject()
	if errors.Is(err, os.ErrNotExist) {
		return errNotFound(c, "no project plan configured")
	}
	if err != nil {
		return errInternal(c, err.Error())
	}
	return s.plan(c, ps)
}

func (s *Server) handlePlan(c *fiber.Ctx) error {
	ps, err := parseSpec(c)
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	return s.plan(c, ps)
}

func (s *Server) plan(c *fiber.Ctx, ps *spec.PlanSpec) error {
	res, err := s.planner.Plan(c.UserContext(), ps)
	if err != nil {
		return s.planError(c, err)
	}
	blocks := c.QueryBool("blocks", false)
	switch c.Query("format", "json") {
	case "json":
		return c.JSON(res)
	case "geojson":
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.JSON(result.FeatureCollection(res, blocks))
	case "scene":
		return c.JSON(scene2d.Assemble2D(ps, res))
	case "svg":
		var buf bytes.Buffer
		opts := scene2d.SVGOptions{Width: c.QueryInt("width", 1024), Blocks: blocks}
		if err := scene2d.RenderSVG(&buf, scene2d.Assemble2D(ps, res), opts); err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "image/svg+xml")
		return c.Send(buf.Bytes())
	default:
		return errBadRequest(c, "format must be json, geojson, scene or svg")
	}
}

func (s *Server) planError(c *fiber.Ctx, err error) error {
	if ie, ok := planner.IsInputError(err); ok {
		return newErrorDetails(c, fiber.StatusUnprocessableEntity, "invalid_plan", ie.Error(), ie.Report)
	}
	switch {
	case errors.Is(err, planner.ErrQueueFull):
		return newError(c, fiber.StatusTooManyRequests, "queue_full", err.Error())
	case errors.Is(err, planner.ErrPoolClosed):
		return newError(c, fiber.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusServiceUnavailable, "cancelled", err.Error())
	}
	s.logger.Error("plan failed", "error", err)
	return errInternal(c, err.Error())
}

func (s *Server) handleValidate(c *fiber.Ctx) error {
	ps, err := parseSpec(c)
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	return c.JSON(validation.ValidateSchema(ps))
}

func (s *Server) handleSubmitJob(c *fiber.Ctx) error {
	if s.pool == nil {
		return newError(c, fiber.StatusServiceUnavailable, "unavailable", "asynchronous jobs are disabled")
	}
	ps, err := parseSpec(c)
	if err != nil {
		return errBadRequest(c, err.Error())
	}
	job, err := s.pool.Submit(c.UserContext(), ps)
	if err != nil {
		return s.planError(c, err)
	}
	c.Location("/v1/jobs/" + job.ID)
	return c.Status(fiber.StatusAccepted).JSON(job)
}

func (s *Server) handleGetJob(c *fiber.Ctx) error {
	if s.pool == nil {
		return newError(c, fiber.StatusServiceUnavailable, "unavailable", "asynchronous jobs are disabled")
	}
	job, err := s.pool.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, planner.ErrJobNotFound) {
		return errNotFound(c, "job not found")
	}
	if err != nil {
		return errInternal(c, err.Error())
	}
	return c.JSON(job)
}

func (s *Server) handleSolar(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return errBadRequest(c, "lat must be a number in [-90, 90]")
	}
	return c.JSON(fiber.Map{
		"latitude":     lat,
		"window":       solar.Window(lat),
		"orientations": solar.SuggestedOrientations(lat),
	})
}

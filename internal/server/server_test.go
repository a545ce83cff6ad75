package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/polyplanner/internal/server"
	"github.com/ChicagoDave/polyplanner/pkg/geo"
	"github.com/ChicagoDave/polyplanner/pkg/planner"
	"github.com/ChicagoDave/polyplanner/pkg/spec"
)

const projectPath = "../../pkg/spec/testdata/north-field"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(t *testing.T, withPool bool, project string) *server.Server {
	t.Helper()
	p := planner.New(planner.WithLogger(quietLogger()))
	var pool *planner.Pool
	if withPool {
		pool = planner.NewPool(p, planner.NewMemoryStore(), nil, planner.PoolConfig{Workers: 1, QueueSize: 4}, quietLogger())
		ctx, cancel := context.WithCancel(context.Background())
		pool.Start(ctx)
		t.Cleanup(func() {
			pool.Stop()
			cancel()
		})
	}
	return server.New(p, pool, server.Config{ProjectPath: project, Version: "test"}, quietLogger())
}

func squareBody(t *testing.T) []byte {
	t.Helper()
	s := spec.Default()
	s.Name = "square"
	d := 100 / geo.MetersPerDegree
	s.Boundary = []geo.GeoPoint{{Lat: -d, Lng: -d}, {Lat: -d, Lng: d}, {Lat: d, Lng: d}, {Lat: d, Lng: -d}}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return data
}

func do(t *testing.T, srv *server.Server, method, path string, body []byte, contentType string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := srv.App().Test(req, 30000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv := newServer(t, false, "")
	status, body := do(t, srv, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, false, body["jobs"])
}

func TestPlanJSON(t *testing.T) {
	srv := newServer(t, false, "")
	status, body := do(t, srv, http.MethodPost, "/v1/plans", squareBody(t), "application/json")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "square", body["name"])
	structures, ok := body["structures"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, structures)
	assert.Greater(t, body["coverage_percentage"].(float64), 50.0)
}

func TestPlanGeoJSON(t *testing.T) {
	srv := newServer(t, false, "")
	status, body := do(t, srv, http.MethodPost, "/v1/plans?format=geojson", squareBody(t), "application/json")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "FeatureCollection", body["type"])
	assert.NotEmpty(t, body["features"])
}

func TestPlanSVG(t *testing.T) {
	srv := newServer(t, false, "")
	req := httptest.NewRequest(http.MethodPost, "/v1/plans?format=svg&blocks=true&width=640", bytes.NewReader(squareBody(t)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, 30000)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), `width="640"`)
	assert.Contains(t, string(data), `data-id="ph_1"`)
}

func TestPlanScene(t *testing.T) {
	srv := newServer(t, false, "")
	status, body := do(t, srv, http.MethodPost, "/v1/plans?format=scene", squareBody(t), "application/json")
	require.Equal(t, http.StatusOK, status)
	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "square", meta["name"])
	assert.NotEmpty(t, body["structures"])
}

func TestPlanUnknownFormat(t *testing.T) {
	srv := newServer(t, false, "")
	status, _ := do(t, srv, http.MethodPost, "/v1/plans?format=dxf", squareBody(t), "application/json")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPlanYAML(t *testing.T) {
	srv := newServer(t, false, "")
	yaml := []byte(`name: yaml-square
constraints:
  solar_enabled: false
boundary:
  - {lat: 0, lng: 0}
  - {lat: 0, lng: 0.0005}
  - {lat: 0.0005, lng: 0.0005}
  - {lat: 0.0005, lng: 0}
`)
	status, body := do(t, srv, http.MethodPost, "/v1/plans", yaml, "application/yaml")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "yaml-square", body["name"])
}

func TestPlanBadBody(t *testing.T) {
	srv := newServer(t, false, "")
	status, body := do(t, srv, http.MethodPost, "/v1/plans", []byte("{not json"), "application/json")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body["code"])
	assert.NotEmpty(t, body["request_id"])

	status, _ = do(t, srv, http.MethodPost, "/v1/plans", nil, "application/json")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPlanInvalidSpec(t *testing.T) {
	srv := newServer(t, false, "")
	body := []byte(`{"name":"line","boundary":[{"lat":0,"lng":0},{"lat":0,"lng":0.001}]}`)
	status, out := do(t, srv, http.MethodPost, "/v1/plans", body, "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_plan", out["code"])
	details, ok := out["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, details["valid"])
	assert.NotEmpty(t, details["errors"])
}

func TestValidate(t *testing.T) {
	srv := newServer(t, false, "")
	status, out := do(t, srv, http.MethodPost, "/v1/validate", squareBody(t), "application/json")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, out["valid"])

	bad := []byte(`{"boundary":[],"structure":{"min_side":50,"max_side":10}}`)
	status, out = do(t, srv, http.MethodPost, "/v1/validate", bad, "application/json")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, out["valid"])
}

func TestProject(t *testing.T) {
	srv := newServer(t, false, projectPath)
	status, out := do(t, srv, http.MethodGet, "/v1/project", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "north-field", out["name"])

	status, out = do(t, srv, http.MethodPost, "/v1/project/plan", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "north-field", out["name"])
	assert.NotEmpty(t, out["structures"])
}

func TestProjectMissing(t *testing.T) {
	srv := newServer(t, false, "")
	status, out := do(t, srv, http.MethodGet, "/v1/project", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", out["code"])
}

func TestJobsDisabled(t *testing.T) {
	srv := newServer(t, false, "")
	status, _ := do(t, srv, http.MethodPost, "/v1/jobs", squareBody(t), "application/json")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	status, _ = do(t, srv, http.MethodGet, "/v1/jobs/abc", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestJobLifecycle(t *testing.T) {
	srv := newServer(t, true, "")
	status, out := do(t, srv, http.MethodPost, "/v1/jobs", squareBody(t), "application/json")
	require.Equal(t, http.StatusAccepted, status)
	id, ok := out["id"].(string)
	require.True(t, ok)
	assert.Equal(t, "queued", out["status"])

	require.Eventually(t, func() bool {
		_, job := do(t, srv, http.MethodGet, "/v1/jobs/"+id, nil, "")
		return job["status"] == "succeeded"
	}, 30*time.Second, 50*time.Millisecond)

	_, job := do(t, srv, http.MethodGet, "/v1/jobs/"+id, nil, "")
	res, ok := job["result"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, res["structures"])
}

func TestJobNotFound(t *testing.T) {
	srv := newServer(t, true, "")
	status, out := do(t, srv, http.MethodGet, "/v1/jobs/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", out["code"])
}

func TestJobRejectsInvalidSpec(t *testing.T) {
	srv := newServer(t, true, "")
	status, out := do(t, srv, http.MethodPost, "/v1/jobs", []byte(`{"boundary":[]}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "invalid_plan", out["code"])
}

func TestSolar(t *testing.T) {
	srv := newServer(t, false, "")
	status, out := do(t, srv, http.MethodGet, "/v1/solar?lat=70", nil, "")
	require.Equal(t, http.StatusOK, status)
	window := out["window"].(map[string]any)
	assert.Equal(t, 0.0, window["allowed_deviation_degrees"])
	assert.Equal(t, []any{0.0}, out["orientations"])

	status, out = do(t, srv, http.MethodGet, "/v1/solar?lat=0", nil, "")
	require.Equal(t, http.StatusOK, status)
	window = out["window"].(map[string]any)
	assert.True(t, math.Abs(window["allowed_deviation_degrees"].(float64)-180) < 1e-9)

	for _, q := range []string{"", "?lat=north", "?lat=91"} {
		status, _ = do(t, srv, http.MethodGet, "/v1/solar"+q, nil, "")
		assert.Equal(t, http.StatusBadRequest, status, q)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, false, "")
	do(t, srv, http.MethodGet, "/health", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(data), "polyplanner_http_requests_total")
}

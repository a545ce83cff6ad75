package terrain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// HTTPSource queries a lookup service that accepts
//
//	POST {BaseURL}/api/v1/lookup {"locations":[{"latitude":..,"longitude":..}]}
//
// and answers with one result per location carrying "elevation" and an
// optional "land_cover" label.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a source with a bounded per-request timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

type lookupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []lookupLocation `json:"locations"`
}

type lookupResult struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation"`
	LandCover string   `json:"land_cover"`
}

type lookupResponse struct {
	Results []lookupResult `json:"results"`
}

// FetchSamples implements BatchSource. Client errors (4xx) are marked
// permanent so the builder does not retry them.
func (s *HTTPSource) FetchSamples(ctx context.Context, pts []geo.GeoPoint) ([]RawSample, error) {
	req := lookupRequest{Locations: make([]lookupLocation, len(pts))}
	for i, p := range pts {
		req.Locations[i] = lookupLocation{Latitude: p.Lat, Longitude: p.Lng}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("encoding lookup request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/v1/lookup", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("building lookup request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("terrain lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("terrain lookup: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var out lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding lookup response: %w", err)
	}
	if len(out.Results) != len(pts) {
		return nil, fmt.Errorf("terrain lookup: got %d results for %d locations", len(out.Results), len(pts))
	}

	samples := make([]RawSample, len(out.Results))
	for i, r := range out.Results {
		if r.Elevation == nil {
			return nil, fmt.Errorf("terrain lookup: missing elevation for %v", pts[i])
		}
		lc := LandCoverUnknown
		if r.LandCover != "" {
			lc = ParseLandCover(r.LandCover)
		}
		samples[i] = RawSample{Elevation: *r.Elevation, LandCover: lc}
	}
	return samples, nil
}

func (s *HTTPSource) FetchElevation(ctx context.Context, p geo.GeoPoint) (float64, error) {
	samples, err := s.FetchSamples(ctx, []geo.GeoPoint{p})
	if err != nil {
		return 0, err
	}
	return samples[0].Elevation, nil
}

func (s *HTTPSource) FetchLandCover(ctx context.Context, p geo.GeoPoint) (LandCover, error) {
	samples, err := s.FetchSamples(ctx, []geo.GeoPoint{p})
	if err != nil {
		return LandCoverUnknown, err
	}
	return samples[0].LandCover, nil
}

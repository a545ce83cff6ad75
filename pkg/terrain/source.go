package terrain

import (
	"context"

	"github.com/ChicagoDave/polyplanner/pkg/geo"
)

// DataSource supplies elevation and land cover for individual points.
type DataSource interface {
	FetchElevation(ctx context.Context, p geo.GeoPoint) (float64, error)
	FetchLandCover(ctx context.Context, p geo.GeoPoint) (LandCover, error)
}

// BatchSource is implemented by sources that can answer a whole grid in one
// call. The builder prefers it when available.
type BatchSource interface {
	FetchSamples(ctx context.Context, pts []geo.GeoPoint) ([]RawSample, error)
}

// RawSample is the source's answer for one point.
type RawSample struct {
	Elevation float64   `json:"elevation"`
	LandCover LandCover `json:"land_cover"`
}

// FuncSource adapts plain functions to DataSource. A nil LandCoverFunc
// reports every point as cropland.
type FuncSource struct {
	ElevationFunc func(geo.GeoPoint) (float64, error)
	LandCoverFunc func(geo.GeoPoint) (LandCover, error)
}

func (f FuncSource) FetchElevation(ctx context.Context, p geo.GeoPoint) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if f.ElevationFunc == nil {
		return 0, nil
	}
	return f.ElevationFunc(p)
}

func (f FuncSource) FetchLandCover(ctx context.Context, p geo.GeoPoint) (LandCover, error) {
	if err := ctx.Err(); err != nil {
		return LandCoverUnknown, err
	}
	if f.LandCoverFunc == nil {
		return LandCoverCropland, nil
	}
	return f.LandCoverFunc(p)
}

// Package api ties the loader, masker, store, and metrics together
// for batch use: one call in, one full-size mask out, always.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/rotblauer/gridmask/geo/loader"
	"github.com/rotblauer/gridmask/mask"
	"github.com/rotblauer/gridmask/maskdb"
	"github.com/rotblauer/gridmask/metrics/influxdb"
	"github.com/rotblauer/gridmask/params"
	"github.com/rotblauer/gridmask/types/featureset"
	"github.com/rotblauer/gridmask/types/grid"
)

var logger = slog.With("pkg", "api")

// Generate loads the polygon source and masks the grid with it.
//
// Failure policy, uniform across every failure class (unresolvable
// source, non-polygon geometry, malformed grid axes): log the
// diagnostic, return an all-Missing mask of the grid's full shape
// plus the typed error. Nothing propagates as a panic; a batch
// pipeline keeps moving and downstream code tests for the sentinel
// (or the error, its choice).
func Generate(ctx context.Context, config *params.MaskConfig, g *grid.Grid, featuresURI string) (*mask.Mask, error) {
	nlat, nlon := g.Shape()
	fs, err := loader.LoadFeatureSet(ctx, featuresURI)
	if err != nil {
		logger.Error("No usable polygon source", "uri", featuresURI, "error", err)
		return mask.NewSentinel(nlat, nlon), err
	}
	return GenerateFromSet(ctx, config, g, fs)
}

// GenerateFromSet masks the grid with an already-flattened feature
// set, exporting compute metrics when configured.
func GenerateFromSet(ctx context.Context, config *params.MaskConfig, g *grid.Grid, fs *featureset.FeatureSet) (*mask.Mask, error) {
	if config == nil {
		config = params.DefaultMaskConfig()
	}
	start := time.Now()
	m, err := mask.NewMasker(config).Compute(ctx, g, fs)
	if params.INFLUXDB_URL != "" {
		s := m.Summarize()
		if exportErr := influxdb.ExportCompute(influxdb.ComputeRecord{
			Time:     start,
			Planar:   config.Planar,
			Degraded: err != nil,
			Cells:    s.Cells,
			Inside:   s.Inside,
			Features: fs.NumFeatures(),
			Vertices: fs.NumVertices(),
			Elapsed:  time.Since(start),
		}); exportErr != nil {
			logger.Warn("Failed to export compute metrics", "error", exportErr)
		}
	}
	return m, err
}

// GenerateCached consults the store before computing and records the
// result after. Store errors only ever cost the caching, never the
// mask.
func GenerateCached(ctx context.Context, config *params.MaskConfig, store *maskdb.Store, g *grid.Grid, fs *featureset.FeatureSet) (*mask.Mask, error) {
	if config == nil {
		config = params.DefaultMaskConfig()
	}
	key, keyErr := maskdb.Key(g, fs, config.Planar)
	if keyErr == nil {
		if m, ok := store.Get(key); ok {
			logger.Debug("Mask cache hit", "key", key)
			return m, nil
		}
	}
	m, err := GenerateFromSet(ctx, config, g, fs)
	if err == nil && keyErr == nil {
		if putErr := store.Put(key, m); putErr != nil {
			logger.Warn("Failed to store mask", "key", key, "error", putErr)
		}
	}
	return m, err
}

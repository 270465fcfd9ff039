package maskd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/gridmask/api"
	"github.com/rotblauer/gridmask/geo/loader"
	"github.com/rotblauer/gridmask/mask"
	"github.com/rotblauer/gridmask/maskdb"
	"github.com/rotblauer/gridmask/params"
	"github.com/rotblauer/gridmask/types/featureset"
	"github.com/rotblauer/gridmask/types/grid"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ping":"pong"}`))
}

// maskRequest is the POST /mask body. Features are supplied inline
// as GeoJSON or by URI (file, http(s), s3); the grid likewise inline
// or by URI.
type maskRequest struct {
	Grid        *grid.Grid                 `json:"grid,omitempty"`
	GridURI     string                     `json:"gridUri,omitempty"`
	Features    *geojson.FeatureCollection `json:"features,omitempty"`
	FeaturesURI string                     `json:"featuresUri,omitempty"`
	Planar      *bool                      `json:"planar,omitempty"`
}

// maskResponse is always status 200 with a full-size mask; degraded
// computations carry the sentinel-filled mask and a non-empty error.
type maskResponse struct {
	Mask    *mask.Mask   `json:"mask"`
	Summary mask.Summary `json:"summary"`
	Error   string       `json:"error,omitempty"`
}

func (d *MaskDaemon) handleComputeMask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req maskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g, err := d.resolveGrid(r, &req)
	if err != nil {
		// No grid, no target shape, no sentinel to degrade into.
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	config := *d.Config.MaskConfig
	if req.Planar != nil {
		config.Planar = *req.Planar
	}

	fs, loadErr := d.resolveFeatures(r, &req)
	var m *mask.Mask
	var computeErr error
	var key string
	if loadErr != nil {
		nlat, nlon := g.Shape()
		m, computeErr = mask.NewSentinel(nlat, nlon), loadErr
		d.logger.Error("No usable polygon source", "error", loadErr)
	} else if key = d.responseKey(g, fs, config.Planar); key != "" {
		if cached := d.responseCache.Get(key); cached != nil {
			d.logger.Debug("Mask response cache hit", "key", key)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached.Value())
			return
		}
		m, computeErr = d.compute(r, &config, g, fs)
	} else {
		m, computeErr = d.compute(r, &config, g, fs)
	}

	resp := maskResponse{Mask: m, Summary: m.Summarize()}
	if computeErr != nil {
		resp.Error = computeErr.Error()
	}
	encoded, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if key != "" && computeErr == nil {
		d.responseCache.Set(key, encoded, ttlcache.DefaultTTL)
	}

	d.feedComputed.Send(JobResult{
		Key:      key,
		Nlat:     m.Nlat,
		Nlon:     m.Nlon,
		Degraded: computeErr != nil,
		Summary:  resp.Summary,
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
	})

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(encoded)
}

func (d *MaskDaemon) compute(r *http.Request, config *params.MaskConfig, g *grid.Grid, fs *featureset.FeatureSet) (*mask.Mask, error) {
	if d.store != nil {
		return api.GenerateCached(r.Context(), config, d.store, g, fs)
	}
	return api.GenerateFromSet(r.Context(), config, g, fs)
}

func (d *MaskDaemon) resolveGrid(r *http.Request, req *maskRequest) (*grid.Grid, error) {
	switch {
	case req.Grid != nil:
		// An invalid inline grid passes through; Compute degrades
		// it to a full-shape sentinel.
		return req.Grid, nil
	case req.GridURI != "":
		return loader.LoadGrid(r.Context(), req.GridURI)
	}
	return nil, fmt.Errorf("missing grid: provide grid or gridUri")
}

func (d *MaskDaemon) resolveFeatures(r *http.Request, req *maskRequest) (*featureset.FeatureSet, error) {
	switch {
	case req.Features != nil:
		return featureset.FromCollection(req.Features)
	case req.FeaturesURI != "":
		return loader.LoadFeatureSet(r.Context(), req.FeaturesURI)
	}
	return nil, fmt.Errorf("missing features: provide features or featuresUri")
}

func (d *MaskDaemon) responseKey(g *grid.Grid, fs *featureset.FeatureSet, planar bool) string {
	key, err := maskdb.Key(g, fs, planar)
	if err != nil {
		d.logger.Warn("Failed to key mask request", "error", err)
		return ""
	}
	return key
}

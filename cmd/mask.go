/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/rotblauer/gridmask/api"
	"github.com/rotblauer/gridmask/geo/loader"
	"github.com/rotblauer/gridmask/mask"
	"github.com/rotblauer/gridmask/maskdb"
	"github.com/rotblauer/gridmask/params"
	"github.com/spf13/cobra"
)

var optFeaturesURI string
var optGridURI string
var optOutPath string
var optPlanar bool
var optWorkers int
var optUseCache bool
var optDatadir string

// maskCmd represents the mask command
var maskCmd = &cobra.Command{
	Use:   "mask",
	Short: "Compute an inclusion mask for a grid against a polygon set",
	Long: `
Reads a polygon source (GeoJSON FeatureCollection or .geojsonl, from
a file path, http(s) URL, or s3:// URI, optionally gzipped) and a grid
descriptor, computes the mask, and writes the result as JSON.

A failed precondition - unresolvable source, non-polygon geometry,
malformed grid axes - does NOT abort with a non-zero exit. It writes a
full-size mask filled with the missing sentinel (-1) and logs the
diagnostic, so batch pipelines keep moving. Test mask.values, or the
summary.missing field, downstream.

Flags:

  --features  Polygon source URI. Required.
  --grid      Grid descriptor URI ({"lat": [...], "lon": [...]}, axes
              as explicit arrays or {"n","start","step"} ranges). Required.
  --out       Output path. (Default is stdout.)
  --planar    Use the planar even-odd ray cast instead of the geodesic
              test. Only for regions far from the poles/antimeridian.
  --workers   Concurrent rows per candidate window. (Default is NumCPU.)
  --cache     Consult and populate the mask store under --datadir.

Examples:

  gridmask mask --features conus.geojson.gz --grid grid25.json > mask.json
`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		ctx := context.Background()

		config := params.DefaultMaskConfig()
		config.Planar = optPlanar
		config.Workers = optWorkers

		g, err := loader.LoadGrid(ctx, optGridURI)
		if err != nil {
			log.Fatalln(err)
		}

		var m *mask.Mask
		var computeErr error
		if optUseCache {
			store, err := maskdb.Open(optDatadir)
			if err != nil {
				log.Fatalln(err)
			}
			defer store.Close()
			fs, err := loader.LoadFeatureSet(ctx, optFeaturesURI)
			if err != nil {
				slog.Error("No usable polygon source", "uri", optFeaturesURI, "error", err)
				nlat, nlon := g.Shape()
				m, computeErr = mask.NewSentinel(nlat, nlon), err
			} else {
				m, computeErr = api.GenerateCached(ctx, config, store, g, fs)
			}
		} else {
			m, computeErr = api.Generate(ctx, config, g, optFeaturesURI)
		}
		if computeErr != nil {
			slog.Warn("Masking degraded, emitting sentinel mask", "error", computeErr)
		}

		out := os.Stdout
		if optOutPath != "" && optOutPath != "-" {
			f, err := os.Create(optOutPath)
			if err != nil {
				log.Fatalln(err)
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		if err := enc.Encode(struct {
			Mask    *mask.Mask   `json:"mask"`
			Summary mask.Summary `json:"summary"`
			Error   string       `json:"error,omitempty"`
		}{m, m.Summarize(), errString(computeErr)}); err != nil {
			log.Fatalln(err)
		}
	},
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func init() {
	rootCmd.AddCommand(maskCmd)

	maskCmd.PersistentFlags().StringVar(&optFeaturesURI, "features", "", "Polygon source URI (file, http(s), s3)")
	maskCmd.PersistentFlags().StringVar(&optGridURI, "grid", "", "Grid descriptor URI")
	maskCmd.PersistentFlags().StringVar(&optOutPath, "out", "-", "Output path, - for stdout")
	maskCmd.PersistentFlags().BoolVar(&optPlanar, "planar", false, "Planar containment test (geodesic is default)")
	maskCmd.PersistentFlags().IntVar(&optWorkers, "workers", runtime.NumCPU(), "Concurrent rows per candidate window")
	maskCmd.PersistentFlags().BoolVar(&optUseCache, "cache", false, "Use the persistent mask store")
	maskCmd.PersistentFlags().StringVar(&optDatadir, "datadir", params.DatadirRoot, "Data directory for the mask store")
	_ = maskCmd.MarkPersistentFlagRequired("features")
	_ = maskCmd.MarkPersistentFlagRequired("grid")
}

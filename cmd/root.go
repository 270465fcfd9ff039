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
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var optVerbose bool
var optQuiet bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gridmask",
	Short: "Rasterize polygons onto lat/lon grids",
	Long: `gridmask computes binary inclusion masks: given a set of polygon
features and a monotonic latitude/longitude grid, it marks every grid
cell lying inside any polygon ring.

Masks select or blank out cells of co-registered gridded data, e.g.
restricting a climate field to a region of interest.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initViper)
	rootCmd.PersistentFlags().BoolVarP(&optVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVarP(&optQuiet, "quiet", "q", false, "Warnings and errors only")
}

func initViper() {
	viper.SetEnvPrefix("GRIDMASK")
	viper.AutomaticEnv()
}

// setDefaultSlog applies the logging flags to the default logger.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if optVerbose {
		level = slog.LevelDebug
	}
	if optQuiet {
		level = slog.LevelWarn
	}
	slog.SetLogLoggerLevel(level)
}

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
	"errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/rotblauer/gridmask/common"
	"github.com/rotblauer/gridmask/daemon/maskd"
	"github.com/rotblauer/gridmask/params"
	"github.com/spf13/cobra"
)

var optHTTPAddr string
var optMaskdDatadir string

// maskdCmd represents the daemon command
var maskdCmd = &cobra.Command{
	Use:   "maskd",
	Short: "Start the mask daemon",
	Long:  `Serves mask computation over HTTP, with a websocket feed of completed jobs at /events`,
	Run: func(cmd *cobra.Command, args []string) {
		setDefaultSlog(cmd, args)
		slog.Info("maskd.Run")

		config := params.DefaultMaskDaemonConfig()
		config.Address = optHTTPAddr
		config.DataDir = optMaskdDatadir

		server, err := maskd.NewMaskDaemon(config)
		if err != nil {
			log.Fatalln(err)
		}

		go func() {
			sig := <-common.Interrupted()
			slog.Warn("Received signal", "signal", sig)
			_ = server.Close()
		}()

		if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalln(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(maskdCmd)

	defaults := params.DefaultMaskDaemonConfig()
	pFlags := maskdCmd.PersistentFlags()
	pFlags.StringVar(&optHTTPAddr, "address", defaults.Address, "HTTP address to listen on")
	pFlags.StringVar(&optMaskdDatadir, "datadir", defaults.DataDir, "Data directory for the mask store (empty disables)")
}

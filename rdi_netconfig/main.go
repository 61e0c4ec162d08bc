// Copyright 2024 The rdi-netconfig Authors

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// rdi-netconfig generates declarative network configuration fragments from
// the network directives found on the kernel command line or in a
// configuration file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/thkukuk/rdi-netconfig/cfg"
	"github.com/thkukuk/rdi-netconfig/netconfig"
	"github.com/thkukuk/rdi-netconfig/networkd"
	"github.com/thkukuk/rdi-netconfig/utils"
)

var (
	programName = "rdi-netconfig"
	version     = "unknown"
)

func logFormat(e logger.LogEntry) string {
	now := time.Now().Format("2006/01/02 15:04:05")
	return fmt.Sprintf("%s %s: %s", now, programName, e.Message)
}

type options struct {
	configFile  string
	outputDir   string
	parseAll    bool
	debug       bool
	showVersion bool
}

func newCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   programName + " [flags] [directive ...]",
		Short: "generate network configuration fragments from boot directives",
		Long: "rdi-netconfig reads network directives from the kernel command line\n" +
			"or a configuration file and writes one .network fragment per interface\n" +
			"and one .netdev fragment per VLAN into the output directory.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Printf("%s %s\n", programName, version)
				return nil
			}
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "read directives from this configuration file")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "output directory for the generated fragments")
	cmd.Flags().BoolVarP(&opts.parseAll, "parse-all", "a", false, "process all directive prefixes on the kernel command line")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "verbose diagnostics")
	cmd.Flags().BoolVarP(&opts.showVersion, "version", "v", false, "print version and exit")

	return cmd
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	ctx := context.Background()

	logOpts := logger.LogOpts{
		LoggerName:          programName,
		Debug:               opts.debug,
		FormatFunction:      logFormat,
		Writers:             []io.Writer{os.Stderr},
		DisableCloudLogging: true,
		DisableLocalLogging: true,
	}
	if err := logger.Init(ctx, logOpts); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return utils.Errnof(unix.EINVAL, "logger initialization failed")
	}

	if err := cfg.Load(nil); err != nil {
		logger.Errorf("Error loading configuration: %v", err)
		return err
	}
	config := cfg.Get()

	if opts.configFile != "" && len(args) > 0 {
		logger.Errorf("--config cannot be combined with command line directives")
		return utils.Errnof(unix.EINVAL, "--config cannot be combined with command line directives")
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = config.Network.OutputDir
	}
	parseAll := opts.parseAll || config.Network.ParseAll
	if opts.debug || config.Network.Debug {
		logger.SetDebugLogging(true)
	}

	state := netconfig.NewState(outputDir)

	var err error
	switch {
	case opts.configFile != "":
		err = state.ParseConfigFile(opts.configFile)
	case len(args) > 0:
		// Positional arguments are glued back together and treated as
		// kernel command line text, mainly for testing.
		err = state.ParseCmdline(strings.Join(args, " "), parseAll)
	default:
		err = state.ParseCmdlineFile(config.Paths.Cmdline, parseAll)
	}
	if err != nil {
		logger.Errorf("Error parsing directives: %v", err)
		return err
	}

	if err := networkd.Write(state); err != nil {
		logger.Errorf("Error writing configuration: %v", err)
		return err
	}

	logger.Debugf("wrote %d interface record(s) and %d VLAN(s) to %s",
		len(state.Records), len(state.VLANs), outputDir)
	return nil
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(utils.ExitCode(err))
	}
}

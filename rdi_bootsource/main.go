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

// rdi-bootsource resolves where the running system was booted from and
// prints the result, so an installer can locate its configuration next to
// its boot image.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/GoogleCloudPlatform/guest-logging-go/logger"
	"github.com/thkukuk/rdi-netconfig/bootsource"
	"github.com/thkukuk/rdi-netconfig/cfg"
	"github.com/thkukuk/rdi-netconfig/utils"
)

var (
	programName = "rdi-bootsource"
	version     = "unknown"
)

func logFormat(e logger.LogEntry) string {
	now := time.Now().Format("2006/01/02 15:04:05")
	return fmt.Sprintf("%s %s: %s", now, programName, e.Message)
}

func newCommand() *cobra.Command {
	var (
		efivarsDir  string
		debug       bool
		showVersion bool
	)

	cmd := &cobra.Command{
		Use:           programName + " [flags]",
		Short:         "print how the running system was booted",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				fmt.Printf("%s %s\n", programName, version)
				return nil
			}

			ctx := context.Background()
			logOpts := logger.LogOpts{
				LoggerName:          programName,
				Debug:               debug,
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
			if efivarsDir == "" {
				efivarsDir = cfg.Get().Paths.EFIVars
			}

			src, err := bootsource.Resolve(efivarsDir)
			if err != nil {
				if errors.Is(err, bootsource.ErrNotFound) {
					logger.Errorf("Unable to determine the boot source")
					return utils.Errnof(unix.ENOENT, "boot source not found")
				}
				logger.Errorf("Error resolving boot source: %v", err)
				return err
			}

			out, err := yaml.Marshal(src)
			if err != nil {
				return fmt.Errorf("error marshalling boot source: %w", err)
			}
			fmt.Print(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&efivarsDir, "efivars", "", "firmware variable directory (default from configuration)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "verbose diagnostics")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version and exit")

	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(utils.ExitCode(err))
	}
}

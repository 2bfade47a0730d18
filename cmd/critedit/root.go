// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/collatex-critical/critedit/internal/config"
	"github.com/collatex-critical/critedit/internal/logging"
)

// app holds the state shared by all subcommands once the persistent
// flags are resolved.
type app struct {
	root       string
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "critedit",
		Short:        "Build critical editions from CollateX alignment tables",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.root, "root", ".", "project root containing input/ and output/")
	flags.StringVar(&a.configPath, "config", "", "config file (default <root>/"+config.FileName+" when present)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides config)")

	cmd.AddCommand(
		newConvertCmd(a),
		newGenerateCmd(a),
		newBatchCmd(a),
		newBundleCmd(a),
		newServeCmd(a),
		newAdaptersCmd(),
	)
	return cmd
}

// setup loads the config and initializes logging.
func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadOptional(filepath.Join(a.root, config.FileName))
	}
	if err != nil {
		return err
	}
	a.cfg = cfg

	levelName := cfg.Log.Level
	if a.logLevel != "" {
		levelName = a.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}

	formatName := cfg.Log.Format
	if a.logFormat != "" {
		formatName = a.logFormat
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return fmt.Errorf("--log-format: %w", err)
	}

	logging.InitLogger(level, format)
	return nil
}

// Package main provides the worker command that polls upstream sources and maintains the headline datasets.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"solarintel/internal/config"
	"solarintel/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	envFiles   []string
	logLevel   string

	cfg *config.Config
	log *logger.Logger
	// logOut overrides the log destination. Used in tests.
	logOut io.Writer
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "worker",
		Short:         "Collect solar industry headlines into deduplicated datasets",
		Long:          "worker polls NewsAPI, RSS feeds and web pages, keeps the relevant headlines and merges them into per-pipeline CSV or SQLite datasets.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "init-config" {
				return nil
			}

			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file (default $XDG_CONFIG_HOME/solarintel/config.yaml, else built-in)")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env", nil, "dotenv files to load before reading credentials (default .env)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCmd(a),
		newOnceCmd(a),
		newShowCmd(a),
		newMapCmd(a),
		newValidateCmd(a),
		newInitConfigCmd(),
		newVersionCmd(),
	)

	return root
}

func (a *app) load() error {
	if err := config.LoadEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}

	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Writer: a.logOut,
	})

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "solarintel worker %s (commit: %s)\n", version, commit)
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and dataset locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, a.cfg.String())

			for _, p := range a.cfg.Pipelines {
				state := "disabled"
				if p.Enabled {
					state = "enabled"
				}

				fmt.Fprintf(out, "%-14s %-8s %-6s %d source(s) %d subject(s) -> %s\n",
					p.Name, state, p.Store, len(p.Sources), len(p.Subjects), a.cfg.DatasetPath(&p))

				if p.Enabled && p.NeedsCredential() && a.cfg.NewsAPIKey() == "" {
					warnColor.Fprintf(out, "  warning: %s is not set, %s will skip every cycle\n",
						a.cfg.Credentials.NewsAPIKeyEnv, p.Name)
				}
			}

			okColor.Fprintln(out, "configuration OK")

			return nil
		},
	}
}

var errConfigExists = errors.New("config file already exists")

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the built-in configuration to a file for editing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%w: %s (use --force to overwrite)", errConfigExists, path)
			}

			cfg, err := config.LoadDefault()
			if err != nil {
				return err
			}

			if err := cfg.SaveConfig(path); err != nil {
				return err
			}

			okColor.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

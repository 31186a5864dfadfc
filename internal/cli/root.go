// Package cli implements the glideformat command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leeforge/glideformat/config"
	"github.com/leeforge/glideformat/env_mode"
	"github.com/leeforge/glideformat/runtime"
)

var (
	// Version is set at build time.
	Version = "dev"
)

type options struct {
	configFile string
	env        string
	verbose    bool

	cfg *config.Config
	rt  *runtime.Runtime
}

// NewRootCmd builds the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "glideformat",
		Short: "Render images through named presets",
		Long: `glideformat renders source images into a cache through named presets.

Presets, storage and engine options are read from glideformat.yaml and its
environment variants (glideformat.<env>.yaml, *.local.yaml).

Examples:
  # List configured presets
  glideformat presets

  # Render a preset into the cache and print the cache path
  glideformat make photos/kayaks.jpg thumb

  # Render and save the result
  glideformat output photos/kayaks.jpg thumb -o kayaks-thumb.jpg`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return o.start(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return o.stop(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&o.configFile, "config", "c", "", "Configuration file (default config/glideformat.yaml)")
	flags.StringVar(&o.env, "env", "", "Environment mode: development, production or test")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Mirror logs to the terminal")

	rootCmd.AddCommand(newPresetsCmd(o))
	rootCmd.AddCommand(newMakeCmd(o))
	rootCmd.AddCommand(newOutputCmd(o))
	rootCmd.AddCommand(newPurgeCmd(o))
	rootCmd.AddCommand(newExportConfigCmd(o))

	return rootCmd
}

// Execute runs the root command with ctx. The runtime is shut down even
// when the command fails.
func Execute(ctx context.Context, args []string) error {
	o := &options{}
	cmd := newRootCmd(o)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return stderrors.Join(err, o.stop(ctx))
}

func (o *options) start(ctx context.Context) error {
	if o.env != "" {
		env_mode.SetMode(env_mode.ParseEnv(o.env))
	}

	opts := config.DefaultOptions()
	opts.File = o.configFile
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	// Rendered images may go to stdout, so logs stay out of it unless asked for.
	settings.Logging.LogInTerminal = o.verbose

	rt, err := runtime.New(ctx, runtime.Config{Settings: settings})
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	o.cfg = cfg
	o.rt = rt
	return nil
}

func (o *options) stop(ctx context.Context) error {
	if o.rt == nil {
		return nil
	}
	err := o.rt.Shutdown(ctx)
	o.rt = nil
	return err
}

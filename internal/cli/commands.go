package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leeforge/glideformat/engine"
	"github.com/leeforge/glideformat/errors"
	"github.com/leeforge/glideformat/json"
	"github.com/leeforge/glideformat/utils"
)

func newPresetsCmd(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List configured presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := o.rt.Server().Presets()
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(presets)
			}

			if len(presets) == 0 {
				fmt.Fprintln(out, "No presets configured.")
				return nil
			}

			names := make([]string, 0, len(presets))
			for name := range presets {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tPARAMS")
			for _, name := range names {
				params, err := json.MarshalToString(presets[name])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, utils.DisplayName(name), params)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print presets as JSON")
	return cmd
}

func newMakeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "make <path> <preset>",
		Short: "Render an image into the cache and print its cache path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cachePath, err := o.rt.Server().MakeImage(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cachePath)
			return nil
		},
	}
}

func newOutputCmd(o *options) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "output <path> <preset>",
		Short: "Render an image and write it to a file or stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outFile == "" || outFile == "-" {
				return o.rt.Server().OutputImage(cmd.Context(), cmd.OutOrStdout(), args[0], args[1])
			}
			return createFile(outFile, func(w io.Writer) error {
				return o.rt.Server().OutputImage(cmd.Context(), w, args[0], args[1])
			})
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Output file (default stdout)")
	return cmd
}

// createFile writes path through write. A failed write or close removes the
// file so no partial image is left behind.
func createFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return write(f)
}

func newPurgeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <path>",
		Short: "Delete every cached variant of a source image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, ok := o.rt.Server().Engine().(*engine.Server)
			if !ok {
				return errors.New(errors.ErrorTypeInvalid, "engine does not support cache deletion")
			}
			if err := eng.DeleteCache(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", args[0])
			return nil
		},
	}
}

func newExportConfigCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export-config <file>",
		Short: "Write the merged configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Export(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
}

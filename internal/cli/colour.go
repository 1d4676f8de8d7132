package cli

import (
	"fmt"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/jo-hoe/closetcam/internal/backend/colour"
	"github.com/spf13/cobra"
)

// ClassifyCmd returns the classify command.
func ClassifyCmd() *cobra.Command {
	var hex string

	cmd := &cobra.Command{
		Use:   "classify [r g b]",
		Short: "Name a colour sample",
		Long: `Name a colour given as three normalised channels in [0,1] or as a hex string.

Examples:
  closetcam classify 1 0 0
  closetcam classify --hex "#000080"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if hex != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var sample colour.SampledColor
			if hex != "" {
				parsed, err := colour.ParseHex(hex)
				if err != nil {
					return err
				}
				sample = parsed
			} else {
				channels := make([]float64, 3)
				for i, arg := range args {
					v, err := strconv.ParseFloat(arg, 64)
					if err != nil {
						return fmt.Errorf("invalid channel %q: %w", arg, err)
					}
					channels[i] = v
				}
				sample = colour.SampledColor{R: channels[0], G: channels[1], B: channels[2]}
			}

			fmt.Fprintln(cmd.OutOrStdout(), colour.Classify(sample))
			return nil
		},
	}

	cmd.Flags().StringVar(&hex, "hex", "", "colour as #RRGGBB")
	return cmd
}

// SampleCmd returns the sample command.
func SampleCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "sample <image>",
		Short: "Name the colour at the centre of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < 1 {
				return fmt.Errorf("size must be positive, got %d", size)
			}
			img, err := imaging.Open(args[0], imaging.AutoOrientation(true))
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			sample := colour.SampleCenter(img, size)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(r=%.3f g=%.3f b=%.3f)\n", colour.Classify(sample), sample.R, sample.G, sample.B)
			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", colour.DefaultSampleSize, "edge length of the sampled centre patch in pixels")
	return cmd
}

// PaletteCmd returns the palette command.
func PaletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palette",
		Short: "List the named palette colours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, entry := range colour.DefaultPalette {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", entry.Hex(), entry.Name)
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/jo-hoe/closetcam/internal/core"
	"github.com/spf13/cobra"
)

// CaptureCmd returns the capture command.
func CaptureCmd(load configLoader) *cobra.Command {
	var object string

	cmd := &cobra.Command{
		Use:   "capture <image>",
		Short: "Add a garment photo to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			return withCoreService(cmd.Context(), load, func(coreService *core.CoreService) error {
				photo, err := coreService.Capture(cmd.Context(), data, object)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", photo.ID, photo.Description, photo.Object)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&object, "object", "", "garment kind, e.g. Shirt")
	return cmd
}

// ListCmd returns the list command.
func ListCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the photo library in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCoreService(cmd.Context(), load, func(coreService *core.CoreService) error {
				photos, err := coreService.ListPhotos()
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCOLOUR\tOBJECT\tLABELS\tDESCRIPTION")
				for _, photo := range photos {
					generated := "-"
					if photo.GeneratedDescription != nil {
						generated = *photo.GeneratedDescription
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", photo.ID, photo.Description, photo.Object, len(photo.AssociatedPhotos), generated)
				}
				return w.Flush()
			})
		},
	}
}

// DescribeCmd returns the describe command.
func DescribeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id>",
		Short: "Generate a description for a photo with the configured describer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCoreService(cmd.Context(), load, func(coreService *core.CoreService) error {
				photo, err := coreService.GenerateDescription(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), *photo.GeneratedDescription)
				return nil
			})
		},
	}
}

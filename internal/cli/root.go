package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jo-hoe/closetcam/internal/core"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the closetcam command tree.
func NewRootCmd(version string) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:   "closetcam",
		Short: "Catalogue clothing photos by colour",
		Long: `closetcam names garment colours against a fixed palette and keeps a
photo library of captured garments and their label photos.

Examples:
  # Name a normalised RGB sample
  closetcam classify 0.5 0.1 0.1

  # Name the colour at the centre of a photo
  closetcam sample shirt.jpg

  # Serve the HTTP API
  closetcam serve --config config.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	loader := func() (*core.ServiceConfig, error) {
		path := configPath
		if path == "" {
			path = core.ConfigPath()
		}
		if _, err := os.Stat(path); os.IsNotExist(err) && configPath == "" {
			slog.Info("no config file found, using defaults", "path", path)
			return core.DefaultConfig(), nil
		}
		return core.LoadConfig(path)
	}

	rootCmd.AddCommand(
		ClassifyCmd(),
		SampleCmd(),
		PaletteCmd(),
		CaptureCmd(loader),
		ListCmd(loader),
		DescribeCmd(loader),
		ServeCmd(loader),
	)
	return rootCmd
}

type configLoader func() (*core.ServiceConfig, error)

// withCoreService opens the library described by the loaded config for the
// duration of fn.
func withCoreService(ctx context.Context, load configLoader, fn func(*core.CoreService) error) error {
	config, err := load()
	if err != nil {
		return err
	}
	coreService, err := core.NewCoreService(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to open photo library: %w", err)
	}
	defer func() {
		if cerr := coreService.Close(); cerr != nil {
			slog.Error("failed to close photo library", "error", cerr)
		}
	}()
	return fn(coreService)
}

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jo-hoe/closetcam/internal/backend"
	"github.com/jo-hoe/closetcam/internal/core"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command.
func ServeCmd(load configLoader) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			config, err := load()
			if err != nil {
				return err
			}
			if port > 0 {
				config.Port = port
			}
			loadConfig := func() (*core.ServiceConfig, error) { return config, nil }
			return withCoreService(ctx, loadConfig, func(coreService *core.CoreService) error {
				return backend.Run(ctx, config, coreService)
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "override the configured port")
	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/market-classifier/internal/logger"
)

func newHTTPDCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.load()
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			c, err := e.components(cmd.Context(), bootstrap.AllBackends())
			if err != nil {
				e.log.Error("Failed to start", logger.Error(err))
				return err
			}
			defer c.Close()

			return c.NewServer().RunWithGracefulShutdown(cmd.Context())
		},
	}
}

package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"imgtrack/internal/web"
)

func newServeCmd(root *Root) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server over the run registry",
		Long: `Start an HTTP server exposing recorded analysis runs and their
summaries, plus a websocket endpoint streaming live run progress.

Endpoints: /healthz, /api/runs, /api/runs/{id}, /api/runs/{id}/summary, /ws`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if port == 0 {
				port = root.cfg.Server.Port
			}
			server := web.NewServer(port, root.store, root.log)
			return server.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from configuration)")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"imgtrack/internal/imgio"
)

func newWatchCmd(root *Root) *cobra.Command {
	var extension string

	cmd := &cobra.Command{
		Use:   "watch <folders...>",
		Short: "Watch series folders for newly acquired frames",
		Long: `Monitor series folders and report image files as they are written,
for series still being acquired. Stop with Ctrl-C.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			if extension == "" {
				extension = root.cfg.Series.Extension
			}
			watcher, err := imgio.NewWatcher(args, extension, root.log)
			if err != nil {
				return err
			}
			defer watcher.Stop()

			root.log.Info("watching for new frames", "folders", args, "extension", extension)
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					fmt.Printf("%s  %s\n", ev.Time.Format("15:04:05"), ev.Path)
				}
			}
		},
	}

	cmd.Flags().StringVar(&extension, "extension", "", "image file extension to watch for (default from configuration)")
	return cmd
}

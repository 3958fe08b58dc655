package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRunsCmd(root *Root) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := root.store.RecentRuns(limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("no runs recorded")
				return nil
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"ID", "Analysis", "Status", "Frames", "Input", "Created", "Duration"})
			for _, rec := range recs {
				tw.AppendRow(table.Row{
					shortID(rec.ID),
					rec.Analysis,
					rec.Status,
					rec.Frames,
					rec.InputPath,
					rec.CreatedAt.Format(time.RFC3339),
					runDuration(rec.StartedAt, rec.CompletedAt),
				})
			}
			fmt.Println(tw.Render())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(started, completed *time.Time) string {
	if started == nil || completed == nil {
		return "-"
	}
	return completed.Sub(*started).Round(time.Millisecond).String()
}

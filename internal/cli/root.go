// Package cli wires the analysis engine to its command line interface.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"imgtrack/internal/config"
	"imgtrack/internal/store"
)

// Root carries the shared dependencies every subcommand needs.
type Root struct {
	cfg   *config.Config
	log   *slog.Logger
	store *store.Store
}

// NewRoot bundles the CLI dependencies.
func NewRoot(cfg *config.Config, log *slog.Logger, st *store.Store) *Root {
	return &Root{cfg: cfg, log: log, store: st}
}

// NewRootCmd creates the root Cobra command.
func NewRootCmd(root *Root) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imgtrack",
		Short: "imgtrack analyzes image series",
		Long: `imgtrack runs frame-by-frame analyses over image series: grey level
statistics, contour tracking, 1-D front profiles and flicker measurement.
Series are folders of image files or multi-frame TIFF stacks.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newTrackCmd(root))
	rootCmd.AddCommand(newGreyLevelCmd(root))
	rootCmd.AddCommand(newFront1DCmd(root))
	rootCmd.AddCommand(newFlickerCmd(root))
	rootCmd.AddCommand(newRunsCmd(root))
	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("imgtrack v1.0.0")
		},
	}
}

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Configuration:\n\n")
			fmt.Printf("Database Path: %s\n", root.cfg.Paths.DatabasePath)
			fmt.Printf("Default Save Path: %s\n", root.cfg.Paths.DefaultSavePath)
			fmt.Printf("Parallel Jobs: %d\n", root.cfg.Processing.ParallelJobs)
			fmt.Printf("Frame Cache Size: %d\n", root.cfg.Processing.CacheSize)
			fmt.Printf("Series Extension: %s\n", root.cfg.Series.Extension)
			fmt.Printf("Server Port: %d\n", root.cfg.Server.Port)
			fmt.Printf("Log Level: %s\n", root.cfg.Logging.Level)
			fmt.Printf("Log Format: %s\n", root.cfg.Logging.Format)
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	return cmd
}

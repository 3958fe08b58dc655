package main

import (
	"fmt"
	"os"

	"imgtrack/internal/cli"
	"imgtrack/internal/config"
	"imgtrack/internal/logging"
	"imgtrack/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load configuration:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	st, err := store.New(cfg.Paths.DatabasePath)
	if err != nil {
		log.Warn("run registry unavailable", "path", cfg.Paths.DatabasePath, "error", err)
		st = nil
	} else {
		defer st.Close()
	}

	root := cli.NewRoot(cfg, log, st)
	if err := cli.NewRootCmd(root).Execute(); err != nil {
		os.Exit(1)
	}
}

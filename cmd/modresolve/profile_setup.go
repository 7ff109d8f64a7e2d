package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modresolve/internal/prof"
)

var activeProfile *prof.Session

// setupProfiling starts the profilers named by the persistent flags.
func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var cfg prof.Config
	var err error
	if cfg.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if cfg.Mem, err = flags.GetString("mem-profile"); err != nil {
		return fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cfg.Runtime, err = flags.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if !cfg.Active() {
		return nil
	}
	s, err := prof.Start(cfg)
	if err != nil {
		return err
	}
	activeProfile = s
	return nil
}

func stopProfiling() {
	if activeProfile == nil {
		return
	}
	if err := activeProfile.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "profile: %v\n", err)
	}
	activeProfile = nil
}

// finishCommand releases profilers and the tracer. It runs after a successful
// command and again from main, where failed commands are cleaned up.
func finishCommand(failed bool) {
	stopProfiling()
	finishTracing(failed)
}

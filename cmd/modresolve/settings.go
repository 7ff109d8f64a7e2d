package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"modresolve/internal/observ"
	"modresolve/internal/project"
	"modresolve/internal/registry"
	"modresolve/internal/session"
	"modresolve/internal/trace"
	"modresolve/internal/ui"
)

// settings carries what every subcommand needs after flag and config parsing.
type settings struct {
	root    string
	config  project.Config
	palette ui.Palette
	quiet   bool
	timings bool
	timer   *observ.Timer
}

func errInvalidChoice(flag, value, choices string) error {
	return fmt.Errorf("invalid %s value %q (expected %s)", flag, value, choices)
}

func loadSettings(cmd *cobra.Command, root string) (*settings, error) {
	flags := cmd.Root().PersistentFlags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	cfg, err := project.Load(root, configPath)
	if err != nil {
		return nil, err
	}
	return &settings{
		root:    root,
		config:  cfg,
		palette: ui.Palette{Color: !color.NoColor},
		quiet:   quiet,
		timings: timings,
		timer:   observ.NewTimer(),
	}, nil
}

// newSession builds a session from the loaded config. A non-nil snap
// preseeds the registry.
func (s *settings) newSession(ctx context.Context, snap *registry.Snapshot) *session.Session {
	return session.New(session.Options{
		Snapshot:        snap,
		Core:            s.config.CoreEntries(),
		Tracer:          trace.FromContext(ctx),
		ProbeExtensions: s.config.Resolve.Extensions,
	})
}

// scan rescans the root into sess as a timed stage.
func (s *settings) scan(ctx context.Context, sess *session.Session) error {
	return s.timer.Measure("scan", func() (string, error) {
		if err := sess.LoadFiles(ctx, s.root, s.config.Scan.Extensions...); err != nil {
			return "", err
		}
		files, dirs, _ := sess.Counts()
		return fmt.Sprintf("%d files, %d directories", files, dirs), nil
	})
}

// finish prints the timing summary when --timings is set.
func (s *settings) finish(cmd *cobra.Command) {
	if !s.timings {
		return
	}
	if err := s.timer.WriteSummary(cmd.ErrOrStderr()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "timings: %v\n", err)
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"modresolve/internal/trace"
	"modresolve/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <root> [request...]",
	Short: "Rescan a source tree on change",
	Long: `Scan a source root, then rescan whenever a matching file or package.json
changes. Requests given on the command line are resolved again after every
successful rescan. A failed rescan keeps the previous registry.`,
	Args: cobra.MinimumNArgs(1),
	RunE: watchExecution,
}

func init() {
	watchCmd.Flags().String("from", "/", "directory the requests are made from")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a rescan")
}

func watchExecution(cmd *cobra.Command, args []string) error {
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}

	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.finish(cmd)

	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	requests := args[1:]

	sess := s.newSession(ctx, nil)
	if err := s.scan(ctx, sess); err != nil {
		return err
	}
	report := func() error {
		if !s.quiet {
			files, dirs, _ := sess.Counts()
			fmt.Fprintf(errOut, "%s generation %d: %d files, %d directories\n",
				s.palette.Title(s.root), sess.Generation(), files, dirs)
		}
		return printResults(out, s.palette, sess.ResolveAll(requests, from))
	}
	if err := report(); err != nil {
		return err
	}

	w, err := watch.New(s.root, watch.Options{
		Extensions: s.config.Scan.Extensions,
		Debounce:   debounce,
		Tracer:     trace.FromContext(ctx),
		OnError: func(err error) {
			fmt.Fprintf(errOut, "watch: %v\n", err)
		},
	}, func(ctx context.Context, paths []string) error {
		if !s.quiet {
			fmt.Fprintf(errOut, "%d changed, rescanning\n", len(paths))
		}
		if err := s.scan(ctx, sess); err != nil {
			return err
		}
		return report()
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

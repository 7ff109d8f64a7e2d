package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] <root>",
	Short: "Build the module registry for a source tree",
	Long:  "Scan a source root and report how many files, directory entries and core modules the registry holds.",
	Args:  cobra.ExactArgs(1),
	RunE:  scanExecution,
}

func init() {
	scanCmd.Flags().StringSlice("ext", nil, "file extensions to scan, without the dot (default from config)")
}

func scanExecution(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.finish(cmd)

	if cmd.Flags().Changed("ext") {
		exts, err := cmd.Flags().GetStringSlice("ext")
		if err != nil {
			return err
		}
		s.config.Scan.Extensions = exts
		if err := s.config.Validate(); err != nil {
			return fmt.Errorf("--ext: %w", err)
		}
	}

	sess := s.newSession(cmd.Context(), nil)
	if err := s.scan(cmd.Context(), sess); err != nil {
		return err
	}
	if s.quiet {
		return nil
	}
	files, dirs, core := sess.Counts()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d files, %d directories, %d core modules (generation %d)\n",
		s.palette.Title(s.root), files, dirs, core, sess.Generation())
	return nil
}

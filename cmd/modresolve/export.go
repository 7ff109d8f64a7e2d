package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"modresolve/internal/registry"
	"modresolve/internal/ui"
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] <root>",
	Short: "Print or persist the module registry",
	Long: `Scan a source root and export the registry. The msgpack format writes a
snapshot that resolve --snapshot can load and requires --output.`,
	Args: cobra.ExactArgs(1),
	RunE: exportExecution,
}

func init() {
	exportCmd.Flags().String("format", "json", "output format (json|msgpack|table)")
	exportCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
}

func exportExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	switch format {
	case "json", "table":
	case "msgpack":
		if output == "" {
			return errors.New("--format msgpack requires --output")
		}
	default:
		return errInvalidChoice("--format", format, "json|msgpack|table")
	}

	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.finish(cmd)

	sess := s.newSession(cmd.Context(), nil)
	if err := s.scan(cmd.Context(), sess); err != nil {
		return err
	}
	snap := sess.Export()

	return s.timer.Measure("export", func() (string, error) {
		if format == "msgpack" {
			if err := registry.WriteSnapshot(output, s.root, snap); err != nil {
				return "", err
			}
			if !s.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote snapshot %s (generation %d)\n", output, snap.Generation)
			}
			return output, nil
		}

		w := cmd.OutOrStdout()
		opts := ui.TableOptions{Palette: s.palette, Width: terminalWidth()}
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return "", fmt.Errorf("export: %w", err)
			}
			defer func() {
				_ = f.Close()
			}()
			w = f
			opts = ui.TableOptions{}
		}
		return format, writeExport(w, snap, format, opts)
	})
}

func writeExport(w io.Writer, snap registry.Snapshot, format string, opts ui.TableOptions) error {
	switch format {
	case "table":
		return ui.RenderSnapshot(w, snap, opts)
	default:
		return writeJSON(w, snap)
	}
}

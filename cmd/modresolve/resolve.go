package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"modresolve/internal/registry"
	"modresolve/internal/resolver"
	"modresolve/internal/session"
	"modresolve/internal/ui"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [flags] <root> <request>...",
	Short: "Resolve require() requests against a source tree",
	Long: `Resolve each request as if it were required from --from, a directory in the
registry's namespace. Paths carry no extension; unresolved requests are printed
unchanged.`,
	Args: cobra.MinimumNArgs(2),
	RunE: resolveExecution,
}

func init() {
	resolveCmd.Flags().String("from", "/", "directory the requests are made from")
	resolveCmd.Flags().String("snapshot", "", "load the registry from a msgpack snapshot instead of scanning")
	resolveCmd.Flags().String("format", "text", "output format (text|json)")
}

func resolveExecution(cmd *cobra.Command, args []string) error {
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return err
	}
	snapshotPath, err := cmd.Flags().GetString("snapshot")
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return errInvalidChoice("--format", format, "text|json")
	}

	s, err := loadSettings(cmd, args[0])
	if err != nil {
		return err
	}
	defer s.finish(cmd)

	sess, err := s.openSession(cmd, snapshotPath)
	if err != nil {
		return err
	}

	var results []resolver.Result
	_ = s.timer.Measure("resolve", func() (string, error) {
		results = sess.ResolveAll(args[1:], from)
		return fmt.Sprintf("%d requests", len(results)), nil
	})

	if format == "json" {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	return printResults(cmd.OutOrStdout(), s.palette, results)
}

// openSession scans the root, or loads snapshotPath when it is set.
func (s *settings) openSession(cmd *cobra.Command, snapshotPath string) (*session.Session, error) {
	if snapshotPath == "" {
		sess := s.newSession(cmd.Context(), nil)
		if err := s.scan(cmd.Context(), sess); err != nil {
			return nil, err
		}
		return sess, nil
	}
	var snap registry.Snapshot
	err := s.timer.Measure("snapshot", func() (string, error) {
		var (
			root string
			err  error
		)
		snap, root, err = registry.ReadSnapshot(snapshotPath)
		if err != nil {
			return "", err
		}
		return "from " + root, nil
	})
	if err != nil {
		return nil, err
	}
	return s.newSession(cmd.Context(), &snap), nil
}

func printResults(w io.Writer, p ui.Palette, results []resolver.Result) error {
	for _, r := range results {
		var line string
		if r.Resolved() {
			line = fmt.Sprintf("%s -> %s  %s", r.Request, p.Found(r.Path), p.Dim("("+r.RuleName+")"))
		} else {
			line = fmt.Sprintf("%s -> %s", r.Request, p.Missing(r.Path))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"modresolve/internal/version"
)

type versionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show modresolve build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return err
		}
		info := collectVersionInfo()
		switch strings.ToLower(format) {
		case "pretty":
			return renderVersionPretty(cmd.OutOrStdout(), info, full)
		case "json":
			return writeJSON(cmd.OutOrStdout(), info)
		default:
			return errInvalidChoice("--format", format, "pretty|json")
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	versionCmd.Flags().Bool("full", false, "include commit, build date and Go version")
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:   v,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
		GoVersion: runtime.Version(),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, full bool) error {
	if _, err := fmt.Fprintf(out, "modresolve %s\n", version.Pretty(info.Version)); err != nil {
		return err
	}
	if !full {
		return nil
	}
	_, err := fmt.Fprintf(out, "commit: %s\nbuilt:  %s\ngo:     %s\n",
		valueOrUnknown(info.GitCommit), valueOrUnknown(info.BuildDate), info.GoVersion)
	return err
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Package main implements the modresolve CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"modresolve/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "modresolve",
	Short: "CommonJS module resolution for app source trees",
	Long: `modresolve builds a registry of the modules below a source root and resolves
require() requests against it the way a bundler would.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepareCommand,
	PersistentPostRun: func(*cobra.Command, []string) { finishCommand(false) },
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "path to modresolve.toml (default: searched upwards from the root)")
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0 disables)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

// main runs the root command with a context that is cancelled on SIGINT or
// SIGTERM. A failed command exits with status 1.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	finishCommand(err != nil)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func prepareCommand(cmd *cobra.Command, _ []string) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	mode, err := readColorMode(colorFlag)
	if err != nil {
		return err
	}
	color.NoColor = !shouldUseColor(mode)
	if err := setupProfiling(cmd); err != nil {
		return err
	}
	return setupTracing(cmd)
}

type colorMode string

const (
	colorModeAuto colorMode = "auto"
	colorModeOn   colorMode = "on"
	colorModeOff  colorMode = "off"
)

func readColorMode(value string) (colorMode, error) {
	switch colorMode(value) {
	case "", colorModeAuto:
		return colorModeAuto, nil
	case colorModeOn, colorModeOff:
		return colorMode(value), nil
	default:
		return "", errInvalidChoice("--color", value, "auto|on|off")
	}
}

func shouldUseColor(mode colorMode) bool {
	switch mode {
	case colorModeOn:
		return true
	case colorModeOff:
		return false
	default:
		return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == ""
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"modresolve/internal/trace"
)

// activeTrace is torn down by finishTracing once per process.
var activeTrace struct {
	tracer    trace.Tracer
	heartbeat *trace.Heartbeat
	errOut    io.Writer
}

// setupTracing reads the trace flags and attaches a tracer to the command
// context. Without a level and output the context carries trace.Nop.
func setupTracing(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	traceOutput, err := flags.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace alone implies phase level
	if level == trace.LevelOff && traceOutput != "" {
		level = trace.LevelPhase
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return nil
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return fmt.Errorf("invalid trace mode: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	cmd.SetContext(trace.WithTracer(cmd.Context(), tracer))

	activeTrace.tracer = tracer
	activeTrace.errOut = cmd.ErrOrStderr()
	if heartbeatInterval > 0 {
		activeTrace.heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}
	return nil
}

// finishTracing stops the heartbeat, dumps buffered ring events and closes
// the tracer. In both mode the ring is only dumped when the command failed,
// since the stream already carries every event.
func finishTracing(failed bool) {
	tracer := activeTrace.tracer
	if tracer == nil {
		return
	}
	activeTrace.tracer = nil
	errOut := activeTrace.errOut
	if errOut == nil {
		errOut = os.Stderr
	}

	if activeTrace.heartbeat != nil {
		activeTrace.heartbeat.Stop()
		activeTrace.heartbeat = nil
	}

	var ring *trace.RingTracer
	switch t := tracer.(type) {
	case *trace.RingTracer:
		ring = t
	case *trace.MultiTracer:
		if failed {
			ring, _ = t.Ring()
		}
	}
	if ring != nil {
		if err := ring.Dump(errOut, trace.FormatText); err != nil {
			fmt.Fprintf(errOut, "trace: dump error: %v\n", err)
		}
	}

	if err := tracer.Flush(); err != nil {
		fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
	}
	if err := tracer.Close(); err != nil {
		fmt.Fprintf(errOut, "trace: close error: %v\n", err)
	}
}

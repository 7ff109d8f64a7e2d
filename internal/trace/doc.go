// Package trace is the leveled diagnostic sink used by the registry builder,
// the resolver and the modresolve CLI.
//
// # Usage
//
//	modresolve resolve --trace=- --trace-level=detail ./app ./lib/util
//
// # Tracers
//
//   - Nop: disabled tracing, the default everywhere
//   - StreamTracer: writes each event as it arrives (file or stderr)
//   - RingTracer: keeps the last N events in memory
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: crash dumps only
//   - LevelPhase: driver and scan boundaries
//   - LevelDetail: resolver hits
//   - LevelDebug: every probe and cache lookup
//
// # Scopes
//
//   - ScopeDriver: CLI commands and session lifecycle
//   - ScopeScan: registry builds (walk, manifests, index inference)
//   - ScopeResolve: resolution results
//   - ScopeProbe: individual candidate probes and cache lookups
//
// Resolver messages are emitted as points:
//
//	trace.Point(t, trace.ScopeResolve, "file found", "/lib/util.js")
package trace

// Package session ties a registry, its builder and a resolver into one owned
// state object per build session.
package session

import (
	"context"
	"strconv"

	"modresolve/internal/registry"
	"modresolve/internal/resolver"
	"modresolve/internal/trace"
)

// Options configures a Session. The zero value is usable.
type Options struct {
	// Snapshot preseeds files, directories and core modules.
	Snapshot *registry.Snapshot
	// Core entries replace snapshot core entries with the same id.
	Core []registry.Entry
	// Tracer receives scan and resolve messages; nil means trace.Nop.
	Tracer trace.Tracer
	Source registry.FileSource
	Parser registry.ManifestParser
	// ProbeExtensions are tried for extension-less requests, in order.
	ProbeExtensions []string
	// Jobs bounds parallel manifest reads.
	Jobs int
}

// Session owns the registry and memo cache of one build.
type Session struct {
	reg      *registry.Registry
	builder  *registry.Builder
	resolver *resolver.Resolver
	tracer   trace.Tracer
}

// New creates a Session.
func New(opts Options) *Session {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}

	var seed registry.Snapshot
	if opts.Snapshot != nil {
		seed = opts.Snapshot.Clone()
	}
	seed.Core = mergeCore(opts.Core, seed.Core)

	reg := registry.New(seed)
	return &Session{
		reg: reg,
		builder: &registry.Builder{
			Source: opts.Source,
			Parser: opts.Parser,
			Jobs:   opts.Jobs,
			Tracer: tr,
		},
		resolver: resolver.New(reg, resolver.Options{
			Extensions: opts.ProbeExtensions,
			Tracer:     tr,
		}),
		tracer: tr,
	}
}

// mergeCore returns override followed by the base entries whose id override
// does not define. Ids are unique in the result; the first entry for an id wins.
func mergeCore(override, base []registry.Entry) []registry.Entry {
	if len(override) == 0 && len(base) == 0 {
		return nil
	}
	out := make([]registry.Entry, 0, len(override)+len(base))
	seen := make(map[string]struct{}, cap(out))
	for _, list := range [][]registry.Entry{override, base} {
		for _, e := range list {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// LoadFiles rescans root. Memoised results from earlier generations are
// dropped once the new registry is published.
func (s *Session) LoadFiles(ctx context.Context, root string, extensions ...string) error {
	ix, err := s.builder.LoadFiles(ctx, s.reg, root, extensions...)
	if err != nil {
		return err
	}
	pruned := s.resolver.Cache().Prune(ix.Generation())
	trace.Point(s.tracer, trace.ScopeDriver, "registry published",
		"generation "+strconv.FormatUint(ix.Generation(), 10)+", pruned "+strconv.Itoa(pruned))
	return nil
}

// Resolve maps request, made from base, to a module path.
func (s *Session) Resolve(request, base string) string {
	return s.resolver.Resolve(request, base)
}

// Lookup is Resolve with details.
func (s *Session) Lookup(request, base string) resolver.Result {
	return s.resolver.Lookup(request, base)
}

// ResolveAll looks up each request from the same base, in order.
func (s *Session) ResolveAll(requests []string, base string) []resolver.Result {
	out := make([]resolver.Result, len(requests))
	for i, req := range requests {
		out[i] = s.resolver.Lookup(req, base)
	}
	return out
}

// Export returns a deep copy of the registry.
func (s *Session) Export() registry.Snapshot {
	return s.reg.Export()
}

// Generation returns the current registry generation.
func (s *Session) Generation() uint64 {
	return s.reg.Generation()
}

// CacheStats returns memo cache counters.
func (s *Session) CacheStats() resolver.CacheStats {
	return s.resolver.Cache().Stats()
}

// Counts returns the number of files, directory entries and core modules in
// the current registry.
func (s *Session) Counts() (files, dirs, core int) {
	return s.reg.Current().Counts()
}

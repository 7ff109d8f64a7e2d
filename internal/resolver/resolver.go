// Package resolver answers CommonJS require() requests from a registry index
// without touching the file system.
//
// Rules are tried in a fixed order and the first hit wins:
//
//  1. core: the request names a core module override.
//  2. relative: the request starts with "." or "/"; load it as a file, then as
//     a directory, relative to the base path. A miss goes to the fallback;
//     relative requests are never reinterpreted as package names.
//  3. package: for each node_modules directory from the base path up to the
//     root, load the request as a file, then as a directory.
//  4. fallback: the request is returned unchanged.
//
// Every hit is returned without its extension.
package resolver

import (
	"strconv"

	"golang.org/x/sync/singleflight"

	"modresolve/internal/registry"
	"modresolve/internal/trace"
)

// DefaultExtensions are appended, in order, to extension-less requests.
var DefaultExtensions = []string{".js", ".json"}

// Rule names the step that produced a Result.
type Rule uint8

const (
	RuleFallback Rule = iota
	RuleCore
	RuleFile
	RuleDirectory
	RulePackageFile
	RulePackageDirectory
)

// String returns the rule name.
func (r Rule) String() string {
	switch r {
	case RuleCore:
		return "core"
	case RuleFile:
		return "file"
	case RuleDirectory:
		return "directory"
	case RulePackageFile:
		return "package-file"
	case RulePackageDirectory:
		return "package-directory"
	default:
		return "fallback"
	}
}

// Result is the outcome of one lookup.
type Result struct {
	Request    string `json:"request"`
	Base       string `json:"base"`
	Path       string `json:"path"`
	Matched    string `json:"matched,omitempty"` // registry entry before extension stripping
	Rule       Rule   `json:"-"`
	RuleName   string `json:"rule"`
	Generation uint64 `json:"generation"`
	Cached     bool   `json:"cached,omitempty"`
}

// Resolved reports whether a rule other than the fallback matched.
func (r Result) Resolved() bool { return r.Rule != RuleFallback }

// Options configures a Resolver.
type Options struct {
	// Extensions are probed for extension-less requests, in priority order.
	Extensions []string
	Tracer     trace.Tracer
	// CacheSize is a capacity hint for the memo cache.
	CacheSize int
}

// Resolver resolves requests against the current index of a registry.
// It is safe for concurrent use.
type Resolver struct {
	reg    *registry.Registry
	exts   []string
	tracer trace.Tracer
	cache  *Cache
	group  singleflight.Group
	order  []rule
}

// New creates a Resolver reading from reg.
func New(reg *registry.Registry, opts Options) *Resolver {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	size := opts.CacheSize
	if size <= 0 {
		size = 256
	}
	r := &Resolver{
		reg:    reg,
		exts:   append([]string(nil), exts...),
		tracer: tr,
		cache:  NewCache(size),
	}
	r.order = []rule{
		{applies: always, match: r.loadCore},
		{applies: isRelative, match: r.loadRelative},
		{applies: isPackage, match: r.loadPackage},
	}
	return r
}

// Resolve maps request, made from base, to a module path. An empty base is
// "/". Unresolvable requests come back unchanged.
func (r *Resolver) Resolve(request, base string) string {
	return r.Lookup(request, base).Path
}

// Lookup is Resolve with the details of how the result was produced.
func (r *Resolver) Lookup(request, base string) Result {
	if base == "" {
		base = "/"
	}
	ix := r.reg.Current()
	gen := ix.Generation()
	key := CacheKey(request, base)

	if res, ok := r.cache.Get(key, gen); ok {
		trace.Point(r.tracer, trace.ScopeProbe, "cache hit", key)
		res.Cached = true
		return res
	}
	trace.Point(r.tracer, trace.ScopeProbe, "cache miss", key)

	v, _, _ := r.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		res := r.evaluate(ix, request, base)
		r.cache.Put(key, gen, res)
		return res, nil
	})
	return v.(Result)
}

// Cache exposes the memo cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Extensions returns the probe extensions in priority order.
func (r *Resolver) Extensions() []string {
	return append([]string(nil), r.exts...)
}

type rule struct {
	applies func(request string) bool
	match   func(ix *registry.Index, request, base string) (string, Rule, bool)
}

func always(string) bool { return true }

func isPackage(request string) bool { return !isRelative(request) }

func (r *Resolver) evaluate(ix *registry.Index, request, base string) Result {
	res := Result{
		Request:    request,
		Base:       base,
		Path:       request,
		Rule:       RuleFallback,
		Generation: ix.Generation(),
	}
	for _, rl := range r.order {
		if !rl.applies(request) {
			continue
		}
		if matched, kind, ok := rl.match(ix, request, base); ok {
			res.Matched = matched
			res.Path = moduleID(matched)
			res.Rule = kind
			break
		}
	}
	res.RuleName = res.Rule.String()
	if !res.Resolved() {
		trace.Pointf(r.tracer, trace.ScopeResolve, "unresolved", "%s from %s", request, base)
	}
	return res
}

func (r *Resolver) loadCore(ix *registry.Index, request, _ string) (string, Rule, bool) {
	p, ok := ix.Core(request)
	if !ok || p == "" {
		return "", RuleCore, false
	}
	trace.Pointf(r.tracer, trace.ScopeResolve, "core module", "%s -> %s", request, p)
	return p, RuleCore, true
}

func (r *Resolver) loadRelative(ix *registry.Index, request, base string) (string, Rule, bool) {
	if p, ok := r.loadAsFile(ix, request, base); ok {
		return p, RuleFile, true
	}
	if p, ok := r.loadAsDirectory(ix, request, base); ok {
		return p, RuleDirectory, true
	}
	return "", RuleFallback, false
}

func (r *Resolver) loadPackage(ix *registry.Index, request, base string) (string, Rule, bool) {
	for _, dir := range modulesDirs(base) {
		if p, ok := r.loadAsFile(ix, request, dir); ok {
			return p, RulePackageFile, true
		}
		if p, ok := r.loadAsDirectory(ix, request, dir); ok {
			return p, RulePackageDirectory, true
		}
	}
	return "", RuleFallback, false
}

// loadAsFile matches the exact path, then, for extension-less requests, the
// path with each probe extension appended.
func (r *Resolver) loadAsFile(ix *registry.Index, request, base string) (string, bool) {
	p := resolvePath(base, request)
	trace.Point(r.tracer, trace.ScopeProbe, "probe file", p)
	if ix.HasFile(p) {
		trace.Point(r.tracer, trace.ScopeResolve, "file found", p)
		return p, true
	}
	if extname(request) != "" {
		return "", false
	}
	for _, ext := range r.exts {
		p = resolvePath(base, request+ext)
		trace.Point(r.tracer, trace.ScopeProbe, "probe file", p)
		if ix.HasFile(p) {
			trace.Point(r.tracer, trace.ScopeResolve, "file found", p)
			return p, true
		}
	}
	return "", false
}

func (r *Resolver) loadAsDirectory(ix *registry.Index, request, base string) (string, bool) {
	id := resolvePath(base, request)
	trace.Point(r.tracer, trace.ScopeProbe, "probe directory", id)
	main, ok := ix.Directory(id)
	if !ok {
		return "", false
	}
	trace.Pointf(r.tracer, trace.ScopeResolve, "directory found", "%s -> %s", id, main)
	return main, true
}

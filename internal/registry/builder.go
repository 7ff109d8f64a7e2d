package registry

import (
	"context"
	"fmt"
	"path"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"modresolve/internal/trace"
)

// Builder scans a project root into a Registry.
type Builder struct {
	Source FileSource     // nil means DirSource{}
	Parser ManifestParser // nil means JSONManifestParser{}
	Jobs   int            // parallel manifest reads; <= 0 means GOMAXPROCS
	Tracer trace.Tracer   // nil means trace.Nop
}

type scanned struct {
	raw  string // path as listed by the source
	path string // rooted POSIX path
}

// LoadFiles scans root and replaces the files and directories of reg.
// extensions default to DefaultExtensions. On error reg is left as it was.
//
// Records are classified in a fixed order: manifests are set aside, every
// other match becomes a file, manifest mains become directory records, then
// index.js files fill directories no manifest claimed.
func (b *Builder) LoadFiles(ctx context.Context, reg *Registry, root string, extensions ...string) (*Index, error) {
	tr := b.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	span := trace.Begin(tr, trace.ScopeScan, "scan", 0)
	defer span.End(root)

	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	src := b.source()

	listed, err := src.ListFiles(root, extensions)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list files: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		files     = make([]string, 0, len(listed))
		manifests []scanned
	)
	for _, raw := range listed {
		p := rooted(raw)
		if isManifest(p) {
			manifests = append(manifests, scanned{raw: raw, path: p})
			continue
		}
		files = append(files, p)
	}

	mains, err := b.readManifests(ctx, tr, span.ID(), root, manifests)
	if err != nil {
		return nil, err
	}

	dirs := make([]Entry, 0, len(mains)+len(files)/4)
	claimed := make(map[string]struct{}, len(mains))
	for i, m := range manifests {
		main := mains[i]
		if main == "" {
			continue
		}
		dir := path.Dir(m.path)
		if _, dup := claimed[dir]; dup {
			continue
		}
		claimed[dir] = struct{}{}
		dirs = append(dirs, Entry{ID: dir, Path: path.Join(dir, main)})
	}
	for _, f := range files {
		if !isIndex(f) {
			continue
		}
		dir := path.Dir(f)
		if _, dup := claimed[dir]; dup {
			continue
		}
		claimed[dir] = struct{}{}
		dirs = append(dirs, Entry{ID: dir, Path: f})
	}

	ix := reg.Replace(files, dirs)
	span.WithExtra("files", strconv.Itoa(len(files))).
		WithExtra("manifests", strconv.Itoa(len(manifests))).
		WithExtra("directories", strconv.Itoa(len(dirs))).
		WithExtra("generation", strconv.FormatUint(ix.Generation(), 10))
	return ix, nil
}

// readManifests returns the main field of each manifest ("" when none),
// index-aligned with manifests. The first malformed manifest fails the scan.
func (b *Builder) readManifests(ctx context.Context, tr trace.Tracer, parent uint64, root string, manifests []scanned) ([]string, error) {
	mains := make([]string, len(manifests))
	if len(manifests) == 0 {
		return mains, nil
	}

	span := trace.Begin(tr, trace.ScopeScan, "manifests", parent)
	defer span.End(strconv.Itoa(len(manifests)))

	jobs := b.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	src := b.source()
	parser := b.parser()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(manifests)))
	for i, m := range manifests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := src.ReadFile(root, m.raw)
			if err != nil {
				return fmt.Errorf("%s: failed to read manifest: %w", m.path, err)
			}
			fields, err := parser.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w: %w", m.path, ErrMalformedManifest, err)
			}
			main, ok, err := mainEntry(fields)
			if err != nil {
				return fmt.Errorf("%s: %w: %w", m.path, ErrMalformedManifest, err)
			}
			if ok {
				mains[i] = main
				trace.Pointf(tr, trace.ScopeProbe, "manifest main", "%s -> %s", m.path, main)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mains, nil
}

func (b *Builder) source() FileSource {
	if b.Source != nil {
		return b.Source
	}
	return DirSource{}
}

func (b *Builder) parser() ManifestParser {
	if b.Parser != nil {
		return b.Parser
	}
	return JSONManifestParser{}
}

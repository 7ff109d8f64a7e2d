// Package registry holds the in-memory index the resolver answers from:
// scanned files, directory main entries and core module overrides.
//
// The index is immutable once published. A rebuild produces a new Index with
// the next generation number and swaps it in; readers that grabbed the old
// one keep a consistent view.
package registry

import (
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrMalformedManifest marks a package.json that could not be parsed.
	// It aborts the build.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrSnapshotSchema indicates a persisted snapshot with another schema version.
	ErrSnapshotSchema = errors.New("snapshot schema mismatch")
	// ErrSnapshotCorrupt indicates a snapshot whose header disagrees with its body.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// Entry maps a resolvable id to a concrete file.
type Entry struct {
	ID   string `json:"id" msgpack:"id"`
	Path string `json:"path" msgpack:"path"`
}

// Index is one published generation of the registry.
type Index struct {
	generation uint64
	files      []string
	fileSet    map[string]struct{}
	dirs       []Entry
	dirByID    map[string]int
	core       []Entry
	coreByID   map[string]int
}

func newIndex(generation uint64, files []string, dirs, core []Entry) *Index {
	ix := &Index{
		generation: generation,
		files:      make([]string, 0, len(files)),
		fileSet:    make(map[string]struct{}, len(files)),
		dirs:       make([]Entry, 0, len(dirs)),
		dirByID:    make(map[string]int, len(dirs)),
		core:       make([]Entry, len(core)),
		coreByID:   make(map[string]int, len(core)),
	}
	for _, f := range files {
		if _, dup := ix.fileSet[f]; dup {
			continue
		}
		ix.fileSet[f] = struct{}{}
		ix.files = append(ix.files, f)
	}
	for _, d := range dirs {
		// first writer wins
		if _, dup := ix.dirByID[d.ID]; dup {
			continue
		}
		ix.dirByID[d.ID] = len(ix.dirs)
		ix.dirs = append(ix.dirs, d)
	}
	copy(ix.core, core)
	for i, c := range ix.core {
		if _, dup := ix.coreByID[c.ID]; !dup {
			ix.coreByID[c.ID] = i
		}
	}
	return ix
}

// Generation returns the build number of this index.
func (ix *Index) Generation() uint64 { return ix.generation }

// HasFile reports whether p is a scanned file.
func (ix *Index) HasFile(p string) bool {
	_, ok := ix.fileSet[p]
	return ok
}

// Directory returns the main entry registered for directory id.
func (ix *Index) Directory(id string) (string, bool) {
	i, ok := ix.dirByID[id]
	if !ok {
		return "", false
	}
	return ix.dirs[i].Path, true
}

// Core returns the override path for a core module id.
func (ix *Index) Core(id string) (string, bool) {
	i, ok := ix.coreByID[id]
	if !ok {
		return "", false
	}
	return ix.core[i].Path, true
}

// Counts returns the number of files, directory records and core records.
func (ix *Index) Counts() (files, dirs, core int) {
	return len(ix.files), len(ix.dirs), len(ix.core)
}

// Snapshot returns a deep copy of the index.
func (ix *Index) Snapshot() Snapshot {
	return Snapshot{
		Files:       cloneSlice(ix.files),
		Directories: cloneSlice(ix.dirs),
		Core:        cloneSlice(ix.core),
		Generation:  ix.generation,
	}
}

// Registry owns the current Index. Builds are serialised; reads are lock-free.
type Registry struct {
	mu  sync.Mutex
	cur atomic.Pointer[Index]
}

// New creates a registry preseeded from seed. Core entries in seed are the
// core module table for the registry's lifetime.
func New(seed Snapshot) *Registry {
	r := &Registry{}
	r.cur.Store(newIndex(seed.Generation, seed.Files, seed.Directories, seed.Core))
	return r
}

// Current returns the published index.
func (r *Registry) Current() *Index {
	return r.cur.Load()
}

// Generation returns the generation of the published index.
func (r *Registry) Generation() uint64 {
	return r.Current().generation
}

// Replace publishes a new index with files and dirs, keeping the core table.
// The generation is bumped.
func (r *Registry) Replace(files []string, dirs []Entry) *Index {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.cur.Load()
	next := newIndex(prev.generation+1, files, dirs, prev.core)
	r.cur.Store(next)
	return next
}

// Export returns a deep copy of the current registry.
func (r *Registry) Export() Snapshot {
	return r.Current().Snapshot()
}

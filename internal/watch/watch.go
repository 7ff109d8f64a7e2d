// Package watch rescans a source tree when files the registry cares about
// change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"modresolve/internal/trace"
)

// DefaultDebounce groups bursts of events such as editor saves or installs.
const DefaultDebounce = 200 * time.Millisecond

const manifestName = "package.json"

// Handler receives the changed paths of one debounced batch, sorted.
type Handler func(ctx context.Context, paths []string) error

// Options configures a Watcher.
type Options struct {
	// Extensions are matched without the leading dot. Empty matches every file.
	Extensions []string
	Debounce   time.Duration
	Tracer     trace.Tracer
	// OnError receives watcher and handler errors. Nil drops them.
	OnError func(error)
}

// Watcher follows every non-hidden directory below a root.
type Watcher struct {
	root     string
	notify   *fsnotify.Watcher
	match    func(string) bool
	debounce time.Duration
	handler  Handler
	tracer   trace.Tracer
	onError  func(error)
}

// New starts watching root recursively. The caller must call Run, which
// releases the underlying watcher when it returns.
func New(root string, opts Options, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: nil handler")
	}
	notify, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		root:     root,
		notify:   notify,
		match:    Filter(opts.Extensions),
		debounce: opts.Debounce,
		handler:  handler,
		tracer:   opts.Tracer,
		onError:  opts.OnError,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.tracer == nil {
		w.tracer = trace.Nop
	}
	if err := w.addTree(root); err != nil {
		_ = notify.Close()
		return nil, err
	}
	return w, nil
}

// Filter reports whether a changed path can affect the registry: a manifest
// or a file with one of exts.
func Filter(exts []string) func(string) bool {
	suffixes := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(ext, ".")
		if ext != "" {
			suffixes = append(suffixes, "."+ext)
		}
	}
	return func(p string) bool {
		base := filepath.Base(p)
		if base == manifestName {
			return true
		}
		if len(suffixes) == 0 {
			return true
		}
		for _, s := range suffixes {
			if len(base) > len(s) && strings.HasSuffix(base, s) {
				return true
			}
		}
		return false
	}
}

func hidden(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.notify.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// Run delivers debounced batches to the handler until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.notify.Close() }()

	var pending batch
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.notify.Events:
			if !ok {
				return nil
			}
			if w.observe(ev, &pending) {
				timer.Reset(w.debounce)
				fire = timer.C
			}
		case err, ok := <-w.notify.Errors:
			if !ok {
				return nil
			}
			w.report(err)
		case <-fire:
			fire = nil
			paths := pending.drain()
			if len(paths) == 0 {
				continue
			}
			trace.Pointf(w.tracer, trace.ScopeDriver, "watch batch", "%d changed", len(paths))
			if err := w.handler(ctx, paths); err != nil {
				w.report(err)
			}
		}
	}
}

// observe records ev and reports whether it belongs in the next batch.
func (w *Watcher) observe(ev fsnotify.Event, pending *batch) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if hidden(info.Name()) {
				return false
			}
			if err := w.addTree(ev.Name); err != nil {
				w.report(err)
			}
			pending.add(ev.Name)
			return true
		}
	}
	if !w.match(ev.Name) {
		return false
	}
	pending.add(ev.Name)
	return true
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

// batch collects distinct paths between flushes.
type batch struct {
	seen map[string]struct{}
}

func (b *batch) add(p string) {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	b.seen[p] = struct{}{}
}

func (b *batch) drain() []string {
	if len(b.seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(b.seen))
	for p := range b.seen {
		out = append(out, p)
	}
	b.seen = nil
	sort.Strings(out)
	return out
}

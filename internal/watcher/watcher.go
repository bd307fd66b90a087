// Package watcher keeps the knowledge base in step with its source directory.
// Changed files are re-ingested after a quiet period and the vector index is
// saved once a burst of changes has settled.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hyperjump/omny/pkg/utils"
)

const (
	defaultDebounce  = 400 * time.Millisecond
	defaultSaveDelay = 2 * time.Second
)

// Ingester applies file changes to the knowledge base.
type Ingester interface {
	IndexFile(ctx context.Context, path string) (bool, error)
	RemoveFile(ctx context.Context, path string) error
	Save() error
}

// Stats counts what the watcher has applied since Start.
type Stats struct {
	Indexed int
	Skipped int
	Removed int
	Failed  int
	Saves   int
}

// Watcher re-ingests knowledge files when they change on disk.
type Watcher struct {
	root      string
	recursive bool
	supports  func(path string) bool
	ingester  Ingester
	debounce  time.Duration
	saveDelay time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	fsw       *fsnotify.Watcher
	ctx       context.Context
	pending   map[string]*time.Timer
	saveTimer *time.Timer
	stats     Stats
	started   bool
	done      chan struct{}
	stopOnce  sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = utils.OrNop(l) }
}

// WithDebounce sets how long a file must stay quiet before it is re-ingested.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSaveDelay sets how long after the last applied change the index is saved.
func WithSaveDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.saveDelay = d
		}
	}
}

// WithRecursive controls whether subdirectories are watched. Default true.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// New creates a watcher for root. supports filters which files are ingested;
// nil accepts every file.
func New(root string, ingester Ingester, supports func(path string) bool, opts ...Option) *Watcher {
	w := &Watcher{
		root:      filepath.Clean(root),
		recursive: true,
		supports:  supports,
		ingester:  ingester,
		debounce:  defaultDebounce,
		saveDelay: defaultSaveDelay,
		logger:    zap.NewNop(),
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns once the directories are registered; events
// are handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.fsw = fsw
	w.ctx = ctx
	if err := w.addTreeLocked(w.root); err != nil {
		_ = fsw.Close()
		w.fsw = nil
		return err
	}
	w.started = true
	w.logger.Info("watching knowledge directory", zap.String("dir", w.root), zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !inDir(w.root, path) || hidden(w.root, path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if w.accepts(path) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		// A rename reports the old name; the new name arrives as Create.
		w.cancel(path)
		if w.accepts(path) {
			w.remove(path)
		}
	}
}

func (w *Watcher) handleNewDirectory(dir string) {
	if !w.recursive {
		return
	}
	w.mu.Lock()
	if w.fsw != nil {
		if err := w.addTreeLocked(dir); err != nil {
			w.logger.Warn("watch new directory failed", zap.String("dir", dir), zap.Error(err))
		}
	}
	w.mu.Unlock()

	// Files may land before the directory watch is registered.
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && !hidden(w.root, path) && w.accepts(path) {
			w.schedule(path)
		}
		return nil
	})
}

func (w *Watcher) addTreeLocked(dir string) error {
	if !w.recursive {
		return w.fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) accepts(path string) bool {
	return w.supports == nil || w.supports(path)
}

// schedule re-ingests path once it has been quiet for the debounce period.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		ctx := w.ctx
		w.mu.Unlock()
		w.index(ctx, path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) index(ctx context.Context, path string) {
	changed, err := w.ingester.IndexFile(ctx, path)
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case err != nil:
		w.stats.Failed++
		w.logger.Warn("re-ingest failed", zap.String("path", path), zap.Error(err))
	case !changed:
		w.stats.Skipped++
	default:
		w.stats.Indexed++
		w.logger.Info("re-ingested knowledge file", zap.String("path", path))
		w.scheduleSaveLocked()
	}
}

func (w *Watcher) remove(path string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	err := w.ingester.RemoveFile(ctx, path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stats.Failed++
		w.logger.Warn("remove from knowledge base failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.stats.Removed++
	w.logger.Info("removed knowledge file", zap.String("path", path))
	w.scheduleSaveLocked()
}

func (w *Watcher) scheduleSaveLocked() {
	if !w.started {
		return
	}
	if w.saveTimer != nil {
		w.saveTimer.Stop()
	}
	w.saveTimer = time.AfterFunc(w.saveDelay, func() {
		if err := w.ingester.Save(); err != nil {
			w.logger.Error("save vector index failed", zap.Error(err))
			return
		}
		w.mu.Lock()
		w.stats.Saves++
		w.mu.Unlock()
	})
}

// Stats returns a snapshot of applied changes.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Stop stops watching. A pending save is flushed so applied changes reach disk.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	flush := w.saveTimer != nil && w.saveTimer.Stop()
	w.saveTimer = nil
	_ = w.fsw.Close()
	w.fsw = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })

	if flush {
		if err := w.ingester.Save(); err != nil {
			w.logger.Error("save vector index failed", zap.Error(err))
			return
		}
		w.mu.Lock()
		w.stats.Saves++
		w.mu.Unlock()
	}
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// hidden reports whether any element of path below root starts with a dot.
func hidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

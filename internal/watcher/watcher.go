// Package watcher provides recursive file system watching for project
// directories.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Config contains watcher configuration
type Config struct {
	DebounceMs int `json:"debounceMs" mapstructure:"debounce_ms"`
	// MaxWaitMs caps how long a steady stream of events delays a batch.
	MaxWaitMs int `json:"maxWaitMs" mapstructure:"max_wait_ms"`
	// IgnorePatterns without a slash match any path component; others are
	// doublestar patterns matched against the full slash path.
	IgnorePatterns []string `json:"ignorePatterns" mapstructure:"ignore_patterns"`
	// IgnoreDirs are skipped with everything below them, typically output
	// directories.
	IgnoreDirs []string `json:"-"`
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs: 200,
		MaxWaitMs:  2000,
		IgnorePatterns: []string{
			"*.log",
			"*.tmp",
			"*.tsbuildinfo",
			"*.tsbuildinfo-*",
			"node_modules",
			".git",
		},
	}
}

// Watcher watches directory trees and emits debounced batches of events.
type Watcher struct {
	config  Config
	logger  *slog.Logger
	fsw     *fsnotify.Watcher
	batch   *batcher
	batches chan []Event
	roots   map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
	wg     sync.WaitGroup
}

// New creates a new file system watcher
func New(config Config, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		config:  config,
		logger:  logger,
		fsw:     fsw,
		batches: make(chan []Event, 1),
		roots:   make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
	w.batch = newBatcher(
		time.Duration(config.DebounceMs)*time.Millisecond,
		time.Duration(config.MaxWaitMs)*time.Millisecond,
		w.emit)
	return w, nil
}

// Batches delivers coalesced event batches. The channel is never closed;
// receivers should also watch their own context.
func (w *Watcher) Batches() <-chan []Event {
	return w.batches
}

// Start begins delivering events
func (w *Watcher) Start() {
	w.logger.Debug("Starting file watcher", "debounceMs", w.config.DebounceMs)
	w.wg.Add(1)
	go w.loop()
}

// Stop stops watching
func (w *Watcher) Stop() error {
	w.cancel()
	w.batch.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	w.logger.Debug("File watcher stopped")
	return err
}

// Add watches root and every directory below it that is not ignored.
func (w *Watcher) Add(root string) error {
	root = filepath.Clean(root)
	w.mu.Lock()
	if w.roots[root] {
		w.mu.Unlock()
		return nil
	}
	w.roots[root] = true
	w.mu.Unlock()

	if err := w.addTree(root); err != nil {
		return err
	}
	w.logger.Debug("Watching directory", "path", root)
	return nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.IsIgnored(path) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Roots returns the watched root directories, sorted
func (w *Watcher) Roots() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	roots := make([]string, 0, len(w.roots))
	for root := range w.roots {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err.Error())
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.IsIgnored(ev.Name) {
		return
	}
	event := Event{Type: eventTypeOf(ev.Op), Path: ev.Name, Timestamp: time.Now()}
	if event.Type == EventCreate {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("Cannot watch new directory", "path", ev.Name, "error", err.Error())
			}
		}
	}
	w.batch.add(event)
}

func (w *Watcher) emit(events []Event) {
	if w.ctx.Err() != nil {
		return
	}
	w.logger.Debug("File changes detected", "eventCount", len(events))
	select {
	case w.batches <- events:
	case <-w.ctx.Done():
	}
}

func eventTypeOf(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate
	case op.Has(fsnotify.Remove):
		return EventDelete
	case op.Has(fsnotify.Rename):
		return EventRename
	default:
		return EventModify
	}
}

// IsIgnored checks if a path matches ignore patterns
func (w *Watcher) IsIgnored(path string) bool {
	for _, dir := range w.config.IgnoreDirs {
		if dir == "" {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}

	slashPath := filepath.ToSlash(path)
	components := strings.Split(slashPath, "/")
	for _, pattern := range w.config.IgnorePatterns {
		if !strings.Contains(pattern, "/") {
			for _, c := range components {
				if matched, _ := doublestar.Match(pattern, c); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := doublestar.Match(pattern, slashPath); matched {
			return true
		}
	}
	return false
}

// Stats returns watcher statistics
func (w *Watcher) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return map[string]interface{}{
		"watchedRoots":   len(w.roots),
		"debounceMs":     w.config.DebounceMs,
		"ignorePatterns": len(w.config.IgnorePatterns),
		"pendingEvents":  w.batch.size(),
	}
}

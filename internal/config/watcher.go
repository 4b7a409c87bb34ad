package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	. "github.com/roelfdiedericks/voicegate/internal/logging"
)

// Watcher reloads the config file when it changes on disk.
// The parent directory is watched so editors that replace the file
// via rename are still seen.
type Watcher struct {
	watcher      *fsnotify.Watcher
	path         string
	debounce     time.Duration
	onChange     func(*Config)
	stopCh       chan struct{}
	stopOnce     sync.Once
	mu           sync.Mutex
	pendingTimer *time.Timer
	reloads      int
}

// NewWatcher watches path. onChange receives each config that loads and
// validates; broken edits are logged and skipped.
func NewWatcher(path string, debounce time.Duration, onChange func(*Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:  fsWatcher,
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start spawns the event loop.
func (w *Watcher) Start() {
	L_debug("config: watching for changes", "path", w.path)
	go w.run()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			L_warn("config: watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	L_trace("config: file event", "path", event.Name, "op", event.Op.String())
	w.triggerReload()
}

// triggerReload schedules a reload, collapsing bursts of events into one.
func (w *Watcher) triggerReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pendingTimer != nil {
		w.pendingTimer.Stop()
	}
	w.pendingTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	w.pendingTimer = nil
	w.mu.Unlock()

	select {
	case <-w.stopCh:
		return
	default:
	}

	result, err := Load(w.path)
	if err != nil {
		L_warn("config: reload failed, keeping previous config", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()

	L_info("config: reloaded", "path", w.path)
	if w.onChange != nil {
		w.onChange(result.Config)
	}
}

// Reloads returns how many successful reloads have happened.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Stop ends the watch. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)

		w.mu.Lock()
		if w.pendingTimer != nil {
			w.pendingTimer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
	})
	return err
}

package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dirtidy/internal/log"

	"github.com/fsnotify/fsnotify"
)

// FileEvent is a file change seen under a watched tree.
type FileEvent struct {
	Path      string
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher monitors directory trees for file changes using fsnotify.
// fsnotify watches are not recursive, so every directory below a root is
// added on its own and new directories are picked up as they appear.
type Watcher struct {
	// Directories being watched
	directories map[string]struct{}

	// Channel to receive file events
	events chan FileEvent

	// Signalled when events had to be dropped
	overflow chan struct{}

	// Channel to signal stop
	stopChan chan struct{}
	done     chan struct{}

	fsWatcher *fsnotify.Watcher
	log       log.Logger

	mutex   sync.RWMutex
	running bool
}

// New creates a new watcher. A nil logger discards output.
func New(logger log.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = log.Discard()
	}

	return &Watcher{
		directories: make(map[string]struct{}),
		events:      make(chan FileEvent, 64),
		overflow:    make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		fsWatcher:   fsWatcher,
		log:         logger,
	}, nil
}

// AddTree watches root and every directory below it.
func (w *Watcher) AddTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.log.WithError(err).Warnf("Cannot watch %q", path)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return w.addDirectory(path)
	})
}

func (w *Watcher) addDirectory(dir string) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if _, ok := w.directories[dir]; ok {
		return nil
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	w.directories[dir] = struct{}{}
	w.log.With(log.F("directory", dir)).Debugf("Watching directory")
	return nil
}

func (w *Watcher) forget(dir string) {
	w.mutex.Lock()
	delete(w.directories, dir)
	w.mutex.Unlock()
}

// Events returns the channel that delivers file events. It is closed by
// Stop.
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Start begins processing fsnotify events in the background.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	w.running = true

	go w.loop()
	w.log.Debugf("Watcher started")
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Errorf("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

// handle forwards creates, writes and renames of regular files. Directory
// events only maintain the watch set.
func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.forget(event.Name)
	}
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	info, err := os.Lstat(event.Name)
	if err != nil {
		// Gone again before we looked
		if !os.IsNotExist(err) {
			w.log.WithError(err).Warnf("Error stating %q", event.Name)
		}
		return
	}
	if info.IsDir() {
		if err := w.AddTree(event.Name); err != nil {
			w.log.WithError(err).Warnf("Cannot watch new directory %q", event.Name)
		}
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	select {
	case w.events <- FileEvent{Path: event.Name, Timestamp: time.Now(), Op: event.Op}:
	default:
		w.log.Debugf("Event channel is full, dropped event for %q", event.Name)
		select {
		case w.overflow <- struct{}{}:
		default:
		}
	}
}

// Stop halts the watcher and closes the event channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		w.fsWatcher.Close()
		return
	}
	w.running = false
	w.mutex.Unlock()

	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		w.log.WithError(err).Errorf("Error closing fsnotify watcher")
	}
	<-w.done
	close(w.events)
	w.log.Debugf("Watcher stopped")
}

// Overflow signals that events were dropped because the event channel was
// full. Any number of drops before the signal is read collapse into one.
func (w *Watcher) Overflow() <-chan struct{} {
	return w.overflow
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the directories currently watched.
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, 0, len(w.directories))
	for dir := range w.directories {
		dirs = append(dirs, dir)
	}
	return dirs
}

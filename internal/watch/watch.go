// Package watch is the capture event source: it watches session
// landing directories and reports files as they appear. Consumers must
// treat the stream as unreliable-but-eventually-delivering; duplicate
// events for one path are possible and delivery order is not
// guaranteed to match filesystem timestamps.
package watch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports a file that appeared in a watched directory.
type Event struct {
	// Path is the absolute path of the file.
	Path string

	// CreatedAt is when the watcher first saw the file.
	CreatedAt time.Time
}

// Watcher wraps fsnotify with per-path debouncing. OS capture tools
// emit several create/write events while saving one file; the watcher
// holds each path for the debounce window and delivers it once per
// quiet period. Deduplication against already-recorded paths is the
// store's job, not the watcher's.
type Watcher struct {
	fs       *fsnotify.Watcher
	events   chan Event
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// New creates a Watcher. Call Watch to add directories and drain
// Events until Close.
func New(debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		fs:       fs,
		events:   make(chan Event, 64),
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
	go w.loop()
	return w, nil
}

// Events is the stream of debounced file-appeared events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Watch starts watching dir.
func (w *Watcher) Watch(dir string) error {
	return w.fs.Add(dir)
}

// Unwatch stops watching dir. Events already pending for paths under
// dir still fire; the consumer decides what to do with them.
func (w *Watcher) Unwatch(dir string) error {
	return w.fs.Remove(dir)
}

// Close stops the watcher and cancels pending debounce timers. The
// Events channel is left open (a timer goroutine may be mid-send);
// consumers stop draining via their own context, not channel close.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	return w.fs.Close()
}

// loop drains fsnotify and schedules debounced delivery. The loop
// itself never blocks on the consumer: delivery happens from timer
// goroutines.
func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Rename) {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", "error", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for path. Another event
// for the same path within the window resets the timer, so a file
// being written in several bursts is delivered once, after it settles.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()

		w.events <- Event{Path: path, CreatedAt: time.Now()}
	})
}

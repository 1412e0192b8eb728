package app

import (
	"sync"
	"time"

	"cardscan/internal/frames"
)

// FrameWatcher polls a directory for frames written by a capture tool while
// the viewer runs.
type FrameWatcher struct {
	dir      string
	interval time.Duration

	mu     sync.Mutex
	known  map[string]bool
	stopCh chan struct{}
	onNew  func(paths []string)
}

// NewFrameWatcher watches dir. Frames already present are not reported.
func NewFrameWatcher(dir string, interval time.Duration) (*FrameWatcher, error) {
	existing, err := frames.List(dir)
	if err != nil {
		return nil, err
	}
	w := &FrameWatcher{
		dir:      dir,
		interval: interval,
		known:    make(map[string]bool, len(existing)),
	}
	for _, p := range existing {
		w.known[p] = true
	}
	return w, nil
}

// OnNewFrames sets the callback for frames found by the watch loop. It is
// called from a background goroutine.
func (w *FrameWatcher) OnNewFrames(callback func(paths []string)) {
	w.mu.Lock()
	w.onNew = callback
	w.mu.Unlock()
}

// Dir returns the watched directory.
func (w *FrameWatcher) Dir() string { return w.dir }

// Poll returns the frames that appeared since the last poll, in name order.
func (w *FrameWatcher) Poll() ([]string, error) {
	paths, err := frames.List(w.dir)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	var added []string
	for _, p := range paths {
		if !w.known[p] {
			w.known[p] = true
			added = append(added, p)
		}
	}
	return added, nil
}

// Start begins polling in a background goroutine.
func (w *FrameWatcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.watchLoop(stop)
}

// Stop ends polling.
func (w *FrameWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *FrameWatcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			added, err := w.Poll()
			if err != nil || len(added) == 0 {
				continue
			}
			w.mu.Lock()
			cb := w.onNew
			w.mu.Unlock()
			if cb != nil {
				cb(added)
			}
		}
	}
}

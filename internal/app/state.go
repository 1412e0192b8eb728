// Package app holds the viewer's state: the frame sequence being replayed,
// the scan pipeline, and the events the windows listen to.
package app

import (
	"fmt"
	"path/filepath"
	"sync"

	"cardscan/internal/detect"
	"cardscan/internal/frames"
	"cardscan/internal/model"
	"cardscan/internal/pipeline"
	"cardscan/internal/scan"
)

// State holds the frame sequence and the scan of it. It is safe for
// concurrent use; listeners run on the goroutine that caused the event.
type State struct {
	mu sync.RWMutex

	dir   string
	paths []string
	next  int

	models   model.Set
	cfg      pipeline.Config
	pipeline *pipeline.Pipeline

	lastFrame *frames.Frame
	lastStep  pipeline.Step
	complete  bool

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventFramesLoaded EventType = iota
	EventFramesAdded
	EventFrameScanned
	EventCardRead
	EventScanReset
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a state scanning with models.
func NewState(models model.Set, cfg pipeline.Config) *State {
	return &State{
		models:    models,
		cfg:       cfg,
		pipeline:  pipeline.New(models, cfg),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// OpenDir replaces the sequence with the frames in dir and starts over.
func (s *State) OpenDir(dir string) error {
	paths, err := frames.List(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no frames in %s", dir)
	}

	s.mu.Lock()
	s.dir = dir
	s.paths = paths
	s.resetLocked()
	s.mu.Unlock()

	s.Emit(EventFramesLoaded, dir)
	return nil
}

// Dir returns the open frame directory.
func (s *State) Dir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dir
}

// AddFrames appends frames that appeared after the directory was opened.
func (s *State) AddFrames(paths []string) {
	if len(paths) == 0 {
		return
	}
	s.mu.Lock()
	s.paths = append(s.paths, paths...)
	n := len(s.paths)
	s.mu.Unlock()

	s.Emit(EventFramesAdded, n)
}

// Frames returns the frame paths in scan order.
func (s *State) Frames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.paths...)
}

// Position returns the number of frames scanned and the sequence length.
func (s *State) Position() (scanned, total int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.next, len(s.paths)
}

// ScanNext scans the next frame. ok is false at the end of the sequence.
func (s *State) ScanNext() (step pipeline.Step, ok bool, err error) {
	s.mu.Lock()
	if s.next >= len(s.paths) {
		s.mu.Unlock()
		return step, false, nil
	}
	path := s.paths[s.next]
	f, err := frames.Load(path)
	if err != nil {
		s.mu.Unlock()
		return step, false, err
	}
	step, err = s.pipeline.Process(f)
	if err != nil {
		s.mu.Unlock()
		return step, false, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	s.next++
	s.lastFrame = f
	s.lastStep = step
	result := s.pipeline.Result()
	read := result.Complete && !s.complete
	s.complete = result.Complete
	s.mu.Unlock()

	s.Emit(EventFrameScanned, step)
	if read {
		s.Emit(EventCardRead, result)
	}
	return step, true, nil
}

// Last returns the most recently scanned frame and its step.
func (s *State) Last() (*frames.Frame, pipeline.Step, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFrame, s.lastStep, s.lastFrame != nil
}

// Result returns the current reading.
func (s *State) Result() scan.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Result()
}

// ScannerState returns the scanner's confidence in its reading.
func (s *State) ScannerState() scan.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Scanner().State()
}

// Analytics returns the scanner's recent frame records.
func (s *State) Analytics() []scan.FrameAnalytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline.Scanner().Analytics().Frames()
}

// Config returns the pipeline settings.
func (s *State) Config() pipeline.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetOrientation rebuilds the pipeline for o and rewinds the sequence.
func (s *State) SetOrientation(o detect.Orientation) {
	s.mu.Lock()
	s.cfg.Orientation = o
	s.pipeline = pipeline.New(s.models, s.cfg)
	s.resetLocked()
	s.mu.Unlock()

	s.Emit(EventScanReset, nil)
}

// Reset rewinds the sequence and forgets the reading.
func (s *State) Reset() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	s.Emit(EventScanReset, nil)
}

func (s *State) resetLocked() {
	s.pipeline.Reset()
	s.next = 0
	s.lastFrame = nil
	s.lastStep = pipeline.Step{}
	s.complete = false
}

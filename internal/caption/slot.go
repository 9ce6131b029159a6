// Package caption holds the published transcription state shared between the
// transcription worker (single writer) and its consumers: the renderer-facing
// gate, the HTTP surface, and any event subscribers.
package caption

import (
	"sync"
	"time"
)

// Caption is a published transcription with the wall-clock time of the
// inference that produced it. The zero value means "never published".
type Caption struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Slot is the last-result cell: one writer, any number of readers. Text and
// timestamp always change together under the lock, so a reader can never
// observe a caption paired with another caption's timestamp.
//
// The slot is never cleared; staleness is the Gate's job. Which components
// share a slot is the caller's choice: it is passed in explicitly rather
// than living in package state, so independent pipelines don't collide.
type Slot struct {
	mu  sync.RWMutex
	cur Caption
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Publish replaces the current caption. Called only by the transcription
// worker, with the completion time of the inference; under the
// single-worker-per-stream model timestamps are non-decreasing.
func (s *Slot) Publish(text string, at time.Time) {
	s.mu.Lock()
	s.cur = Caption{Text: text, At: at}
	s.mu.Unlock()
}

// Load returns the current caption as a consistent pair.
func (s *Slot) Load() Caption {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

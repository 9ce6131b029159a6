package caption

import (
	"time"
)

// Renderer policy defaults. The renderer owns how long a caption stays on
// screen and where it goes; these constants only surface the contract.
const (
	// DefaultStaleAfter is how old a published caption may be before the
	// gate stops offering it for display.
	DefaultStaleAfter = 3 * time.Second

	// DefaultDisplayFor is the suggested on-screen time-to-live reported
	// alongside a visible caption.
	DefaultDisplayFor = 2 * time.Second
)

// Gate decides whether the renderer should show the current caption. It is
// the read side of a Slot plus a staleness threshold: captions are never
// cleared at the source, they simply age out here.
type Gate struct {
	slot       *Slot
	staleAfter time.Duration
}

// NewGate wraps slot with the given staleness threshold; 0 uses
// DefaultStaleAfter.
func NewGate(slot *Slot, staleAfter time.Duration) *Gate {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Gate{slot: slot, staleAfter: staleAfter}
}

// ShouldDisplay reports whether text should be on screen at now, and which
// text. It returns false when nothing was ever published, the last published
// text is empty, or the caption is older than the staleness threshold.
func (g *Gate) ShouldDisplay(now time.Time) (bool, string) {
	c := g.slot.Load()
	if c.Text == "" || c.At.IsZero() {
		return false, ""
	}
	if now.Sub(c.At) > g.staleAfter {
		return false, ""
	}
	return true, c.Text
}

// StaleAfter returns the configured staleness threshold.
func (g *Gate) StaleAfter() time.Duration {
	return g.staleAfter
}

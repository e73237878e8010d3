// Package watch classifies opportunities across repeated scan cycles so the
// operator is alerted once per distinct opportunity, not once per cycle it
// stays alive.
package watch

import (
	"sync"
)

// Status is the tracker's verdict on one sighting of an opportunity.
type Status int

const (
	// StatusNew marks an opportunity not seen before in this session.
	StatusNew Status = iota
	// StatusDuplicate marks a repeat sighting with unchanged economics.
	StatusDuplicate
	// StatusRenotify marks a repeat sighting whose profit moved enough to be
	// worth a fresh alert.
	StatusRenotify
)

// String implements fmt.Stringer for log output.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusDuplicate:
		return "duplicate"
	case StatusRenotify:
		return "renotify"
	}
	return "unknown"
}

// Tracker remembers every opportunity's last alerted profit, keyed by the
// opportunity's identity key. Entries live for the whole watch session: an
// opportunity that stops appearing costs nothing, and one that reappears
// with similar numbers stays suppressed. Safe for concurrent use.
type Tracker struct {
	renotifyDeltaPct float64

	mu   sync.Mutex
	seen map[string]float64
}

// NewTracker creates a Tracker. An opportunity whose profit moves by more
// than renotifyDeltaPct percentage points since its last alert is classified
// StatusRenotify instead of StatusDuplicate.
func NewTracker(renotifyDeltaPct float64) *Tracker {
	return &Tracker{
		renotifyDeltaPct: renotifyDeltaPct,
		seen:             make(map[string]float64),
	}
}

// Classify records a sighting of key at profitPct and returns its status.
// New and renotified sightings update the remembered profit; duplicates do
// not, so a slow drift across many cycles still re-triggers once it
// accumulates past the delta.
func (t *Tracker) Classify(key string, profitPct float64) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.seen[key]
	switch {
	case !ok:
		t.seen[key] = profitPct
		return StatusNew
	case abs(profitPct-prev) > t.renotifyDeltaPct:
		t.seen[key] = profitPct
		return StatusRenotify
	default:
		return StatusDuplicate
	}
}

// Len returns the number of tracked opportunity keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

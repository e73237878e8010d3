package watch

import "testing"

func TestClassifyFirstSightingIsNew(t *testing.T) {
	tr := NewTracker(1.0)

	if got := tr.Classify("k1", 2.0); got != StatusNew {
		t.Fatalf("first sighting = %v, want new", got)
	}
	if got := tr.Classify("k1", 2.0); got != StatusDuplicate {
		t.Fatalf("second sighting = %v, want duplicate", got)
	}
}

func TestClassifyKeysAreIndependent(t *testing.T) {
	tr := NewTracker(1.0)

	tr.Classify("k1", 2.0)
	if got := tr.Classify("k2", 2.0); got != StatusNew {
		t.Fatalf("distinct key = %v, want new", got)
	}
	if tr.Len() != 2 {
		t.Errorf("Len = %d, want 2", tr.Len())
	}
}

func TestClassifyRenotifyOnProfitMove(t *testing.T) {
	tr := NewTracker(1.0)
	tr.Classify("k1", 2.0)

	// Moves inside the delta stay duplicates in either direction.
	if got := tr.Classify("k1", 2.9); got != StatusDuplicate {
		t.Fatalf("+0.9 = %v, want duplicate", got)
	}
	if got := tr.Classify("k1", 1.2); got != StatusDuplicate {
		t.Fatalf("-0.8 = %v, want duplicate", got)
	}

	// Crossing the delta re-alerts and advances the baseline.
	if got := tr.Classify("k1", 3.1); got != StatusRenotify {
		t.Fatalf("+1.1 = %v, want renotify", got)
	}
	if got := tr.Classify("k1", 2.5); got != StatusDuplicate {
		t.Fatalf("within delta of new baseline = %v, want duplicate", got)
	}
}

func TestClassifySlowDriftAccumulates(t *testing.T) {
	// Duplicates keep the baseline at the last alerted profit, so many small
	// moves in the same direction eventually re-trigger.
	tr := NewTracker(1.0)
	tr.Classify("k1", 2.0)

	if got := tr.Classify("k1", 2.6); got != StatusDuplicate {
		t.Fatalf("first drift = %v, want duplicate", got)
	}
	if got := tr.Classify("k1", 3.2); got != StatusRenotify {
		t.Fatalf("accumulated drift = %v, want renotify", got)
	}
}

func TestClassifyZeroDeltaRenotifiesAnyMove(t *testing.T) {
	tr := NewTracker(0)
	tr.Classify("k1", 2.0)

	if got := tr.Classify("k1", 2.0); got != StatusDuplicate {
		t.Fatalf("unchanged = %v, want duplicate", got)
	}
	if got := tr.Classify("k1", 2.01); got != StatusRenotify {
		t.Fatalf("any move = %v, want renotify", got)
	}
}

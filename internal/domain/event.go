package domain

import (
	"sort"
	"strings"
	"time"
)

// eventKeyBucket is the granularity used when folding an event's start time
// into its identity key. Two reports of the same match whose start times fall
// into the same bucket produce the same key.
const eventKeyBucket = 30 * time.Minute

// Event is a single real-world match. Events are rebuilt from scratch on every
// scan cycle; the only identity that survives a cycle is the derived Key.
type Event struct {
	SportKey    string    // e.g. "icehockey_nhl"
	SportLabel  string    // e.g. "NHL"
	Competitors []string  // two entries, or three-plus for draw-capable sports
	StartTime   time.Time // scheduled start, UTC
}

// Key derives the stable identity of the event: sport, the normalized
// competitor set (order-insensitive), and the start time folded into a
// 30-minute bucket. Minor name or kick-off variance across bookmakers maps to
// the same key after normalization upstream.
func (e Event) Key() string {
	names := make([]string, len(e.Competitors))
	for i, c := range e.Competitors {
		names[i] = NormalizeCompetitor(c)
	}
	sort.Strings(names)

	bucket := e.StartTime.UTC().Truncate(eventKeyBucket)

	var b strings.Builder
	b.WriteString(e.SportKey)
	for _, n := range names {
		b.WriteByte('|')
		b.WriteString(n)
	}
	b.WriteByte('|')
	b.WriteString(bucket.Format("200601021504"))
	return b.String()
}

// Name renders the human-facing event title, e.g. "Leafs vs Canadiens".
func (e Event) Name() string {
	return strings.Join(e.Competitors, " vs ")
}

// OutcomeName renders a canonical outcome label for display: team outcomes
// resolve to the competitor's name, the rest to a readable word.
func (e Event) OutcomeName(outcome string) string {
	switch outcome {
	case OutcomeHome:
		if len(e.Competitors) > 0 {
			return e.Competitors[0]
		}
	case OutcomeAway:
		if len(e.Competitors) > 1 {
			return e.Competitors[1]
		}
	case OutcomeDraw:
		return "Draw"
	case OutcomeOver:
		return "Over"
	case OutcomeUnder:
		return "Under"
	}
	return outcome
}

// NormalizeCompetitor lowercases a competitor name, strips punctuation, and
// collapses runs of whitespace so the same team reported with cosmetic
// variance by different bookmakers compares equal.
func NormalizeCompetitor(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

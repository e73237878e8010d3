package normalize

import (
	"strings"

	"github.com/dmarleau/arbscan/internal/domain"
)

// drawLabels are the source-side spellings of the draw outcome.
var drawLabels = map[string]bool{
	"draw": true,
	"tie":  true,
	"x":    true,
}

// mapOutcome translates a source-local outcome label into the canonical set
// for the quote's market. Moneyline and spread labels carry a team name and
// resolve against the event's competitors; totals resolve on an over/under
// prefix. Returns false for labels that fit nothing.
func mapOutcome(rq domain.RawQuote, event domain.Event) (string, bool) {
	label := strings.TrimSpace(rq.Outcome)
	if label == "" {
		return "", false
	}

	switch rq.MarketType {
	case domain.MarketTotal:
		lower := strings.ToLower(label)
		switch {
		case strings.HasPrefix(lower, "over"), lower == "o":
			return domain.OutcomeOver, true
		case strings.HasPrefix(lower, "under"), lower == "u":
			return domain.OutcomeUnder, true
		}
		return "", false

	case domain.MarketMoneyline, domain.MarketSpread:
		if rq.MarketType == domain.MarketMoneyline && drawLabels[strings.ToLower(label)] {
			return domain.OutcomeDraw, true
		}
		// Spread labels often carry the handicap, e.g. "Leafs -3.5".
		team := strings.TrimSpace(trimHandicap(label))
		if len(event.Competitors) == 2 {
			if teamsMatch(team, event.Competitors[0]) {
				return domain.OutcomeHome, true
			}
			if teamsMatch(team, event.Competitors[1]) {
				return domain.OutcomeAway, true
			}
		}
		// Some books label moneyline sides positionally.
		switch strings.ToLower(label) {
		case "home", "1":
			return domain.OutcomeHome, true
		case "away", "2":
			return domain.OutcomeAway, true
		}
		return "", false
	}
	return "", false
}

// trimHandicap strips a trailing signed line from a spread label, leaving the
// team name.
func trimHandicap(label string) string {
	if i := strings.LastIndexAny(label, "+-"); i > 0 {
		tail := label[i+1:]
		if tail != "" && strings.Trim(tail, "0123456789.") == "" {
			return label[:i]
		}
	}
	return label
}

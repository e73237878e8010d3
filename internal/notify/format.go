package notify

import (
	"fmt"
	"strings"

	"github.com/dmarleau/arbscan/internal/domain"
)

// FormatAlert renders an opportunity as an alert title and body. The body
// lists one placement step per leg so the operator can work top to bottom.
func FormatAlert(opp domain.Opportunity) (title, message string) {
	title = fmt.Sprintf("Arbitrage %.2f%% — %s (%s)",
		opp.ProfitPct, opp.Event.Name(), opp.Event.SportLabel)

	var b strings.Builder
	fmt.Fprintf(&b, "Market: %s\n", opp.Market.Label())
	if !opp.Event.StartTime.IsZero() {
		fmt.Fprintf(&b, "Starts: %s\n", opp.Event.StartTime.Format("Mon Jan 2 15:04 MST"))
	}
	b.WriteByte('\n')

	for i, leg := range opp.Legs {
		fmt.Fprintf(&b, "Step %d: bet $%.2f on %s @ %.2f at %s\n",
			i+1, leg.Stake, opp.Event.OutcomeName(leg.Outcome), leg.Price, leg.Source.Name)
		if leg.URL != "" {
			fmt.Fprintf(&b, "        %s\n", leg.URL)
		}
	}

	fmt.Fprintf(&b, "\nGuaranteed profit: $%.2f (%.2f%%) on $%.2f total\n",
		opp.Profit, opp.ProfitPct, opp.TotalStake)
	b.WriteString("Place ALL bets promptly; odds move fast.")

	return title, b.String()
}

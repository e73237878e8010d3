// Package display renders scan results for an operator watching a terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmarleau/arbscan/internal/domain"
)

// Cycle is everything one completed scan contributes to the dashboard.
type Cycle struct {
	Number        int
	ScanAt        time.Time
	Elapsed       time.Duration
	QuoteCount    int
	Reports       []domain.SourceReport
	Opportunities []domain.Opportunity
	NewCount      int
}

// Renderer consumes completed cycles. The scan loop calls it synchronously,
// so implementations should write and return.
type Renderer interface {
	Render(cycle Cycle)
}

// Terminal renders a plain-text dashboard: scan header, per-source health,
// the ranked opportunity table, and step-by-step bet cards.
type Terminal struct {
	out io.Writer
}

// NewTerminal creates a Terminal renderer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Render implements Renderer.
func (t *Terminal) Render(cycle Cycle) {
	fmt.Fprintf(t.out, "\nScan #%d  |  %s  |  %.1fs  |  %d quotes collected",
		cycle.Number,
		cycle.ScanAt.Format("2006-01-02 15:04:05"),
		cycle.Elapsed.Seconds(),
		cycle.QuoteCount,
	)
	if cycle.NewCount > 0 {
		fmt.Fprintf(t.out, "  [%d NEW]", cycle.NewCount)
	}
	fmt.Fprintln(t.out)

	t.renderHealth(cycle.Reports)

	if len(cycle.Opportunities) == 0 {
		fmt.Fprintln(t.out, "\nNo arbitrage opportunities found this scan.")
		return
	}

	t.renderTable(cycle.Opportunities)
	for i, opp := range cycle.Opportunities {
		t.renderCard(i+1, opp)
	}
}

func (t *Terminal) renderHealth(reports []domain.SourceReport) {
	if len(reports) == 0 {
		return
	}
	fmt.Fprintln(t.out, "\nSources:")
	for _, rep := range reports {
		status := "ok"
		switch {
		case rep.Err != nil:
			status = "FAILED: " + rep.Err.Error()
		case rep.Degraded:
			status = "degraded (quota)"
		}
		fmt.Fprintf(t.out, "  %-20s %4d quotes  %2d attempt(s)  %6.1fs  %s\n",
			rep.SourceID, rep.Quotes, rep.Attempts, rep.Elapsed.Seconds(), status)
	}
}

func (t *Terminal) renderTable(opps []domain.Opportunity) {
	fmt.Fprintln(t.out, "\nOpportunities (sorted by profit):")
	fmt.Fprintf(t.out, "  %-3s %-5s %-34s %-14s %-22s %9s %8s\n",
		"#", "Sport", "Event", "Market", "Books", "Profit", "Pct")
	for i, opp := range opps {
		fmt.Fprintf(t.out, "  %-3d %-5s %-34s %-14s %-22s %9s %7.2f%%\n",
			i+1,
			opp.Event.SportLabel,
			clip(opp.Event.Name(), 34),
			clip(opp.Market.Label(), 14),
			clip(opp.SourcePair(), 22),
			fmt.Sprintf("$%.2f", opp.Profit),
			opp.ProfitPct,
		)
	}
}

func (t *Terminal) renderCard(num int, opp domain.Opportunity) {
	sep := strings.Repeat("=", 64)
	fmt.Fprintf(t.out, "\n%s\n", sep)
	fmt.Fprintf(t.out, "ARBITRAGE OPPORTUNITY #%d  --  %s\n", num, opp.Event.SportLabel)
	fmt.Fprintf(t.out, "Event  : %s\n", opp.Event.Name())
	fmt.Fprintf(t.out, "Market : %s\n", opp.Market.Label())
	if !opp.Event.StartTime.IsZero() {
		fmt.Fprintf(t.out, "Time   : %s\n", opp.Event.StartTime.Format("Mon Jan 2 15:04 MST"))
	}
	fmt.Fprintln(t.out)

	for step, leg := range opp.Legs {
		fmt.Fprintf(t.out, "STEP %d -> Open %s\n", step+1, leg.Source.Name)
		if leg.URL != "" {
			fmt.Fprintf(t.out, "         %s\n", leg.URL)
		}
		fmt.Fprintf(t.out, "         Bet $%.2f on %s @ %.2f\n\n",
			leg.Stake, opp.Event.OutcomeName(leg.Outcome), leg.Price)
	}

	fmt.Fprintf(t.out, "Guaranteed profit: $%.2f  (%.2f%%)\n", opp.Profit, opp.ProfitPct)
	fmt.Fprintf(t.out, "Total stake: $%.2f CAD\n", opp.TotalStake)
	fmt.Fprintln(t.out, "!! Place ALL bets within 2 minutes !!")
	fmt.Fprintln(t.out, sep)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

// NoOp discards cycles. Used in headless deployments where the logs and the
// notifiers are the only outputs.
type NoOp struct{}

// Render implements Renderer.
func (NoOp) Render(Cycle) {}

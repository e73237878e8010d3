package display

import (
	"fmt"
	"io"

	"github.com/dmarleau/arbscan/internal/domain"
)

// RenderReport writes the aggregate report: the per-day breakdown by sport
// and market, then the bookmaker pairings ranked by profit.
func RenderReport(out io.Writer, daily []domain.DailySummary, pairs []domain.SourcePairSummary) {
	fmt.Fprintln(out, "Opportunity report")
	fmt.Fprintln(out)

	if len(daily) == 0 {
		fmt.Fprintln(out, "No opportunities recorded in the selected period.")
		return
	}

	fmt.Fprintf(out, "%-12s %-6s %-10s %6s %12s %9s %9s\n",
		"Day", "Sport", "Market", "Count", "Profit", "Avg%", "Max%")
	for _, row := range daily {
		fmt.Fprintf(out, "%-12s %-6s %-10s %6d %12s %8.2f%% %8.2f%%\n",
			row.Day.Format("2006-01-02"),
			row.Sport,
			string(row.MarketType),
			row.Opportunities,
			fmt.Sprintf("$%.2f", row.TotalProfit),
			row.AvgProfitPct,
			row.MaxProfitPct,
		)
	}

	if len(pairs) == 0 {
		return
	}

	fmt.Fprintln(out, "\nBest bookmaker pairings:")
	fmt.Fprintf(out, "  %-30s %6s %12s %9s\n", "Pair", "Count", "Profit", "Avg%")
	for _, p := range pairs {
		fmt.Fprintf(out, "  %-30s %6d %12s %8.2f%%\n",
			p.SourcePair,
			p.Opportunities,
			fmt.Sprintf("$%.2f", p.TotalProfit),
			p.AvgProfitPct,
		)
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmarleau/arbscan/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
// Aggregate fields live in scalar columns for the report queries; the legs
// round-trip through a JSONB column.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert appends one detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, opportunity_key, sport_key, sport_label,
			event_name, event_start, market_type, line,
			source_pair, total_implied, profit_pct,
			total_stake, profit, legs, discovered_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14, $15
		)`

	legs, err := json.Marshal(opp.Legs)
	if err != nil {
		return fmt.Errorf("postgres: marshal legs for %s: %w", opp.ID, err)
	}

	var eventStart *time.Time
	if !opp.Event.StartTime.IsZero() {
		t := opp.Event.StartTime
		eventStart = &t
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.Key(), opp.Event.SportKey, opp.Event.SportLabel,
		opp.Event.Name(), eventStart, string(opp.Market.Type), nullableLine(opp.Market),
		opp.SourcePair(), opp.TotalImplied, opp.ProfitPct,
		opp.TotalStake, opp.Profit, legs, opp.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// nullableLine renders a market's line for the nullable line column: NULL for
// moneyline, the numeric line for spread and total.
func nullableLine(m domain.Market) *float64 {
	if m.Type == domain.MarketMoneyline {
		return nil
	}
	l := m.Line
	return &l
}

// DailySummary aggregates stored opportunities per calendar day, sport, and
// market since the given time.
func (s *OpportunityStore) DailySummary(ctx context.Context, since time.Time) ([]domain.DailySummary, error) {
	const query = `
		SELECT
			date_trunc('day', discovered_at) AS day,
			sport_label,
			market_type,
			COUNT(*),
			COALESCE(SUM(profit), 0),
			COALESCE(AVG(profit_pct), 0),
			COALESCE(MAX(profit_pct), 0)
		FROM opportunities
		WHERE discovered_at >= $1
		GROUP BY 1, 2, 3
		ORDER BY 1 DESC, 2, 3`

	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("postgres: daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DailySummary
	for rows.Next() {
		var (
			sum        domain.DailySummary
			marketType string
		)
		if err := rows.Scan(
			&sum.Day, &sum.Sport, &marketType,
			&sum.Opportunities, &sum.TotalProfit, &sum.AvgProfitPct, &sum.MaxProfitPct,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan daily summary: %w", err)
		}
		sum.MarketType = domain.MarketType(marketType)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate daily summary: %w", err)
	}
	return summaries, nil
}

// TopSourcePairs ranks bookmaker pairings by total profit since the given
// time.
func (s *OpportunityStore) TopSourcePairs(ctx context.Context, since time.Time, limit int) ([]domain.SourcePairSummary, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT
			source_pair,
			COUNT(*),
			COALESCE(SUM(profit), 0),
			COALESCE(AVG(profit_pct), 0)
		FROM opportunities
		WHERE discovered_at >= $1
		GROUP BY source_pair
		ORDER BY SUM(profit) DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: top source pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.SourcePairSummary
	for rows.Next() {
		var p domain.SourcePairSummary
		if err := rows.Scan(&p.SourcePair, &p.Opportunities, &p.TotalProfit, &p.AvgProfitPct); err != nil {
			return nil, fmt.Errorf("postgres: scan source pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate source pairs: %w", err)
	}
	return pairs, nil
}

// ListBefore returns every opportunity discovered before the cutoff, oldest
// first. Used by the archiver when moving aged rows to cold storage.
func (s *OpportunityStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error) {
	const query = `
		SELECT
			id, sport_key, sport_label, event_name, event_start,
			market_type, line, total_implied, profit_pct,
			total_stake, profit, legs, discovered_at
		FROM opportunities
		WHERE discovered_at < $1
		ORDER BY discovered_at`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities before %v: %w", before, err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var (
			opp        domain.Opportunity
			eventName  string
			eventStart *time.Time
			marketType string
			line       *float64
			legs       []byte
		)
		if err := rows.Scan(
			&opp.ID, &opp.Event.SportKey, &opp.Event.SportLabel, &eventName, &eventStart,
			&marketType, &line, &opp.TotalImplied, &opp.ProfitPct,
			&opp.TotalStake, &opp.Profit, &legs, &opp.DiscoveredAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opp.Event.Competitors = strings.Split(eventName, " vs ")
		if eventStart != nil {
			opp.Event.StartTime = *eventStart
		}
		if line != nil {
			opp.Market.Line = *line
		}
		opp.Market.Type = domain.MarketType(marketType)
		if err := json.Unmarshal(legs, &opp.Legs); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal legs for %s: %w", opp.ID, err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return opps, nil
}

// DeleteBefore removes every opportunity discovered before the cutoff and
// returns the number of rows deleted.
func (s *OpportunityStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM opportunities WHERE discovered_at < $1", before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete opportunities before %v: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

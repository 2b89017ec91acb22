package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// sqlService is the database-backed ledger, shared between the sqlite and
// postgres constructors.
type sqlService struct {
	db       *sql.DB
	postgres bool
	limit    int
}

func (s *sqlService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlService) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlService) RecordRound(ctx context.Context, rec RoundRecord) error {
	if rec.RoundID == "" || rec.AccountID == 0 {
		return fmt.Errorf("incomplete round record: %+v", rec)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	playerCards, err := json.Marshal(rec.PlayerCards)
	if err != nil {
		return err
	}
	dealerCards, err := json.Marshal(rec.DealerCards)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO bj_rounds (
    round_id, account_id, played_at_ms, outcome, reward,
    player_cards, dealer_cards, player_sum, dealer_sum, running_count
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.RoundID, rec.AccountID, rec.PlayedAt.UnixMilli(), rec.Outcome, rec.Reward,
		string(playerCards), string(dealerCards), rec.PlayerSum, rec.DealerSum, rec.RunningCount)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *sqlService) ListRecent(ctx context.Context, accountID uint64, limit int) ([]RoundRecord, error) {
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT round_id, account_id, played_at_ms, outcome, reward,
       player_cards, dealer_cards, player_sum, dealer_sum, running_count
FROM bj_rounds
WHERE account_id = ?
ORDER BY played_at_ms DESC
LIMIT ?`), accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	out := make([]RoundRecord, 0, limit)
	for rows.Next() {
		var (
			rec         RoundRecord
			playedAtMs  int64
			playerCards string
			dealerCards string
		)
		if err := rows.Scan(
			&rec.RoundID, &rec.AccountID, &playedAtMs, &rec.Outcome, &rec.Reward,
			&playerCards, &dealerCards, &rec.PlayerSum, &rec.DealerSum, &rec.RunningCount,
		); err != nil {
			return nil, err
		}
		rec.PlayedAt = time.UnixMilli(playedAtMs).UTC()
		if err := json.Unmarshal([]byte(playerCards), &rec.PlayerCards); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dealerCards), &rec.DealerCards); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *sqlService) AccountStats(ctx context.Context, accountID uint64) (Stats, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT outcome, COUNT(*), COALESCE(SUM(reward), 0)
FROM bj_rounds
WHERE account_id = ?
GROUP BY outcome`), accountID)
	if err != nil {
		return Stats{}, fmt.Errorf("aggregate rounds: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			outcome string
			count   int
			reward  float64
		)
		if err := rows.Scan(&outcome, &count, &reward); err != nil {
			return Stats{}, err
		}
		stats.Rounds += count
		stats.NetReward += reward
		switch outcome {
		case "WIN":
			stats.Wins += count
		case "BLACKJACK":
			stats.Wins += count
			stats.Blackjacks += count
		case "PUSH":
			stats.Pushes += count
		default:
			stats.Losses += count
		}
	}
	return stats, rows.Err()
}

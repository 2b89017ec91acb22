// Package ledger persists settled rounds per account and serves aggregate
// stats over HTTP.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultRecentLimit = 200

var ErrNotFound = errors.New("not found")

// RoundRecord is one settled round as stored in the ledger.
type RoundRecord struct {
	RoundID      string    `json:"round_id"`
	AccountID    uint64    `json:"account_id"`
	PlayedAt     time.Time `json:"played_at"`
	Outcome      string    `json:"outcome"`
	Reward       float64   `json:"reward"`
	PlayerCards  []string  `json:"player_cards"`
	DealerCards  []string  `json:"dealer_cards"`
	PlayerSum    int       `json:"player_sum"`
	DealerSum    int       `json:"dealer_sum"`
	RunningCount int       `json:"running_count"`
}

// Stats aggregates an account's settled rounds.
type Stats struct {
	Rounds     int     `json:"rounds"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pushes     int     `json:"pushes"`
	Blackjacks int     `json:"blackjacks"`
	NetReward  float64 `json:"net_reward"`
}

func (s *Stats) add(rec RoundRecord) {
	s.Rounds++
	s.NetReward += rec.Reward
	switch rec.Outcome {
	case "WIN":
		s.Wins++
	case "BLACKJACK":
		s.Wins++
		s.Blackjacks++
	case "PUSH":
		s.Pushes++
	default: // LOSS, DEALER_BLACKJACK, BUST
		s.Losses++
	}
}

type Service interface {
	Close() error
	RecordRound(ctx context.Context, rec RoundRecord) error
	ListRecent(ctx context.Context, accountID uint64, limit int) ([]RoundRecord, error)
	AccountStats(ctx context.Context, accountID uint64) (Stats, error)
}

// memoryService keeps rounds in process memory; it backs the zero-config
// deployment and tests.
type memoryService struct {
	mu     sync.Mutex
	rounds map[uint64][]RoundRecord
	limit  int
}

func NewMemoryService() Service {
	return &memoryService{
		rounds: make(map[uint64][]RoundRecord),
		limit:  defaultRecentLimit,
	}
}

func (m *memoryService) Close() error { return nil }

func (m *memoryService) RecordRound(_ context.Context, rec RoundRecord) error {
	if rec.RoundID == "" || rec.AccountID == 0 {
		return fmt.Errorf("incomplete round record: %+v", rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append(m.rounds[rec.AccountID], rec)
	if len(list) > m.limit {
		list = list[len(list)-m.limit:]
	}
	m.rounds[rec.AccountID] = list
	return nil
}

func (m *memoryService) ListRecent(_ context.Context, accountID uint64, limit int) ([]RoundRecord, error) {
	if limit <= 0 || limit > defaultRecentLimit {
		limit = defaultRecentLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.rounds[accountID]
	out := make([]RoundRecord, len(list))
	copy(out, list)
	sort.Slice(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryService) AccountStats(_ context.Context, accountID uint64) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats Stats
	for _, rec := range m.rounds[accountID] {
		stats.add(rec)
	}
	return stats, nil
}

const (
	LedgerModeMemory   = "memory"
	LedgerModeSQLite   = "sqlite"
	LedgerModePostgres = "postgres"
)

func ledgerModeFromEnv(authMode string) string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("LEDGER_MODE")))
	if raw == "" {
		// Follow the auth backend so a single env var configures both.
		raw = strings.ToLower(strings.TrimSpace(authMode))
	}
	switch raw {
	case "", LedgerModeMemory, "mem":
		return LedgerModeMemory
	case LedgerModeSQLite, "local":
		return LedgerModeSQLite
	case LedgerModePostgres, "postgresql", "db":
		return LedgerModePostgres
	default:
		return raw
	}
}

// NewServiceFromEnv selects the ledger backend via LEDGER_MODE, defaulting
// to the auth backend's mode.
func NewServiceFromEnv(authMode string) (Service, string, error) {
	mode := ledgerModeFromEnv(authMode)

	switch mode {
	case LedgerModeMemory:
		return NewMemoryService(), mode, nil
	case LedgerModeSQLite:
		service, err := NewSQLiteServiceFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return service, mode, nil
	case LedgerModePostgres:
		service, err := NewPostgresServiceFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return service, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid LEDGER_MODE %q (supported: %s, %s, %s)",
			mode, LedgerModeMemory, LedgerModeSQLite, LedgerModePostgres)
	}
}

// Package lobby registers one table actor per account and hands sessions to
// the gateway.
package lobby

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"

	"blackjack-lite/agent"
	"blackjack-lite/apps/server/internal/ledger"
	"blackjack-lite/apps/server/internal/table"
)

// Lobby manages per-account blackjack sessions.
type Lobby struct {
	mu      sync.RWMutex
	tables  map[uint64]*table.Table // accountID -> session
	nextID  uint64
	ledger  ledger.Service
	advisor agent.Policy

	defaultConfig table.TableConfig
}

// New creates a lobby; advisor backs the hint requests of every session.
func New(ledgerService ledger.Service, advisor agent.Policy) *Lobby {
	return &Lobby{
		tables:        make(map[uint64]*table.Table),
		ledger:        ledgerService,
		advisor:       advisor,
		defaultConfig: configFromEnv(),
	}
}

func configFromEnv() table.TableConfig {
	cfg := table.TableConfig{NumDecks: 1}
	if raw := strings.TrimSpace(os.Getenv("BJ_DECKS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.NumDecks = parsed
		}
	}
	if raw := strings.ToLower(strings.TrimSpace(os.Getenv("BJ_NATURAL_BONUS"))); raw == "1" || raw == "true" {
		cfg.NaturalBonus = true
	}
	return cfg
}

// QuickStart returns the account's running session or creates a fresh one.
func (l *Lobby) QuickStart(accountID uint64, broadcastFn func(accountID uint64, data []byte)) (*table.Table, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, exists := l.tables[accountID]; exists {
		log.Printf("[Lobby] QuickStart: account %d rejoining table %s", accountID, t.ID)
		return t, nil
	}

	l.nextID++
	tableID := fmt.Sprintf("table_%d", l.nextID)
	t, err := table.New(tableID, accountID, l.defaultConfig, broadcastFn, l.ledger, l.advisor, l.remove)
	if err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	l.tables[accountID] = t

	log.Printf("[Lobby] QuickStart: account %d opened table %s", accountID, tableID)
	return t, nil
}

// remove drops a stopped session; wired as the table's onClose callback.
func (l *Lobby) remove(tableID string, accountID uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, exists := l.tables[accountID]; exists && t.ID == tableID {
		delete(l.tables, accountID)
		log.Printf("[Lobby] Removed table %s (account %d), total: %d", tableID, accountID, len(l.tables))
	}
}

// GetByAccount returns the account's session, nil when none is running.
func (l *Lobby) GetByAccount(accountID uint64) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[accountID]
}

// Count returns the number of live sessions.
func (l *Lobby) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tables)
}

// CloseAll stops every session; used on shutdown.
func (l *Lobby) CloseAll() {
	l.mu.Lock()
	tables := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		tables = append(tables, t)
	}
	l.mu.Unlock()

	for _, t := range tables {
		t.Close()
	}
}

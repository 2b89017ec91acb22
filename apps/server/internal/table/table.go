// Package table runs one blackjack session per account as an actor: all
// mutation flows through the event channel, snapshots and results are pushed
// back through the gateway broadcast callback.
package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"blackjack-lite/agent"
	"blackjack-lite/apps/server/internal/codec"
	"blackjack-lite/apps/server/internal/ledger"
	"blackjack-lite/blackjack"

	"github.com/google/uuid"
)

// TableConfig shapes the game each session plays.
type TableConfig struct {
	NumDecks     int
	NaturalBonus bool
	Seed         int64
}

// EventType enumerates the actor message kinds.
type EventType int

const (
	EventJoin EventType = iota
	EventDeal
	EventAction
	EventHint
	EventStats
	EventClose
)

// Event is one message to the table actor. Response, when set, receives the
// handler's error exactly once.
type Event struct {
	Type     EventType
	Action   blackjack.Action
	Response chan error
}

var (
	ErrTableClosed = errors.New("table closed")
	ErrNoLiveRound = errors.New("no live round")
)

const (
	idleTimeout   = 10 * time.Minute
	idleTickEvery = 30 * time.Second
)

// Table is a single-player blackjack session actor.
type Table struct {
	ID        string
	AccountID uint64

	mu           sync.Mutex
	game         *blackjack.Game
	closed       bool
	stopOnce     sync.Once
	serverSeq    uint64
	lastActivity time.Time

	events chan Event
	done   chan struct{}

	broadcast func(accountID uint64, data []byte)
	ledger    ledger.Service
	advisor   agent.Policy
	onClose   func(tableID string, accountID uint64)
}

// New creates the session actor and starts its goroutine. onClose fires once
// when the actor stops, letting the lobby drop its registration.
func New(
	id string,
	accountID uint64,
	cfg TableConfig,
	broadcastFn func(accountID uint64, data []byte),
	ledgerService ledger.Service,
	advisor agent.Policy,
	onClose func(tableID string, accountID uint64),
) (*Table, error) {
	game, err := blackjack.NewGame(blackjack.Config{
		NumDecks:     cfg.NumDecks,
		NaturalBonus: cfg.NaturalBonus,
		Seed:         cfg.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	t := &Table{
		ID:           id,
		AccountID:    accountID,
		game:         game,
		events:       make(chan Event, 64),
		done:         make(chan struct{}),
		broadcast:    broadcastFn,
		ledger:       ledgerService,
		advisor:      advisor,
		onClose:      onClose,
		lastActivity: time.Now(),
	}

	go t.run()

	log.Printf("[Table %s] Created for account %d (decks=%d)", id, accountID, cfg.NumDecks)
	return t, nil
}

// SubmitEvent enqueues an event and waits for the handler's verdict.
func (t *Table) SubmitEvent(e Event) error {
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}
	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}
	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		return ErrTableClosed
	}
}

// Close stops the actor; safe to call more than once.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Table) run() {
	ticker := time.NewTicker(idleTickEvery)
	defer ticker.Stop()

	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			t.tick()
		case <-t.done:
			log.Printf("[Table %s] Actor stopped", t.ID)
			return
		}
	}
}

func (t *Table) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if time.Since(t.lastActivity) > idleTimeout {
		log.Printf("[Table %s] Idle for %v, closing", t.ID, idleTimeout)
		t.stopLocked()
	}
}

func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}
	t.lastActivity = time.Now()

	switch e.Type {
	case EventJoin:
		return t.handleJoinLocked()
	case EventDeal:
		return t.handleDealLocked()
	case EventAction:
		return t.handleActionLocked(e.Action)
	case EventHint:
		return t.handleHintLocked()
	case EventStats:
		return t.handleStatsLocked()
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// handleJoinLocked replays the current state to a (re)connecting client.
func (t *Table) handleJoinLocked() error {
	if t.game.Round() > 0 {
		t.pushSnapshotLocked()
	}
	return nil
}

func (t *Table) handleDealLocked() error {
	if _, err := t.game.Deal(); err != nil {
		return err
	}
	t.pushSnapshotLocked()
	return nil
}

func (t *Table) handleActionLocked(action blackjack.Action) error {
	res, err := t.game.Step(action)
	if err != nil {
		return err
	}
	t.pushSnapshotLocked()

	if res.Done {
		snap := t.game.Snapshot()
		t.pushEnvelopeLocked(&codec.RoundEnd{
			Round:   snap.Round,
			Outcome: snap.Outcome.String(),
			Reward:  snap.Reward,
		})
		t.recordRoundLocked(snap)
	}
	return nil
}

func (t *Table) handleHintLocked() error {
	if t.game.Round() == 0 || t.game.Over() {
		return ErrNoLiveRound
	}
	action := t.advisor.SelectAction(t.game.Observation())
	t.pushEnvelopeLocked(&codec.Hint{
		Action: action.String(),
		Policy: t.advisor.Name(),
	})
	return nil
}

func (t *Table) handleStatsLocked() error {
	stats, err := t.ledger.AccountStats(context.Background(), t.AccountID)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}
	t.pushEnvelopeLocked(&codec.Stats{
		Rounds:     stats.Rounds,
		Wins:       stats.Wins,
		Losses:     stats.Losses,
		Pushes:     stats.Pushes,
		Blackjacks: stats.Blackjacks,
		NetReward:  stats.NetReward,
	})
	return nil
}

func (t *Table) recordRoundLocked(snap blackjack.Snapshot) {
	rec := ledger.RoundRecord{
		RoundID:      uuid.NewString(),
		AccountID:    t.AccountID,
		PlayedAt:     time.Now().UTC(),
		Outcome:      snap.Outcome.String(),
		Reward:       snap.Reward,
		PlayerCards:  codec.CardsToWire(snap.PlayerCards),
		DealerCards:  codec.CardsToWire(snap.DealerCards),
		PlayerSum:    snap.PlayerSum,
		DealerSum:    snap.DealerSum,
		RunningCount: snap.RunningCount,
	}
	if err := t.ledger.RecordRound(context.Background(), rec); err != nil {
		log.Printf("[Table %s] Ledger write failed: round=%s err=%v", t.ID, rec.RoundID, err)
	}
}

func (t *Table) pushSnapshotLocked() {
	t.pushEnvelopeLocked(codec.SnapshotToWire(t.game.Snapshot()))
}

func (t *Table) pushEnvelopeLocked(payload any) {
	t.serverSeq++
	env := codec.WrapServerEnvelope(t.serverSeq, payload)
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[Table %s] Marshal envelope failed: %v", t.ID, err)
		return
	}
	t.broadcast(t.AccountID, data)
}

func (t *Table) stopLocked() {
	t.stopOnce.Do(func() {
		t.closed = true
		close(t.done)
		if t.onClose != nil {
			go t.onClose(t.ID, t.AccountID)
		}
	})
}

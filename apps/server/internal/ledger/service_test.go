package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func record(accountID uint64, outcome string, reward float64, playedAt time.Time) RoundRecord {
	return RoundRecord{
		RoundID:      uuid.NewString(),
		AccountID:    accountID,
		PlayedAt:     playedAt,
		Outcome:      outcome,
		Reward:       reward,
		PlayerCards:  []string{"Ts", "7h"},
		DealerCards:  []string{"9c", "8s"},
		PlayerSum:    17,
		DealerSum:    17,
		RunningCount: -1,
	}
}

func runServiceSuite(t *testing.T, svc Service) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []struct {
		outcome string
		reward  float64
	}{
		{"WIN", 1},
		{"LOSS", -1},
		{"BLACKJACK", 1.5},
		{"PUSH", 0},
		{"BUST", -1},
	}
	for i, f := range fixtures {
		if err := svc.RecordRound(ctx, record(42, f.outcome, f.reward, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("RecordRound %s: %v", f.outcome, err)
		}
	}
	// Another account's rounds must not bleed into account 42.
	if err := svc.RecordRound(ctx, record(99, "WIN", 1, base)); err != nil {
		t.Fatalf("RecordRound other account: %v", err)
	}

	stats, err := svc.AccountStats(ctx, 42)
	if err != nil {
		t.Fatalf("AccountStats: %v", err)
	}
	want := Stats{Rounds: 5, Wins: 2, Losses: 2, Pushes: 1, Blackjacks: 1, NetReward: 0.5}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	recent, err := svc.ListRecent(ctx, 42, 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("recent = %d rounds, want 3", len(recent))
	}
	// Newest first.
	if recent[0].Outcome != "BUST" || recent[2].Outcome != "BLACKJACK" {
		t.Fatalf("recent order wrong: %s .. %s", recent[0].Outcome, recent[2].Outcome)
	}
	if len(recent[0].PlayerCards) != 2 || recent[0].PlayerCards[0] != "Ts" {
		t.Fatalf("cards did not round-trip: %v", recent[0].PlayerCards)
	}

	empty, err := svc.AccountStats(ctx, 777)
	if err != nil {
		t.Fatalf("AccountStats empty: %v", err)
	}
	if empty.Rounds != 0 {
		t.Fatalf("unknown account has rounds: %+v", empty)
	}
}

func TestMemoryService(t *testing.T) {
	runServiceSuite(t, NewMemoryService())
}

func TestSQLiteService(t *testing.T) {
	svc, err := NewSQLiteService(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteService: %v", err)
	}
	defer svc.Close()
	runServiceSuite(t, svc)
}

func TestRecordRoundRejectsIncomplete(t *testing.T) {
	svc := NewMemoryService()
	if err := svc.RecordRound(context.Background(), RoundRecord{}); err == nil {
		t.Fatal("empty record accepted")
	}
}

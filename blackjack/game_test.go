package blackjack

import (
	"testing"

	"blackjack-lite/card"
)

// deckWithPrefix builds a full 52-card override whose first draws are the
// given prefix, padding with the rest of the deck in enum order.
func deckWithPrefix(prefix []card.Card) []card.Card {
	used := make(map[card.Card]bool, len(prefix))
	for _, c := range prefix {
		used[c] = true
	}
	deck := append([]card.Card{}, prefix...)
	for _, c := range card.FullDeck {
		if !used[c] {
			deck = append(deck, c)
		}
	}
	return deck
}

func newTestGame(t *testing.T, prefix []card.Card, natural bool) *Game {
	t.Helper()
	g, err := NewGame(Config{
		NumDecks:           1,
		ReshuffleThreshold: 4,
		NaturalBonus:       natural,
		Seed:               1,
		DeckOverride:       deckWithPrefix(prefix),
	})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	return g
}

func TestDeal_InitialObservation(t *testing.T) {
	// player Td 7s, dealer 9h 5c
	g := newTestGame(t, []card.Card{
		card.CardDiamondT, card.CardSpade7,
		card.CardHeart9, card.CardClub5,
	}, false)

	obs, err := g.Deal()
	if err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	if obs.PlayerSum != 17 {
		t.Errorf("PlayerSum = %d, want 17", obs.PlayerSum)
	}
	if obs.DealerUp != 9 {
		t.Errorf("DealerUp = %d, want 9", obs.DealerUp)
	}
	if obs.UsableAce {
		t.Error("UsableAce = true, want false")
	}
	// Hi-Lo: T(-1) + 7(0) + 9(0) + 5(+1) = 0
	if got := g.RunningCount(); got != 0 {
		t.Errorf("RunningCount = %d, want 0", got)
	}
	if obs.Count != CountNeutral {
		t.Errorf("Count = %s, want Neutral", obs.Count)
	}
}

func TestStep_HitUntilBust(t *testing.T) {
	// player Ts 6h, dealer 9d 5s, next draw Kc busts the player
	g := newTestGame(t, []card.Card{
		card.CardSpadeT, card.CardHeart6,
		card.CardDiamond9, card.CardSpade5,
		card.CardClubK,
	}, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionHit)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if !res.Done {
		t.Fatal("expected round to end on bust")
	}
	if res.Reward != -1 {
		t.Errorf("Reward = %v, want -1", res.Reward)
	}
	snap := g.Snapshot()
	if snap.Outcome != OutcomePlayerBust {
		t.Errorf("Outcome = %s, want BUST", snap.Outcome)
	}
}

func TestStep_HitKeepsRoundLive(t *testing.T) {
	// player 2s 3h, dealer 9d 5s, next draw 4c
	g := newTestGame(t, []card.Card{
		card.CardSpade2, card.CardHeart3,
		card.CardDiamond9, card.CardSpade5,
		card.CardClub4,
	}, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionHit)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if res.Done {
		t.Fatal("round should still be live after a safe hit")
	}
	if res.Reward != 0 {
		t.Errorf("Reward = %v, want 0", res.Reward)
	}
	if res.Obs.PlayerSum != 9 {
		t.Errorf("PlayerSum = %d, want 9", res.Obs.PlayerSum)
	}
}

func TestStep_StandDealerDrawsToSeventeen(t *testing.T) {
	// player Ts 9h (19), dealer 2d 4s (6): dealer must draw.
	// Draws: 5h (11), 6c (17) -> stands on 17, player wins.
	g := newTestGame(t, []card.Card{
		card.CardSpadeT, card.CardHeart9,
		card.CardDiamond2, card.CardSpade4,
		card.CardHeart5, card.CardClub6,
	}, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionStand)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if !res.Done {
		t.Fatal("expected round to end on stand")
	}
	if res.Reward != 1 {
		t.Errorf("Reward = %v, want 1", res.Reward)
	}
	snap := g.Snapshot()
	if snap.DealerSum != 17 {
		t.Errorf("DealerSum = %d, want 17", snap.DealerSum)
	}
	if snap.Outcome != OutcomeWin {
		t.Errorf("Outcome = %s, want WIN", snap.Outcome)
	}
}

func TestStep_DealerSoftSeventeenStands(t *testing.T) {
	// player Ts 9h (19), dealer Ad 6s = soft 17: fixed policy stands.
	g := newTestGame(t, []card.Card{
		card.CardSpadeT, card.CardHeart9,
		card.CardDiamondA, card.CardSpade6,
	}, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionStand)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if res.Reward != 1 {
		t.Errorf("Reward = %v, want 1 (19 beats soft 17)", res.Reward)
	}
	snap := g.Snapshot()
	if len(snap.DealerCards) != 2 {
		t.Errorf("dealer drew on soft 17: %v", snap.DealerCards)
	}
}

func TestNatural_ResolvesOnFirstStep(t *testing.T) {
	// player As Kh = natural, dealer 9d 5s
	g := newTestGame(t, []card.Card{
		card.CardSpadeA, card.CardHeartK,
		card.CardDiamond9, card.CardSpade5,
	}, true)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	// The requested action is irrelevant: the natural resolves the round.
	res, err := g.Step(ActionHit)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if !res.Done {
		t.Fatal("natural must resolve on first step")
	}
	if res.Reward != 1.5 {
		t.Errorf("Reward = %v, want 1.5 with NaturalBonus", res.Reward)
	}
	snap := g.Snapshot()
	if snap.Outcome != OutcomePlayerBlackjack {
		t.Errorf("Outcome = %s, want BLACKJACK", snap.Outcome)
	}
}

func TestNatural_FlatPayoutWithoutBonus(t *testing.T) {
	g := newTestGame(t, []card.Card{
		card.CardSpadeA, card.CardHeartK,
		card.CardDiamond9, card.CardSpade5,
	}, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionStand)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if res.Reward != 1 {
		t.Errorf("Reward = %v, want 1 without NaturalBonus", res.Reward)
	}
}

func TestNatural_BothPush(t *testing.T) {
	g := newTestGame(t, []card.Card{
		card.CardSpadeA, card.CardHeartK,
		card.CardDiamondA, card.CardSpadeT,
	}, true)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionStand)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if res.Reward != 0 {
		t.Errorf("Reward = %v, want 0 on double natural", res.Reward)
	}
	if snap := g.Snapshot(); snap.Outcome != OutcomePush {
		t.Errorf("Outcome = %s, want PUSH", snap.Outcome)
	}
}

func TestNatural_DealerOnlyLoses(t *testing.T) {
	// player Ts 9h, dealer Ad Kd = dealer natural
	g := newTestGame(t, []card.Card{
		card.CardSpadeT, card.CardHeart9,
		card.CardDiamondA, card.CardDiamondK,
	}, true)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	res, err := g.Step(ActionStand)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	if res.Reward != -1 {
		t.Errorf("Reward = %v, want -1 on dealer natural", res.Reward)
	}
	if snap := g.Snapshot(); snap.Outcome != OutcomeDealerBlackjack {
		t.Errorf("Outcome = %s, want DEALER_BLACKJACK", snap.Outcome)
	}
}

func TestStep_ErrorsOutsideRound(t *testing.T) {
	g := newTestGame(t, nil, false)

	if _, err := g.Step(ActionHit); err != ErrNoRound {
		t.Fatalf("Step before Deal: err = %v, want ErrNoRound", err)
	}

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	if _, err := g.Deal(); err != ErrRoundInProgress {
		t.Fatalf("Deal mid-round: err = %v, want ErrRoundInProgress", err)
	}
	if _, err := g.Step(Action(9)); err != ErrInvalidAction {
		t.Fatalf("bad action: err = %v, want ErrInvalidAction", err)
	}

	// Finish the round, then step again.
	for {
		res, err := g.Step(ActionStand)
		if err != nil {
			t.Fatalf("Step err: %v", err)
		}
		if res.Done {
			break
		}
	}
	if _, err := g.Step(ActionStand); err != ErrRoundOver {
		t.Fatalf("Step after round: err = %v, want ErrRoundOver", err)
	}

	// A fresh deal is allowed once the round is over.
	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal after round err: %v", err)
	}
}

func TestSnapshot_MasksDealerHoleCard(t *testing.T) {
	g := newTestGame(t, []card.Card{
		card.CardSpadeT, card.CardHeart9,
		card.CardDiamond9, card.CardSpade5,
	}, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}

	snap := g.Snapshot()
	if snap.Over {
		t.Fatal("round should be live")
	}
	if len(snap.DealerCards) != 2 {
		t.Fatalf("dealer cards = %d, want 2", len(snap.DealerCards))
	}
	if snap.DealerCards[0] != card.CardDiamond9 {
		t.Errorf("upcard = %s, want 9 of diamonds", snap.DealerCards[0])
	}
	if snap.DealerCards[1] != card.CardRear {
		t.Errorf("hole card = %s, want CardRear", snap.DealerCards[1])
	}
	if snap.DealerSum != 0 {
		t.Errorf("DealerSum = %d, want hidden (0)", snap.DealerSum)
	}

	if _, err := g.Step(ActionStand); err != nil {
		t.Fatalf("Step err: %v", err)
	}
	snap = g.Snapshot()
	if !snap.Over {
		t.Fatal("round should be over")
	}
	if snap.DealerCards[1] == card.CardRear {
		t.Error("hole card still masked after round end")
	}
	if snap.DealerSum == 0 {
		t.Error("dealer sum still hidden after round end")
	}
}

func TestShoePersistsAcrossRounds(t *testing.T) {
	g := newTestGame(t, nil, false)

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	dealtAfterFirst := g.ShoeInfo().CardsDealt
	if dealtAfterFirst != 4 {
		t.Fatalf("CardsDealt = %d, want 4 after opening deal", dealtAfterFirst)
	}

	for {
		res, err := g.Step(ActionStand)
		if err != nil {
			t.Fatalf("Step err: %v", err)
		}
		if res.Done {
			break
		}
	}

	if _, err := g.Deal(); err != nil {
		t.Fatalf("second Deal err: %v", err)
	}
	if got := g.ShoeInfo().CardsDealt; got <= dealtAfterFirst {
		t.Fatalf("CardsDealt = %d, want > %d (same shoe)", got, dealtAfterFirst)
	}
}

func TestStepReshufflesMidRound(t *testing.T) {
	// player 2s 3s (5), dealer 4s 5s: no natural, the hit must draw.
	g, err := NewGame(Config{
		NumDecks:           1,
		ReshuffleThreshold: 48,
		Seed:               11,
		DeckOverride: deckWithPrefix([]card.Card{
			card.CardSpade2, card.CardSpade3,
			card.CardSpade4, card.CardSpade5,
		}),
	})
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}

	if _, err := g.Deal(); err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	if got := g.ShoeInfo().Shuffles; got != 1 {
		t.Fatalf("Shuffles = %d after deal, want 1", got)
	}

	// The opening deal left exactly 48 cards, so this hit crosses the
	// threshold and draws from a fresh shoe mid-round.
	res, err := g.Step(ActionHit)
	if err != nil {
		t.Fatalf("Step err: %v", err)
	}
	info := g.ShoeInfo()
	if info.Shuffles != 2 {
		t.Fatalf("Shuffles = %d after mid-round draw, want 2", info.Shuffles)
	}
	if info.CardsDealt != 1 {
		t.Fatalf("CardsDealt = %d on fresh shoe, want 1", info.CardsDealt)
	}

	// The count restarted with the shoe: only the hit card is tallied.
	hitCard := g.Snapshot().PlayerCards[2]
	if got := g.RunningCount(); got != hitCard.HiLoDelta() {
		t.Fatalf("RunningCount = %d, want %d (fresh shoe)", got, hitCard.HiLoDelta())
	}

	// The round itself is unaffected and settles normally.
	for !res.Done {
		res, err = g.Step(ActionStand)
		if err != nil {
			t.Fatalf("Step err: %v", err)
		}
	}
	if !g.Over() {
		t.Fatal("round did not settle after mid-round reshuffle")
	}
	if g.Snapshot().Outcome == OutcomeNone {
		t.Fatal("settled round has no outcome")
	}
}

package blackjack

import "blackjack-lite/card"

// Snapshot is a render-ready view of the round. While the round is live the
// dealer hole card is masked as CardRear and the dealer sum is hidden.
type Snapshot struct {
	Round uint32
	Over  bool

	PlayerCards     []card.Card
	PlayerSum       int
	PlayerUsableAce bool
	PlayerNatural   bool

	DealerCards   []card.Card
	DealerUp      card.Card
	DealerSum     int // 0 while the round is live
	DealerNatural bool

	Outcome Outcome
	Reward  float64

	Shoe         ShoeInfo
	RunningCount int
	TrueCount    float64
	Count        CountBin
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Round:           g.round,
		Over:            g.over,
		PlayerCards:     g.player.Cards(),
		PlayerSum:       g.player.Sum(),
		PlayerUsableAce: g.player.UsableAce(),
		Shoe:            g.shoe.Info(),
		RunningCount:    g.shoe.RunningCount(),
		TrueCount:       g.shoe.TrueCount(),
		Count:           BinForCount(g.shoe.RunningCount()),
	}

	if len(g.dealer) > 0 {
		s.DealerUp = g.dealer[0]
	}

	if g.over {
		s.DealerCards = g.dealer.Cards()
		s.DealerSum = g.dealer.Sum()
		s.PlayerNatural = g.playerNatural
		s.DealerNatural = g.dealerNatural
		s.Outcome = g.outcome
		s.Reward = g.lastReward
	} else {
		// Mask the hole card and any undealt information.
		for i, c := range g.dealer {
			if i == 0 {
				s.DealerCards = append(s.DealerCards, c)
			} else {
				s.DealerCards = append(s.DealerCards, card.CardRear)
			}
		}
	}

	return s
}

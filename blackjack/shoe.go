package blackjack

import (
	"math/rand"

	"blackjack-lite/card"
)

// Shoe is the multi-deck stock. It tracks every dealt card for the Hi-Lo
// running count and reshuffles itself when the remaining stock drops to the
// configured threshold.
type Shoe struct {
	numDecks  int
	threshold int
	rng       *rand.Rand

	stock        card.CardList
	dealt        int
	runningCount int
	shuffles     int

	override []card.Card
}

func newShoe(cfg Config, rng *rand.Rand) *Shoe {
	s := &Shoe{
		numDecks:  cfg.NumDecks,
		threshold: cfg.ReshuffleThreshold,
		rng:       rng,
		override:  cfg.DeckOverride,
	}
	s.refill()
	return s
}

// refill rebuilds and shuffles the stock. The running count restarts with
// the fresh shoe.
func (s *Shoe) refill() {
	if s.shuffles == 0 && len(s.override) > 0 {
		s.stock.Init(s.override)
	} else {
		cards := make([]card.Card, 0, 52*s.numDecks)
		for i := 0; i < s.numDecks; i++ {
			cards = append(cards, card.FullDeck...)
		}
		s.stock.Init(cards)
		s.stock.Shuffle(s.rng)
	}
	s.dealt = 0
	s.runningCount = 0
	s.shuffles++
}

// Draw pops the next card, reshuffling first when the stock has reached the
// threshold. It returns the card and whether a reshuffle happened.
func (s *Shoe) Draw() (card.Card, bool, error) {
	reshuffled := false
	if s.stock.Count() <= s.threshold {
		s.refill()
		reshuffled = true
	}
	cards, ok := s.stock.PopCards(1)
	if !ok {
		// threshold >= minReshuffleThreshold keeps a refilled stock above
		// empty, so this only fires on a corrupted shoe.
		return card.CardInvalid, reshuffled, ErrInvalidState("shoe underflow")
	}
	c := cards[0]
	s.dealt++
	s.runningCount += c.HiLoDelta()
	return c, reshuffled, nil
}

func (s *Shoe) Remaining() int {
	return s.stock.Count()
}

func (s *Shoe) Dealt() int {
	return s.dealt
}

// RunningCount is the Hi-Lo tally over all cards dealt since the last
// shuffle.
func (s *Shoe) RunningCount() int {
	return s.runningCount
}

// TrueCount normalizes the running count by the number of decks remaining.
func (s *Shoe) TrueCount() float64 {
	decks := float64(s.Remaining()) / 52.0
	if decks <= 0 {
		return 0
	}
	return float64(s.runningCount) / decks
}

// ShoeInfo is a read-only summary for rendering and diagnostics.
type ShoeInfo struct {
	CardsRemaining     int
	CardsDealt         int
	TotalCards         int
	NumDecks           int
	ReshuffleThreshold int
	Shuffles           int
}

func (s *Shoe) Info() ShoeInfo {
	return ShoeInfo{
		CardsRemaining:     s.Remaining(),
		CardsDealt:         s.dealt,
		TotalCards:         s.Remaining() + s.dealt,
		NumDecks:           s.numDecks,
		ReshuffleThreshold: s.threshold,
		Shuffles:           s.shuffles,
	}
}

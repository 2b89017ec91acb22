package blackjack

import "blackjack-lite/card"

// Hand is an ordered set of cards held by the player or the dealer.
type Hand []card.Card

func (h *Hand) Add(cards ...card.Card) {
	*h = append(*h, cards...)
}

// rawSum counts every ace as 1.
func (h Hand) rawSum() int {
	sum := 0
	for _, c := range h {
		sum += c.BlackjackValue()
	}
	return sum
}

// UsableAce reports whether the hand holds an ace that can count as 11
// without busting.
func (h Hand) UsableAce() bool {
	hasAce := false
	for _, c := range h {
		if c.IsAce() {
			hasAce = true
			break
		}
	}
	return hasAce && h.rawSum()+10 <= blackjackSum
}

// Sum returns the best total: one ace counts as 11 when that keeps the
// hand at or below 21.
func (h Hand) Sum() int {
	sum := h.rawSum()
	if h.UsableAce() {
		return sum + 10
	}
	return sum
}

func (h Hand) IsBust() bool {
	return h.Sum() > blackjackSum
}

// IsNatural reports a two-card 21.
func (h Hand) IsNatural() bool {
	return len(h) == 2 && h.Sum() == blackjackSum
}

// Score is the comparison total: 0 when bust, best sum otherwise.
func (h Hand) Score() int {
	if h.IsBust() {
		return 0
	}
	return h.Sum()
}

func (h Hand) Cards() []card.Card {
	return append([]card.Card{}, h...)
}

package blackjack

import (
	"fmt"

	"blackjack-lite/card"
)

type Config struct {
	// Shoe. Zero values default to one deck and a quarter-shoe threshold.
	NumDecks           int
	ReshuffleThreshold int

	// NaturalBonus pays 3:2 (+1.5) for a player natural instead of +1.
	NaturalBonus bool

	// RNG seed (0 => time-based)
	Seed int64

	// DeckOverride replaces the first shoe fill verbatim (tests only).
	// Cards are drawn from the front of the slice.
	DeckOverride []card.Card
}

// withDefaults fills the zero shoe fields so Config{} is playable.
func (c Config) withDefaults() Config {
	if c.NumDecks == 0 {
		c.NumDecks = 1
	}
	if c.ReshuffleThreshold == 0 {
		c.ReshuffleThreshold = 13 * c.NumDecks
	}
	return c
}

func (c Config) validate() error {
	if c.NumDecks < 1 || c.NumDecks > 8 {
		return fmt.Errorf("NumDecks must be in 1..8, got %d", c.NumDecks)
	}
	if c.ReshuffleThreshold < minReshuffleThreshold {
		return fmt.Errorf("ReshuffleThreshold must be >= %d, got %d", minReshuffleThreshold, c.ReshuffleThreshold)
	}
	if c.ReshuffleThreshold >= 52*c.NumDecks {
		return fmt.Errorf("ReshuffleThreshold %d leaves no playable shoe (%d cards)", c.ReshuffleThreshold, 52*c.NumDecks)
	}
	return nil
}

// minReshuffleThreshold guarantees an opening deal never empties the shoe.
const minReshuffleThreshold = 4

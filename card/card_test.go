package card

import "testing"

func TestBlackjackValue(t *testing.T) {
	tests := []struct {
		card Card
		want int
	}{
		{CardSpadeA, 1},
		{CardHeart2, 2},
		{CardClub9, 9},
		{CardDiamondT, 10},
		{CardSpadeJ, 10},
		{CardHeartQ, 10},
		{CardClubK, 10},
		{CardInvalid, 0},
		{CardRear, 0},
	}
	for _, tt := range tests {
		if got := tt.card.BlackjackValue(); got != tt.want {
			t.Errorf("BlackjackValue(%s) = %d, want %d", tt.card, got, tt.want)
		}
	}
}

func TestHiLoDelta(t *testing.T) {
	tests := []struct {
		card Card
		want int
	}{
		{CardSpade2, +1},
		{CardHeart6, +1},
		{CardClub7, 0},
		{CardDiamond9, 0},
		{CardSpadeT, -1},
		{CardHeartK, -1},
		{CardClubA, -1},
		{CardInvalid, 0},
	}
	for _, tt := range tests {
		if got := tt.card.HiLoDelta(); got != tt.want {
			t.Errorf("HiLoDelta(%s) = %d, want %d", tt.card, got, tt.want)
		}
	}
}

func TestHiLoDeltaBalancedOverFullDeck(t *testing.T) {
	sum := 0
	for _, c := range FullDeck {
		sum += c.HiLoDelta()
	}
	if sum != 0 {
		t.Fatalf("Hi-Lo deltas over a full deck must sum to 0, got %d", sum)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Card
	}{
		{"As", CardSpadeA},
		{"Td", CardDiamondT},
		{"10h", CardHeartT},
		{"Kc", CardClubK},
		{"2s", CardSpade2},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q) err: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "A", "Ax", "1s", "11d"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestFullDeckHas52UniqueCards(t *testing.T) {
	if len(FullDeck) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(FullDeck))
	}
	seen := make(map[Card]bool, 52)
	for _, c := range FullDeck {
		if seen[c] {
			t.Fatalf("duplicate card %s in FullDeck", c)
		}
		seen[c] = true
		if c.Rank() < 1 || c.Rank() > 13 {
			t.Fatalf("card %s has rank %d out of range", c, c.Rank())
		}
	}
}

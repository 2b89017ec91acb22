package blackjack

import "testing"

func TestBinForCount(t *testing.T) {
	tests := []struct {
		count int
		want  CountBin
	}{
		{-20, CountLow},
		{-5, CountLow},
		{-4, CountNeutral},
		{0, CountNeutral},
		{4, CountNeutral},
		{5, CountHigh},
		{17, CountHigh},
	}
	for _, tt := range tests {
		if got := BinForCount(tt.count); got != tt.want {
			t.Errorf("BinForCount(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}
}

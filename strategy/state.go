// Package strategy solves the infinite-deck blackjack MDP exactly and
// exports the resulting basic-strategy table. Under the infinite-deck
// assumption the running count carries no information, so states are the
// count-free 3-tuple.
package strategy

import "fmt"

// State is an MDP state where the player has a real decision: totals below
// 12 cannot bust and are always hit before the state space is entered.
type State struct {
	PlayerSum int
	DealerUp  int // 1 = ace, 2..9 face, 10 = ten-value
	UsableAce bool
}

func (s State) String() string {
	ace := ""
	if s.UsableAce {
		ace = " soft"
	}
	return fmt.Sprintf("(%d%s vs %d)", s.PlayerSum, ace, s.DealerUp)
}

const (
	minPlayerSum = 12
	maxPlayerSum = 21
	minDealerUp  = 1
	maxDealerUp  = 10
)

// States enumerates the full decision state space.
func States() []State {
	out := make([]State, 0, (maxPlayerSum-minPlayerSum+1)*maxDealerUp*2)
	for ps := minPlayerSum; ps <= maxPlayerSum; ps++ {
		for du := minDealerUp; du <= maxDealerUp; du++ {
			for _, ua := range []bool{false, true} {
				out = append(out, State{PlayerSum: ps, DealerUp: du, UsableAce: ua})
			}
		}
	}
	return out
}

package strategy

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cardProb returns the infinite-deck draw probability of a card value:
// 1/13 for 1..9, 4/13 for the ten-value bucket (T/J/Q/K).
func cardProb(value int) float64 {
	if value == 10 {
		return 4.0 / 13.0
	}
	return 1.0 / 13.0
}

// updateSum applies a drawn card to a running total, promoting an ace to 11
// when it fits and demoting a usable ace when the total busts.
func updateSum(total int, usable bool, card int) (int, bool) {
	if card == 1 {
		if total+11 <= 21 {
			total += 11
			usable = true
		} else {
			total++
		}
	} else {
		total += card
	}
	if total > 21 && usable {
		total -= 10
		usable = false
	}
	return total, usable
}

type dealerKey struct {
	total  int
	usable bool
}

// Model holds the memoized pieces of the infinite-deck MDP: the dealer's
// final-sum distributions and per-state hit transitions. Both recursions
// revisit the same sub-hands constantly, so the memos carry nearly all of
// the solver's work.
type Model struct {
	dealerMemo *lru.Cache[dealerKey, map[int]float64]
	hitMemo    *lru.Cache[State, Transitions]
}

const (
	dealerMemoSize = 512
	hitMemoSize    = 512
)

func NewModel() *Model {
	dealerMemo, err := lru.New[dealerKey, map[int]float64](dealerMemoSize)
	if err != nil {
		panic(err)
	}
	hitMemo, err := lru.New[State, Transitions](hitMemoSize)
	if err != nil {
		panic(err)
	}
	return &Model{dealerMemo: dealerMemo, hitMemo: hitMemo}
}

// DealerDistribution returns the distribution over the dealer's final sum
// (>21 entries are bust totals) given the dealer's current running total.
// The dealer draws below 17 and stands on 17+, soft 17 included.
func (m *Model) DealerDistribution(total int, usable bool) map[int]float64 {
	if total >= 17 {
		return map[int]float64{total: 1.0}
	}
	key := dealerKey{total: total, usable: usable}
	if dist, ok := m.dealerMemo.Get(key); ok {
		return dist
	}

	dist := make(map[int]float64)
	for card := 1; card <= 10; card++ {
		p := cardProb(card)
		newTotal, newUsable := updateSum(total, usable, card)
		for finalSum, pSub := range m.DealerDistribution(newTotal, newUsable) {
			dist[finalSum] += p * pSub
		}
	}
	m.dealerMemo.Add(key, dist)
	return dist
}

// StandValue is the expected reward of standing: the dealer reveals a hole
// card, plays out the fixed policy, and the final sums are compared.
func (m *Model) StandValue(playerSum, dealerUp int) float64 {
	total := 0.0
	dealerStart, dealerUsable := updateSum(0, false, dealerUp)
	for hidden := 1; hidden <= 10; hidden++ {
		pHidden := cardProb(hidden)
		dealerSum, usable := updateSum(dealerStart, dealerUsable, hidden)
		for finalSum, pFinal := range m.DealerDistribution(dealerSum, usable) {
			p := pHidden * pFinal
			switch {
			case finalSum > 21 || finalSum < playerSum:
				total += p
			case finalSum == playerSum:
				// push contributes 0
			default:
				total -= p
			}
		}
	}
	return total
}

// Transitions is the outcome distribution of hitting in a state: successor
// decision states plus the absorbed bust probability.
type Transitions struct {
	Next map[State]float64
	Bust float64
}

// HitTransitions returns where a hit from the state can land.
func (m *Model) HitTransitions(s State) Transitions {
	if tr, ok := m.hitMemo.Get(s); ok {
		return tr
	}

	tr := Transitions{Next: make(map[State]float64)}
	for card := 1; card <= 10; card++ {
		p := cardProb(card)
		newSum, newUsable := updateSum(s.PlayerSum, s.UsableAce, card)
		if newSum > 21 {
			tr.Bust += p
			continue
		}
		tr.Next[State{PlayerSum: newSum, DealerUp: s.DealerUp, UsableAce: newUsable}] += p
	}
	m.hitMemo.Add(s, tr)
	return tr
}

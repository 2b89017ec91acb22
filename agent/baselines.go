package agent

import (
	"math/rand"
	"time"

	"blackjack-lite/blackjack"
)

// RandomPolicy picks uniformly over the action space. It is the evaluation
// floor every learned policy must clear.
type RandomPolicy struct {
	rng *rand.Rand
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomPolicy{rng: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) SelectAction(blackjack.Observation) blackjack.Action {
	return blackjack.Actions[p.rng.Intn(len(blackjack.Actions))]
}

func (p *RandomPolicy) Name() string { return "random" }

// DealerMimicPolicy plays the dealer's fixed rule from the player seat:
// hit below 17, stand otherwise.
type DealerMimicPolicy struct{}

func (DealerMimicPolicy) SelectAction(obs blackjack.Observation) blackjack.Action {
	if obs.PlayerSum < 17 {
		return blackjack.ActionHit
	}
	return blackjack.ActionStand
}

func (DealerMimicPolicy) Name() string { return "dealer-mimic" }

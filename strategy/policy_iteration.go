package strategy

import (
	"math"

	"blackjack-lite/blackjack"
)

// PolicyIteration solves the MDP by alternating policy evaluation and greedy
// improvement until the policy is stable. Stats.Sweeps counts improvement
// sweeps.
func PolicyIteration(m *Model, gamma, theta float64) (Solution, error) {
	if err := validateSolverArgs(gamma, theta); err != nil {
		return Solution{}, err
	}
	if m == nil {
		m = NewModel()
	}

	states := States()
	V := make(map[State]float64, len(states))
	policy := make(map[State]blackjack.Action, len(states))
	for _, s := range states {
		V[s] = 0
		policy[s] = blackjack.ActionStand
	}

	var stats Stats
	for {
		// Policy evaluation: iterate V under the fixed policy.
		for {
			delta := 0.0
			for _, s := range states {
				var vNew float64
				if policy[s] == blackjack.ActionStand {
					vNew = m.StandValue(s.PlayerSum, s.DealerUp)
				} else {
					tr := m.HitTransitions(s)
					vNew = tr.Bust * -1.0
					for next, p := range tr.Next {
						vNew += p * gamma * V[next]
					}
				}
				if d := math.Abs(vNew - V[s]); d > delta {
					delta = d
				}
				V[s] = vNew
			}
			stats.Deltas = append(stats.Deltas, delta)
			if delta < theta {
				break
			}
		}

		// Policy improvement.
		stats.Sweeps++
		stats.MeanValues = append(stats.MeanValues, meanValue(V))
		stable := true
		for _, s := range states {
			qStand, qHit := qValuesFor(m, s, V, gamma)
			best := blackjack.ActionStand
			if qHit > qStand {
				best = blackjack.ActionHit
			}
			if best != policy[s] {
				policy[s] = best
				stable = false
			}
		}
		if stable {
			break
		}
	}

	return Solution{V: V, Policy: policy, Stats: stats}, nil
}

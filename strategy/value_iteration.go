package strategy

import (
	"fmt"
	"math"

	"blackjack-lite/blackjack"
)

const (
	DefaultGamma = 1.0
	DefaultTheta = 1e-6
)

// Stats tracks solver convergence per sweep.
type Stats struct {
	Deltas     []float64
	MeanValues []float64
	Sweeps     int
}

// Solution is a solved MDP: optimal state values and the greedy policy.
type Solution struct {
	V      map[State]float64
	Policy map[State]blackjack.Action
	Stats  Stats
}

func validateSolverArgs(gamma, theta float64) error {
	if gamma < 0 || gamma > 1 {
		return fmt.Errorf("gamma %v out of [0,1]", gamma)
	}
	if theta <= 0 {
		return fmt.Errorf("theta %v must be > 0", theta)
	}
	return nil
}

// qValuesFor computes the stand and hit action values of a state under the
// current value estimates.
func qValuesFor(m *Model, s State, V map[State]float64, gamma float64) (qStand, qHit float64) {
	qStand = m.StandValue(s.PlayerSum, s.DealerUp)
	tr := m.HitTransitions(s)
	qHit = tr.Bust * -1.0
	for next, p := range tr.Next {
		qHit += p * gamma * V[next]
	}
	return qStand, qHit
}

// ValueIteration solves the infinite-deck blackjack MDP by repeated Bellman
// optimality sweeps until the largest value change drops below theta.
func ValueIteration(m *Model, gamma, theta float64) (Solution, error) {
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
		delta := 0.0
		for _, s := range states {
			qStand, qHit := qValuesFor(m, s, V, gamma)
			best := math.Max(qStand, qHit)
			if d := math.Abs(best - V[s]); d > delta {
				delta = d
			}
			V[s] = best
			if qStand >= qHit {
				policy[s] = blackjack.ActionStand
			} else {
				policy[s] = blackjack.ActionHit
			}
		}
		stats.Sweeps++
		stats.Deltas = append(stats.Deltas, delta)
		stats.MeanValues = append(stats.MeanValues, meanValue(V))
		if delta < theta {
			break
		}
	}

	return Solution{V: V, Policy: policy, Stats: stats}, nil
}

func meanValue(V map[State]float64) float64 {
	if len(V) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range V {
		sum += v
	}
	return sum / float64(len(V))
}

package agent

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"blackjack-lite/blackjack"
)

// qValues holds the two action values for one observation,
// indexed by blackjack.Action (0 stand, 1 hit).
type qValues [2]float64

// QConfig tunes the tabular Q-Learning agent. The defaults follow the usual
// textbook setup: gamma 1 for the undiscounted episodic task, epsilon
// annealed from full exploration.
type QConfig struct {
	Alpha   Schedule
	Epsilon Schedule
	Gamma   float64

	// RNG seed (0 => time-based)
	Seed int64
}

// DefaultQConfig is a workable starting point for a few hundred thousand
// episodes.
func DefaultQConfig() QConfig {
	return QConfig{
		Alpha:   Schedule{Initial: 0.1, Final: 1e-3, Decay: 1e-5, Kind: ScheduleLinear},
		Epsilon: Schedule{Initial: 1.0, Final: 0.01, Decay: 1e-5, Kind: ScheduleLinear},
		Gamma:   1.0,
	}
}

func (c QConfig) validate() error {
	if err := c.Alpha.validate("alpha"); err != nil {
		return err
	}
	if err := c.Epsilon.validate("epsilon"); err != nil {
		return err
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma %v out of [0,1]", c.Gamma)
	}
	return nil
}

// QLearning is a tabular Q-Learning agent keyed on the environment's
// 4-tuple observation (player sum, dealer upcard, usable ace, count bin).
type QLearning struct {
	cfg QConfig
	rng *rand.Rand

	table map[blackjack.Observation]qValues
}

func NewQLearning(cfg QConfig) (*QLearning, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &QLearning{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(seed)),
		table: make(map[blackjack.Observation]qValues),
	}, nil
}

// Alpha returns the current learning rate.
func (q *QLearning) Alpha() float64 { return q.cfg.Alpha.Value() }

// Epsilon returns the current exploration rate.
func (q *QLearning) Epsilon() float64 { return q.cfg.Epsilon.Value() }

// SelectAction picks epsilon-greedily over the table.
func (q *QLearning) SelectAction(obs blackjack.Observation) blackjack.Action {
	if q.rng.Float64() < q.cfg.Epsilon.Value() {
		return blackjack.Actions[q.rng.Intn(len(blackjack.Actions))]
	}
	return q.greedyAction(obs)
}

// GreedyAction picks the best known action, breaking exact ties randomly.
func (q *QLearning) GreedyAction(obs blackjack.Observation) blackjack.Action {
	return q.greedyAction(obs)
}

func (q *QLearning) greedyAction(obs blackjack.Observation) blackjack.Action {
	vals := q.table[obs]
	if vals[blackjack.ActionStand] == vals[blackjack.ActionHit] {
		return blackjack.Actions[q.rng.Intn(len(blackjack.Actions))]
	}
	if vals[blackjack.ActionHit] > vals[blackjack.ActionStand] {
		return blackjack.ActionHit
	}
	return blackjack.ActionStand
}

// Update applies the standard Q-learning rule:
// Q(s,a) += alpha * (target - Q(s,a)), where target bootstraps on
// max_a' Q(s',a') unless the transition is terminal.
func (q *QLearning) Update(
	obs blackjack.Observation,
	action blackjack.Action,
	reward float64,
	next blackjack.Observation,
	done bool,
) {
	target := reward
	if !done {
		nextVals := q.table[next]
		best := nextVals[blackjack.ActionStand]
		if nextVals[blackjack.ActionHit] > best {
			best = nextVals[blackjack.ActionHit]
		}
		target += q.cfg.Gamma * best
	}
	vals := q.table[obs]
	vals[action] += q.cfg.Alpha.Value() * (target - vals[action])
	q.table[obs] = vals
}

// DecaySchedules advances both schedules one step (call once per episode).
func (q *QLearning) DecaySchedules() {
	q.cfg.Alpha.Step()
	q.cfg.Epsilon.Step()
}

// ResetSchedules rewinds alpha and epsilon for a fresh run, keeping the
// learned table.
func (q *QLearning) ResetSchedules() {
	q.cfg.Alpha.Reset()
	q.cfg.Epsilon.Reset()
}

// Q returns the action values recorded for an observation.
func (q *QLearning) Q(obs blackjack.Observation) (stand, hit float64) {
	vals := q.table[obs]
	return vals[blackjack.ActionStand], vals[blackjack.ActionHit]
}

// States returns every observation the agent has values for.
func (q *QLearning) States() []blackjack.Observation {
	out := make([]blackjack.Observation, 0, len(q.table))
	for obs := range q.table {
		out = append(out, obs)
	}
	return out
}

// wireQEntry is the JSON form of one table row, both action values included
// so a run can be saved and resumed.
type wireQEntry struct {
	PlayerSum int     `json:"playerSum"`
	DealerUp  int     `json:"dealerUp"`
	UsableAce bool    `json:"usableAce"`
	Count     string  `json:"count"`
	Stand     float64 `json:"stand"`
	Hit       float64 `json:"hit"`
}

type wireQTable struct {
	Agent   string       `json:"agent"`
	Gamma   float64      `json:"gamma"`
	Entries []wireQEntry `json:"entries"`
}

func (q *QLearning) MarshalJSON() ([]byte, error) {
	w := wireQTable{Agent: q.Name(), Gamma: q.cfg.Gamma}
	for obs, vals := range q.table {
		w.Entries = append(w.Entries, wireQEntry{
			PlayerSum: obs.PlayerSum,
			DealerUp:  obs.DealerUp,
			UsableAce: obs.UsableAce,
			Count:     obs.Count.String(),
			Stand:     vals[blackjack.ActionStand],
			Hit:       vals[blackjack.ActionHit],
		})
	}
	return json.Marshal(w)
}

// UnmarshalJSON replaces the learned table with the stored one. Config and
// schedules are left as constructed, so load into an agent built with
// NewQLearning.
func (q *QLearning) UnmarshalJSON(data []byte) error {
	var w wireQTable
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Agent != "" && w.Agent != q.Name() {
		return fmt.Errorf("table belongs to agent %q", w.Agent)
	}
	table := make(map[blackjack.Observation]qValues, len(w.Entries))
	for _, e := range w.Entries {
		bin, err := parseCountBin(e.Count)
		if err != nil {
			return err
		}
		obs := blackjack.Observation{
			PlayerSum: e.PlayerSum,
			DealerUp:  e.DealerUp,
			UsableAce: e.UsableAce,
			Count:     bin,
		}
		var vals qValues
		vals[blackjack.ActionStand] = e.Stand
		vals[blackjack.ActionHit] = e.Hit
		table[obs] = vals
	}
	q.table = table
	return nil
}

// Name implements Policy; as a fixed policy the agent acts greedily only
// when wrapped via Greedy().
func (q *QLearning) Name() string { return "q-learning" }

// Greedy returns the agent frozen as a deterministic greedy policy.
func (q *QLearning) Greedy() Policy {
	return greedyPolicy{q: q}
}

type greedyPolicy struct {
	q *QLearning
}

func (g greedyPolicy) SelectAction(obs blackjack.Observation) blackjack.Action {
	return g.q.greedyAction(obs)
}

func (g greedyPolicy) Name() string { return "q-learning-greedy" }

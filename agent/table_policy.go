package agent

import (
	"encoding/json"
	"fmt"

	"blackjack-lite/blackjack"
)

// TablePolicy is a frozen decision table: observation -> action. Both the
// trained Q-learning agent and the MDP solver export into this form, and it
// is the shape the play server stores and serves hints from.
type TablePolicy struct {
	name      string
	decisions map[blackjack.Observation]blackjack.Action
}

func NewTablePolicy(name string, decisions map[blackjack.Observation]blackjack.Action) *TablePolicy {
	d := make(map[blackjack.Observation]blackjack.Action, len(decisions))
	for obs, a := range decisions {
		d[obs] = a
	}
	return &TablePolicy{name: name, decisions: d}
}

// FromQLearning freezes the agent's current greedy choices into a table.
// Only observations the agent has visited are recorded.
func FromQLearning(name string, q *QLearning) *TablePolicy {
	decisions := make(map[blackjack.Observation]blackjack.Action)
	for _, obs := range q.States() {
		stand, hit := q.Q(obs)
		if hit > stand {
			decisions[obs] = blackjack.ActionHit
		} else {
			decisions[obs] = blackjack.ActionStand
		}
	}
	return &TablePolicy{name: name, decisions: decisions}
}

func (t *TablePolicy) Name() string { return t.name }

func (t *TablePolicy) Len() int { return len(t.decisions) }

// SelectAction looks the observation up, falling back in order to the
// count-free entry (for tables solved without the count dimension) and then
// to the house rule: hit any total below 12, stand otherwise.
func (t *TablePolicy) SelectAction(obs blackjack.Observation) blackjack.Action {
	if a, ok := t.decisions[obs]; ok {
		return a
	}
	neutral := obs
	neutral.Count = blackjack.CountNeutral
	if a, ok := t.decisions[neutral]; ok {
		return a
	}
	if obs.PlayerSum < 12 {
		return blackjack.ActionHit
	}
	return blackjack.ActionStand
}

// wireDecision is the JSON form of one table row.
type wireDecision struct {
	PlayerSum int    `json:"playerSum"`
	DealerUp  int    `json:"dealerUp"`
	UsableAce bool   `json:"usableAce"`
	Count     string `json:"count"`
	Action    string `json:"action"`
}

type wireTablePolicy struct {
	Name      string         `json:"name"`
	Decisions []wireDecision `json:"decisions"`
}

func (t *TablePolicy) MarshalJSON() ([]byte, error) {
	w := wireTablePolicy{Name: t.name}
	for obs, a := range t.decisions {
		w.Decisions = append(w.Decisions, wireDecision{
			PlayerSum: obs.PlayerSum,
			DealerUp:  obs.DealerUp,
			UsableAce: obs.UsableAce,
			Count:     obs.Count.String(),
			Action:    a.String(),
		})
	}
	return json.Marshal(w)
}

func (t *TablePolicy) UnmarshalJSON(data []byte) error {
	var w wireTablePolicy
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	decisions := make(map[blackjack.Observation]blackjack.Action, len(w.Decisions))
	for _, d := range w.Decisions {
		bin, err := parseCountBin(d.Count)
		if err != nil {
			return err
		}
		action, err := parseAction(d.Action)
		if err != nil {
			return err
		}
		decisions[blackjack.Observation{
			PlayerSum: d.PlayerSum,
			DealerUp:  d.DealerUp,
			UsableAce: d.UsableAce,
			Count:     bin,
		}] = action
	}
	t.name = w.Name
	t.decisions = decisions
	return nil
}

func parseCountBin(s string) (blackjack.CountBin, error) {
	for bin, name := range blackjack.CountBinDictionary {
		if name == s {
			return bin, nil
		}
	}
	return 0, fmt.Errorf("unknown count bin %q", s)
}

func parseAction(s string) (blackjack.Action, error) {
	for a, name := range blackjack.ActionDictionary {
		if name == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

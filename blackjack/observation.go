package blackjack

import "fmt"

// Observation is the agent-visible state: player total, dealer upcard value,
// usable-ace flag and the discretized Hi-Lo count. It is comparable and used
// directly as a table key by the tabular agents.
type Observation struct {
	PlayerSum int
	DealerUp  int
	UsableAce bool
	Count     CountBin
}

func (o Observation) String() string {
	ace := ""
	if o.UsableAce {
		ace = " usable-ace"
	}
	return fmt.Sprintf("(player=%d dealer=%d%s count=%s)", o.PlayerSum, o.DealerUp, ace, o.Count)
}

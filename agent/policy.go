package agent

import "blackjack-lite/blackjack"

// Policy is the decision contract all agents implement.
type Policy interface {
	// SelectAction is called when the environment expects a move.
	SelectAction(obs blackjack.Observation) blackjack.Action
	// Name returns a human-readable identifier for logs and stores.
	Name() string
}

package blackjack

// Action is the player's move: 0-STAND 1-HIT
type Action byte

const (
	ActionStand Action = 0
	ActionHit   Action = 1
)

var ActionDictionary = map[Action]string{
	ActionStand: "STAND",
	ActionHit:   "HIT",
}

func (a Action) String() string {
	if s, ok := ActionDictionary[a]; ok {
		return s
	}
	return "UNKNOWN"
}

// Actions lists the environment's action space.
var Actions = []Action{ActionStand, ActionHit}

// Outcome is the settled result of a round, from the player's side.
type Outcome byte

const (
	OutcomeNone            Outcome = 0
	OutcomeWin             Outcome = 1
	OutcomeLoss            Outcome = 2
	OutcomePush            Outcome = 3
	OutcomePlayerBlackjack Outcome = 4
	OutcomeDealerBlackjack Outcome = 5
	OutcomePlayerBust      Outcome = 6
)

var OutcomeDictionary = map[Outcome]string{
	OutcomeNone:            "NONE",
	OutcomeWin:             "WIN",
	OutcomeLoss:            "LOSS",
	OutcomePush:            "PUSH",
	OutcomePlayerBlackjack: "BLACKJACK",
	OutcomeDealerBlackjack: "DEALER_BLACKJACK",
	OutcomePlayerBust:      "BUST",
}

func (o Outcome) String() string {
	if s, ok := OutcomeDictionary[o]; ok {
		return s
	}
	return "UNKNOWN"
}

// dealerStandSum is the fixed dealer policy: draw below 17, stand on 17+
// (soft 17 stands).
const dealerStandSum = 17

// blackjackSum is the best possible hand total.
const blackjackSum = 21

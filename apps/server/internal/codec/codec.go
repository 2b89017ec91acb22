// Package codec defines the JSON wire envelopes exchanged over the
// WebSocket gateway and the conversions from engine state to wire state.
package codec

import (
	"time"

	"blackjack-lite/blackjack"
	"blackjack-lite/card"
)

// Client message types.
const (
	ClientJoin   = "join"
	ClientDeal   = "deal"
	ClientAction = "action"
	ClientHint   = "hint"
	ClientStats  = "stats"
)

// Server message types.
const (
	ServerWelcome  = "welcome"
	ServerSnapshot = "snapshot"
	ServerRoundEnd = "round_end"
	ServerHint     = "hint"
	ServerStats    = "stats"
	ServerError    = "error"
)

// ClientEnvelope is the single inbound message shape; Type selects which
// optional field is meaningful.
type ClientEnvelope struct {
	Type string `json:"type"`

	// Join carries the session token issued by the auth endpoints.
	Token string `json:"token,omitempty"`

	// Action is "HIT" or "STAND".
	Action string `json:"action,omitempty"`
}

// ServerEnvelope is the single outbound message shape.
type ServerEnvelope struct {
	Type       string `json:"type"`
	ServerSeq  uint64 `json:"server_seq"`
	ServerTsMs int64  `json:"server_ts_ms"`

	Welcome  *Welcome       `json:"welcome,omitempty"`
	Snapshot *RoundSnapshot `json:"snapshot,omitempty"`
	RoundEnd *RoundEnd      `json:"round_end,omitempty"`
	Hint     *Hint          `json:"hint,omitempty"`
	Stats    *Stats         `json:"stats,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

type Welcome struct {
	AccountID uint64 `json:"account_id"`
	Username  string `json:"username"`
	TableID   string `json:"table_id"`
}

// RoundSnapshot mirrors blackjack.Snapshot on the wire. The engine snapshot
// already masks the dealer hole card for live rounds; the codec keeps the
// masked card as "??".
type RoundSnapshot struct {
	Round uint32 `json:"round"`
	Over  bool   `json:"over"`

	PlayerCards     []string `json:"player_cards"`
	PlayerSum       int      `json:"player_sum"`
	PlayerUsableAce bool     `json:"player_usable_ace"`

	DealerCards []string `json:"dealer_cards"`
	DealerUp    string   `json:"dealer_up"`
	DealerSum   int      `json:"dealer_sum,omitempty"`

	RunningCount   int     `json:"running_count"`
	TrueCount      float64 `json:"true_count"`
	CountBin       string  `json:"count_bin"`
	CardsRemaining int     `json:"cards_remaining"`
	Shuffles       int     `json:"shuffles"`
}

type RoundEnd struct {
	Round   uint32  `json:"round"`
	Outcome string  `json:"outcome"`
	Reward  float64 `json:"reward"`
}

type Hint struct {
	Action string `json:"action"`
	Policy string `json:"policy"`
}

// Stats is the per-account ledger aggregate pushed on request.
type Stats struct {
	Rounds     int     `json:"rounds"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pushes     int     `json:"pushes"`
	Blackjacks int     `json:"blackjacks"`
	NetReward  float64 `json:"net_reward"`
}

type ErrorResponse struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// WrapServerEnvelope stamps the common fields around one payload.
func WrapServerEnvelope(serverSeq uint64, payload any) ServerEnvelope {
	env := ServerEnvelope{
		ServerSeq:  serverSeq,
		ServerTsMs: time.Now().UnixMilli(),
	}

	switch p := payload.(type) {
	case *Welcome:
		env.Type = ServerWelcome
		env.Welcome = p
	case *RoundSnapshot:
		env.Type = ServerSnapshot
		env.Snapshot = p
	case *RoundEnd:
		env.Type = ServerRoundEnd
		env.RoundEnd = p
	case *Hint:
		env.Type = ServerHint
		env.Hint = p
	case *Stats:
		env.Type = ServerStats
		env.Stats = p
	case *ErrorResponse:
		env.Type = ServerError
		env.Error = p
	}

	return env
}

// SnapshotToWire converts an engine snapshot into its wire form.
func SnapshotToWire(snap blackjack.Snapshot) *RoundSnapshot {
	ws := &RoundSnapshot{
		Round:           snap.Round,
		Over:            snap.Over,
		PlayerCards:     CardsToWire(snap.PlayerCards),
		PlayerSum:       snap.PlayerSum,
		PlayerUsableAce: snap.PlayerUsableAce,
		DealerCards:     CardsToWire(snap.DealerCards),
		DealerUp:        CardToWire(snap.DealerUp),
		RunningCount:    snap.RunningCount,
		TrueCount:       snap.TrueCount,
		CountBin:        snap.Count.String(),
		CardsRemaining:  snap.Shoe.CardsRemaining,
		Shuffles:        snap.Shoe.Shuffles,
	}
	if snap.Over {
		ws.DealerSum = snap.DealerSum
	}
	return ws
}

// CardToWire renders a card in its parseable two-character form ("As",
// "Td"); masked cards become "??".
func CardToWire(c card.Card) string {
	if c == card.CardInvalid {
		return ""
	}
	if c == card.CardRear {
		return "??"
	}
	return rankCode(c.Rank()) + suitCode(c.Suit())
}

func CardsToWire(cards []card.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = CardToWire(c)
	}
	return out
}

// ParseAction maps the wire action name onto the engine action.
func ParseAction(s string) (blackjack.Action, bool) {
	switch s {
	case "HIT", "hit":
		return blackjack.ActionHit, true
	case "STAND", "stand":
		return blackjack.ActionStand, true
	default:
		return 0, false
	}
}

func rankCode(r byte) string {
	switch r {
	case 1:
		return "A"
	case 10:
		return "T"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return string(rune('0' + r))
	}
}

func suitCode(s card.Suit) string {
	switch s {
	case card.Spade:
		return "s"
	case card.Heart:
		return "h"
	case card.Club:
		return "c"
	default:
		return "d"
	}
}

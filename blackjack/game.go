package blackjack

import (
	"math/rand"
	"sync"
	"time"

	"blackjack-lite/card"
)

// Game is a single-seat blackjack round state machine against the fixed
// dealer policy. The shoe persists across rounds; only hands reset on Deal.
type Game struct {
	cfg Config
	rng *rand.Rand

	mu sync.Mutex

	shoe *Shoe

	round   uint32
	started bool
	over    bool

	player Hand
	dealer Hand

	playerNatural bool
	dealerNatural bool

	outcome    Outcome
	lastReward float64
}

func NewGame(cfg Config) (*Game, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	return &Game{
		cfg:  cfg,
		rng:  rng,
		shoe: newShoe(cfg, rng),
	}, nil
}

// StepResult is what the environment hands back after an action.
type StepResult struct {
	Obs    Observation
	Reward float64
	Done   bool
}

// Deal starts a new round: two cards to the player, two to the dealer.
// Naturals are recorded but the round only resolves on the first Step,
// mirroring the episode shape the agents train on.
func (g *Game) Deal() (Observation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started && !g.over {
		return Observation{}, ErrRoundInProgress
	}

	g.round++
	g.started = true
	g.over = false
	g.outcome = OutcomeNone
	g.lastReward = 0

	player, err := g.drawHand()
	if err != nil {
		return Observation{}, err
	}
	dealer, err := g.drawHand()
	if err != nil {
		return Observation{}, err
	}
	g.player = player
	g.dealer = dealer

	g.playerNatural = g.player.IsNatural()
	g.dealerNatural = g.dealer.IsNatural()

	return g.observationLocked(), nil
}

// Step applies a player action and advances the round.
func (g *Game) Step(action Action) (StepResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return StepResult{}, ErrNoRound
	}
	if g.over {
		return StepResult{}, ErrRoundOver
	}
	if action != ActionStand && action != ActionHit {
		return StepResult{}, ErrInvalidAction
	}

	// A dealt natural resolves immediately on the first step, regardless
	// of the requested action.
	if g.playerNatural || g.dealerNatural {
		reward := g.settleLocked()
		return StepResult{Obs: g.observationLocked(), Reward: reward, Done: true}, nil
	}

	if action == ActionHit {
		c, err := g.draw()
		if err != nil {
			return StepResult{}, err
		}
		g.player.Add(c)
		if g.player.IsBust() {
			g.over = true
			g.outcome = OutcomePlayerBust
			g.lastReward = -1
			return StepResult{Obs: g.observationLocked(), Reward: -1, Done: true}, nil
		}
		return StepResult{Obs: g.observationLocked(), Reward: 0, Done: false}, nil
	}

	// Stand: dealer draws to 17+.
	for g.dealer.Sum() < dealerStandSum {
		c, err := g.draw()
		if err != nil {
			return StepResult{}, err
		}
		g.dealer.Add(c)
	}
	reward := g.settleLocked()
	return StepResult{Obs: g.observationLocked(), Reward: reward, Done: true}, nil
}

// settleLocked scores the finished round and records outcome and reward.
func (g *Game) settleLocked() float64 {
	g.over = true

	playerScore := g.player.Score()
	dealerScore := g.dealer.Score()

	switch {
	case g.playerNatural && g.dealerNatural:
		g.outcome = OutcomePush
		g.lastReward = 0
	case g.playerNatural:
		g.outcome = OutcomePlayerBlackjack
		if g.cfg.NaturalBonus {
			g.lastReward = 1.5
		} else {
			g.lastReward = 1
		}
	case g.dealerNatural:
		g.outcome = OutcomeDealerBlackjack
		g.lastReward = -1
	case g.dealer.IsBust() || playerScore > dealerScore:
		g.outcome = OutcomeWin
		g.lastReward = 1
	case playerScore == dealerScore:
		g.outcome = OutcomePush
		g.lastReward = 0
	default:
		g.outcome = OutcomeLoss
		g.lastReward = -1
	}
	return g.lastReward
}

func (g *Game) draw() (card.Card, error) {
	drawn, _, err := g.shoe.Draw()
	return drawn, err
}

func (g *Game) drawHand() (Hand, error) {
	c1, err := g.draw()
	if err != nil {
		return nil, err
	}
	c2, err := g.draw()
	if err != nil {
		return nil, err
	}
	return Hand{c1, c2}, nil
}

func (g *Game) observationLocked() Observation {
	obs := Observation{
		PlayerSum: g.player.Sum(),
		UsableAce: g.player.UsableAce(),
		Count:     BinForCount(g.shoe.RunningCount()),
	}
	if len(g.dealer) > 0 {
		obs.DealerUp = g.dealer[0].BlackjackValue()
	}
	return obs
}

// Observation returns the current agent-visible state.
func (g *Game) Observation() Observation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.observationLocked()
}

// Over reports whether the current round has resolved.
func (g *Game) Over() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.over
}

// Round returns the 1-based index of the current round, 0 before any deal.
func (g *Game) Round() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// RunningCount exposes the shoe's Hi-Lo tally.
func (g *Game) RunningCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shoe.RunningCount()
}

// TrueCount exposes the deck-normalized Hi-Lo count.
func (g *Game) TrueCount() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shoe.TrueCount()
}

// ShoeInfo exposes shoe composition for rendering and diagnostics.
func (g *Game) ShoeInfo() ShoeInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shoe.Info()
}

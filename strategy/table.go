package strategy

import (
	"fmt"
	"strings"

	"github.com/logrusorgru/aurora"

	"blackjack-lite/agent"
	"blackjack-lite/blackjack"
)

// Table is the basic-strategy chart distilled from a solved MDP.
type Table struct {
	decisions map[State]blackjack.Action
}

func FromSolution(sol Solution) *Table {
	decisions := make(map[State]blackjack.Action, len(sol.Policy))
	for s, a := range sol.Policy {
		decisions[s] = a
	}
	return &Table{decisions: decisions}
}

// Lookup maps an environment observation onto the chart. Totals below 12
// are always hit: they cannot bust, so the chart never tabulates them.
func (t *Table) Lookup(obs blackjack.Observation) blackjack.Action {
	if obs.PlayerSum < minPlayerSum {
		return blackjack.ActionHit
	}
	s := State{PlayerSum: obs.PlayerSum, DealerUp: obs.DealerUp, UsableAce: obs.UsableAce}
	if a, ok := t.decisions[s]; ok {
		return a
	}
	return blackjack.ActionStand
}

// SelectAction implements agent.Policy.
func (t *Table) SelectAction(obs blackjack.Observation) blackjack.Action {
	return t.Lookup(obs)
}

func (t *Table) Name() string { return "basic-strategy" }

// ToTablePolicy freezes the chart into the storable policy form. Entries are
// written against the neutral count bin; agent.TablePolicy falls back to it
// for the other bins.
func (t *Table) ToTablePolicy(name string) *agent.TablePolicy {
	decisions := make(map[blackjack.Observation]blackjack.Action, len(t.decisions))
	for s, a := range t.decisions {
		decisions[blackjack.Observation{
			PlayerSum: s.PlayerSum,
			DealerUp:  s.DealerUp,
			UsableAce: s.UsableAce,
			Count:     blackjack.CountNeutral,
		}] = a
	}
	return agent.NewTablePolicy(name, decisions)
}

// Render draws the hit/stand chart for the terminal, one grid for hard
// totals and one for soft totals. Dealer upcards run across, player totals
// down.
func (t *Table) Render(colored bool) string {
	au := aurora.NewAurora(colored)
	var b strings.Builder

	writeGrid := func(title string, usable bool) {
		b.WriteString(title)
		b.WriteString("\n     ")
		for du := minDealerUp; du <= maxDealerUp; du++ {
			b.WriteString(fmt.Sprintf("%3s", dealerUpLabel(du)))
		}
		b.WriteString("\n")
		for ps := maxPlayerSum; ps >= minPlayerSum; ps-- {
			b.WriteString(fmt.Sprintf("%4d ", ps))
			for du := minDealerUp; du <= maxDealerUp; du++ {
				s := State{PlayerSum: ps, DealerUp: du, UsableAce: usable}
				if t.decisions[s] == blackjack.ActionHit {
					b.WriteString(fmt.Sprintf("%3s", au.Red("H")))
				} else {
					b.WriteString(fmt.Sprintf("%3s", au.Green("S")))
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	writeGrid("Hard totals", false)
	writeGrid("Soft totals", true)
	return b.String()
}

func dealerUpLabel(du int) string {
	if du == 1 {
		return "A"
	}
	return fmt.Sprintf("%d", du)
}

package train

import (
	"fmt"

	"blackjack-lite/agent"
	"blackjack-lite/blackjack"
)

// Report tallies the outcomes of an evaluation run. Naturals count as wins.
type Report struct {
	Episodes   int     `json:"episodes"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Pushes     int     `json:"pushes"`
	MeanReward float64 `json:"mean_reward"`
}

func (r Report) WinRate() float64  { return rate(r.Wins, r.Episodes) }
func (r Report) LossRate() float64 { return rate(r.Losses, r.Episodes) }
func (r Report) PushRate() float64 { return rate(r.Pushes, r.Episodes) }

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Evaluate plays the policy for the given number of rounds without learning
// and reports the outcome tallies.
func Evaluate(p agent.Policy, env *blackjack.Game, episodes int) (Report, error) {
	if p == nil || env == nil {
		return Report{}, fmt.Errorf("nil policy or environment")
	}
	if episodes <= 0 {
		return Report{}, fmt.Errorf("episodes must be > 0, got %d", episodes)
	}

	report := Report{Episodes: episodes}
	var total float64
	for ep := 0; ep < episodes; ep++ {
		reward, err := playEpisode(p, env)
		if err != nil {
			return Report{}, fmt.Errorf("episode %d: %w", ep+1, err)
		}
		total += reward
		switch {
		case reward > 0:
			report.Wins++
		case reward < 0:
			report.Losses++
		default:
			report.Pushes++
		}
	}
	report.MeanReward = total / float64(episodes)
	return report, nil
}

func playEpisode(p agent.Policy, env *blackjack.Game) (float64, error) {
	obs, err := env.Deal()
	if err != nil {
		return 0, err
	}
	for {
		res, err := env.Step(p.SelectAction(obs))
		if err != nil {
			return 0, err
		}
		if res.Done {
			return res.Reward, nil
		}
		obs = res.Obs
	}
}

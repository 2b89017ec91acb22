package train

import (
	"fmt"
	"log"

	"blackjack-lite/agent"
	"blackjack-lite/blackjack"
)

// Config sizes a training run.
type Config struct {
	Episodes int
	// LogEvery prints progress every N episodes (0 disables).
	LogEvery int
	// CheckpointEvery freezes the greedy policy and evaluates it every N
	// episodes, recording the result on the tape (0 disables).
	CheckpointEvery int
	// EvalEpisodes is the number of evaluation rounds per checkpoint.
	EvalEpisodes int
	// EvalSeed seeds the evaluation environments (0 => time-based).
	EvalSeed int64
}

func (c Config) validate() error {
	if c.Episodes <= 0 {
		return fmt.Errorf("Episodes must be > 0, got %d", c.Episodes)
	}
	if c.LogEvery < 0 || c.CheckpointEvery < 0 {
		return fmt.Errorf("intervals must be >= 0")
	}
	if c.CheckpointEvery > 0 && c.EvalEpisodes <= 0 {
		return fmt.Errorf("EvalEpisodes must be > 0 when checkpointing")
	}
	return nil
}

// Trainer drives the Q-learning agent against the environment, one episode
// per dealt round, decaying the schedules between episodes.
type Trainer struct {
	env    *blackjack.Game
	envCfg blackjack.Config
	agent  *agent.QLearning
	cfg    Config
}

func NewTrainer(env *blackjack.Game, envCfg blackjack.Config, q *agent.QLearning, cfg Config) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if env == nil || q == nil {
		return nil, fmt.Errorf("nil environment or agent")
	}
	return &Trainer{env: env, envCfg: envCfg, agent: q, cfg: cfg}, nil
}

// Run executes the configured number of episodes and returns the training
// tape (empty checkpoint list when checkpointing is disabled).
func (t *Trainer) Run() (*Tape, error) {
	tape := &Tape{TapeVersion: TapeVersion, Agent: t.agent.Name(), Episodes: t.cfg.Episodes}

	for ep := 1; ep <= t.cfg.Episodes; ep++ {
		if err := t.runEpisode(); err != nil {
			return nil, fmt.Errorf("episode %d: %w", ep, err)
		}
		t.agent.DecaySchedules()

		if t.cfg.LogEvery > 0 && ep%t.cfg.LogEvery == 0 {
			log.Printf("[Train] episode %d/%d alpha=%.5f epsilon=%.5f states=%d",
				ep, t.cfg.Episodes, t.agent.Alpha(), t.agent.Epsilon(), len(t.agent.States()))
		}

		if t.cfg.CheckpointEvery > 0 && ep%t.cfg.CheckpointEvery == 0 {
			report, err := t.checkpointEval()
			if err != nil {
				return nil, fmt.Errorf("checkpoint at episode %d: %w", ep, err)
			}
			tape.Checkpoints = append(tape.Checkpoints, Checkpoint{
				Episode: ep,
				Alpha:   t.agent.Alpha(),
				Epsilon: t.agent.Epsilon(),
				Report:  report,
			})
			log.Printf("[Train] checkpoint episode %d: win=%.3f loss=%.3f push=%.3f mean=%.4f",
				ep, report.WinRate(), report.LossRate(), report.PushRate(), report.MeanReward)
		}
	}

	return tape, nil
}

// runEpisode plays one round to completion, updating the table per
// transition.
func (t *Trainer) runEpisode() error {
	obs, err := t.env.Deal()
	if err != nil {
		return err
	}
	for {
		action := t.agent.SelectAction(obs)
		res, err := t.env.Step(action)
		if err != nil {
			return err
		}
		t.agent.Update(obs, action, res.Reward, res.Obs, res.Done)
		obs = res.Obs
		if res.Done {
			return nil
		}
	}
}

// checkpointEval measures the frozen greedy policy on a fresh environment so
// evaluation rounds never disturb the training shoe.
func (t *Trainer) checkpointEval() (Report, error) {
	cfg := t.envCfg
	cfg.Seed = t.cfg.EvalSeed
	env, err := blackjack.NewGame(cfg)
	if err != nil {
		return Report{}, err
	}
	return Evaluate(t.agent.Greedy(), env, t.cfg.EvalEpisodes)
}

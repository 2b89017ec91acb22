// Command bjsolve is the terminal surface for the blackjack toolkit: solve
// the infinite-deck MDP, train and evaluate a Q-learning agent, play rounds
// interactively, or run a quick self-check of the environment.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"blackjack-lite/agent"
	"blackjack-lite/blackjack"
	"blackjack-lite/card"
	"blackjack-lite/strategy"
	"blackjack-lite/train"
)

const usage = `usage: bjsolve <command> [flags]

commands:
  solve   solve the infinite-deck game and print the strategy chart
  train   train a Q-learning agent and write the policy as JSON
  eval    evaluate a stored or built-in policy over many rounds
  play    play rounds interactively in the terminal
  smoke   run a deterministic self-check of the environment

run 'bjsolve <command> -h' for the flags of a command.
`

func main() {
	log.SetFlags(log.LstdFlags)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "solve":
		err = runSolve(os.Args[2:])
	case "train":
		err = runTrain(os.Args[2:])
	case "eval":
		err = runEval(os.Args[2:])
	case "play":
		err = runPlay(os.Args[2:])
	case "smoke":
		err = runSmoke(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[Main] %s: %v", os.Args[1], err)
	}
}

func runSolve(args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	method := fs.String("method", "vi", "solver: vi (value iteration) or pi (policy iteration)")
	gamma := fs.Float64("gamma", strategy.DefaultGamma, "discount factor")
	theta := fs.Float64("theta", strategy.DefaultTheta, "convergence threshold")
	noColor := fs.Bool("no-color", false, "disable ANSI colors in the chart")
	out := fs.String("out", "", "write the chart as a policy JSON file")
	fs.Parse(args)

	model := strategy.NewModel()
	var (
		sol strategy.Solution
		err error
	)
	switch *method {
	case "vi":
		sol, err = strategy.ValueIteration(model, *gamma, *theta)
	case "pi":
		sol, err = strategy.PolicyIteration(model, *gamma, *theta)
	default:
		return fmt.Errorf("unknown method %q (want vi or pi)", *method)
	}
	if err != nil {
		return err
	}

	table := strategy.FromSolution(sol)
	fmt.Print(table.Render(!*noColor))
	fmt.Printf("\nconverged in %d sweeps, final delta %.2e\n",
		sol.Stats.Sweeps, lastDelta(sol.Stats))

	if *out != "" {
		if err := writePolicy(*out, table.ToTablePolicy("basic-strategy")); err != nil {
			return err
		}
		log.Printf("[Solve] wrote policy to %s", *out)
	}
	return nil
}

func lastDelta(s strategy.Stats) float64 {
	if len(s.Deltas) == 0 {
		return 0
	}
	return s.Deltas[len(s.Deltas)-1]
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	episodes := fs.Int("episodes", 500000, "training episodes")
	decks := fs.Int("decks", 1, "decks in the shoe")
	seed := fs.Int64("seed", 0, "RNG seed (0 => time-based)")
	alphaKind := fs.String("alpha-kind", "linear", "alpha schedule: linear or exponential")
	epsKind := fs.String("epsilon-kind", "linear", "epsilon schedule: linear or exponential")
	logEvery := fs.Int("log-every", 50000, "progress log interval (0 disables)")
	ckptEvery := fs.Int("checkpoint-every", 0, "evaluation checkpoint interval (0 disables)")
	evalEpisodes := fs.Int("eval-episodes", 10000, "rounds per checkpoint evaluation")
	out := fs.String("out", "policy.json", "output path for the trained policy JSON")
	tapePath := fs.String("tape", "", "optional path for the training tape JSON")
	qtablePath := fs.String("qtable", "", "optional path for the raw Q-table JSON (for resuming)")
	resumePath := fs.String("resume", "", "Q-table JSON from a previous run to resume from")
	fs.Parse(args)

	envCfg := blackjack.Config{NumDecks: *decks, Seed: *seed}
	env, err := blackjack.NewGame(envCfg)
	if err != nil {
		return err
	}

	qCfg := agent.DefaultQConfig()
	qCfg.Seed = *seed
	if qCfg.Alpha.Kind, err = agent.ParseScheduleKind(*alphaKind); err != nil {
		return err
	}
	if qCfg.Epsilon.Kind, err = agent.ParseScheduleKind(*epsKind); err != nil {
		return err
	}
	q, err := agent.NewQLearning(qCfg)
	if err != nil {
		return err
	}
	if *resumePath != "" {
		data, err := os.ReadFile(*resumePath)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, q); err != nil {
			return fmt.Errorf("parse q-table %s: %w", *resumePath, err)
		}
		log.Printf("[Train] resumed %d states from %s", len(q.States()), *resumePath)
	}

	trainer, err := train.NewTrainer(env, envCfg, q, train.Config{
		Episodes:        *episodes,
		LogEvery:        *logEvery,
		CheckpointEvery: *ckptEvery,
		EvalEpisodes:    *evalEpisodes,
		EvalSeed:        *seed,
	})
	if err != nil {
		return err
	}

	log.Printf("[Train] starting: episodes=%d decks=%d seed=%d", *episodes, *decks, *seed)
	tape, err := trainer.Run()
	if err != nil {
		return err
	}

	if err := writePolicy(*out, agent.FromQLearning("q-learning", q)); err != nil {
		return err
	}
	log.Printf("[Train] wrote policy (%d states) to %s", len(q.States()), *out)

	if *qtablePath != "" {
		data, err := json.MarshalIndent(q, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*qtablePath, append(data, '\n'), 0o644); err != nil {
			return err
		}
		log.Printf("[Train] wrote q-table to %s", *qtablePath)
	}

	if *tapePath != "" {
		f, err := os.Create(*tapePath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := tape.Save(f); err != nil {
			return err
		}
		log.Printf("[Train] wrote tape (%d checkpoints) to %s", len(tape.Checkpoints), *tapePath)
	}
	return nil
}

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	policyPath := fs.String("policy", "", "policy JSON file (empty => built-in baseline)")
	baseline := fs.String("baseline", "dealer-mimic", "built-in policy when -policy is empty: dealer-mimic, random, or basic")
	episodes := fs.Int("episodes", 100000, "evaluation rounds")
	decks := fs.Int("decks", 1, "decks in the shoe")
	seed := fs.Int64("seed", 0, "RNG seed (0 => time-based)")
	fs.Parse(args)

	policy, err := loadEvalPolicy(*policyPath, *baseline, *seed)
	if err != nil {
		return err
	}

	env, err := blackjack.NewGame(blackjack.Config{NumDecks: *decks, Seed: *seed})
	if err != nil {
		return err
	}

	report, err := train.Evaluate(policy, env, *episodes)
	if err != nil {
		return err
	}
	fmt.Printf("policy:      %s\n", policy.Name())
	fmt.Printf("episodes:    %d\n", report.Episodes)
	fmt.Printf("win rate:    %.4f\n", report.WinRate())
	fmt.Printf("loss rate:   %.4f\n", report.LossRate())
	fmt.Printf("push rate:   %.4f\n", report.PushRate())
	fmt.Printf("mean reward: %+.4f\n", report.MeanReward)
	return nil
}

func loadEvalPolicy(path, baseline string, seed int64) (agent.Policy, error) {
	if path != "" {
		return readPolicy(path)
	}
	switch baseline {
	case "dealer-mimic":
		return agent.DealerMimicPolicy{}, nil
	case "random":
		return agent.NewRandomPolicy(seed), nil
	case "basic":
		sol, err := strategy.ValueIteration(strategy.NewModel(), strategy.DefaultGamma, strategy.DefaultTheta)
		if err != nil {
			return nil, err
		}
		return strategy.FromSolution(sol), nil
	default:
		return nil, fmt.Errorf("unknown baseline %q", baseline)
	}
}

func runPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	decks := fs.Int("decks", 1, "decks in the shoe")
	seed := fs.Int64("seed", 0, "RNG seed (0 => time-based)")
	policyPath := fs.String("policy", "", "policy JSON used for hints (empty => solved basic strategy)")
	fs.Parse(args)

	game, err := blackjack.NewGame(blackjack.Config{NumDecks: *decks, Seed: *seed})
	if err != nil {
		return err
	}

	advisor, err := playAdvisor(*policyPath)
	if err != nil {
		return err
	}

	fmt.Println("commands: (d)eal, (h)it, (s)tand, (?)hint, (c)ount, (q)uit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "d", "deal":
			if _, err := game.Deal(); err != nil {
				fmt.Println(err)
				continue
			}
			printSnapshot(game.Snapshot())
		case "h", "hit":
			stepAndPrint(game, blackjack.ActionHit)
		case "s", "stand":
			stepAndPrint(game, blackjack.ActionStand)
		case "?", "hint":
			if game.Round() == 0 || game.Over() {
				fmt.Println("no live round; deal first")
				continue
			}
			fmt.Printf("hint: %s\n", advisor.SelectAction(game.Observation()))
		case "c", "count":
			info := game.ShoeInfo()
			fmt.Printf("running count %+d, true count %+.2f, %d/%d cards left (%d shuffles)\n",
				game.RunningCount(), game.TrueCount(),
				info.CardsRemaining, info.TotalCards, info.Shuffles)
		case "q", "quit", "exit":
			return nil
		case "":
		default:
			fmt.Println("commands: (d)eal, (h)it, (s)tand, (?)hint, (c)ount, (q)uit")
		}
	}
}

func playAdvisor(policyPath string) (agent.Policy, error) {
	if policyPath != "" {
		return readPolicy(policyPath)
	}
	sol, err := strategy.ValueIteration(strategy.NewModel(), strategy.DefaultGamma, strategy.DefaultTheta)
	if err != nil {
		return nil, err
	}
	return strategy.FromSolution(sol), nil
}

func stepAndPrint(game *blackjack.Game, action blackjack.Action) {
	res, err := game.Step(action)
	if err != nil {
		fmt.Println(err)
		return
	}
	snap := game.Snapshot()
	printSnapshot(snap)
	if res.Done {
		fmt.Printf("round %d: %s (reward %+.1f)\n", snap.Round, snap.Outcome, snap.Reward)
	}
}

func printSnapshot(s blackjack.Snapshot) {
	fmt.Printf("dealer: %s", handString(s.DealerCards))
	if s.Over {
		fmt.Printf(" (%d)", s.DealerSum)
	}
	fmt.Println()
	fmt.Printf("player: %s (%d", handString(s.PlayerCards), s.PlayerSum)
	if s.PlayerUsableAce {
		fmt.Print(", soft")
	}
	fmt.Println(")")
}

func handString(cards []card.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func runSmoke(args []string) error {
	fs := flag.NewFlagSet("smoke", flag.ExitOnError)
	fs.Parse(args)

	log.Printf("[Smoke] starting environment self-check")

	// Fixed seed so the check is reproducible.
	game, err := blackjack.NewGame(blackjack.Config{Seed: 42})
	if err != nil {
		return fmt.Errorf("new game: %w", err)
	}

	obs, err := game.Deal()
	if err != nil {
		return fmt.Errorf("deal: %w", err)
	}
	if obs.PlayerSum < 4 || obs.PlayerSum > 21 {
		return fmt.Errorf("initial player sum %d out of range", obs.PlayerSum)
	}
	if obs.DealerUp < 1 || obs.DealerUp > 10 {
		return fmt.Errorf("dealer upcard value %d out of range", obs.DealerUp)
	}
	if game.ShoeInfo().CardsDealt != 4 {
		return fmt.Errorf("expected 4 cards dealt, got %d", game.ShoeInfo().CardsDealt)
	}
	log.Printf("[Smoke] deal ok: %s", obs)

	for !game.Over() {
		res, err := game.Step(blackjack.ActionHit)
		if err != nil {
			return fmt.Errorf("hit: %w", err)
		}
		if res.Done {
			snap := game.Snapshot()
			if snap.Outcome == blackjack.OutcomePlayerBust && res.Reward != -1 {
				return fmt.Errorf("bust reward %v, want -1", res.Reward)
			}
			log.Printf("[Smoke] round resolved: %s (reward %+.1f)", snap.Outcome, res.Reward)
		}
	}

	// Hitting to resolution over enough rounds must produce at least one
	// bust, move the running count, and keep the shoe bookkeeping
	// consistent across reshuffles.
	busts := 0
	countMoved := false
	for round := 0; round < 50; round++ {
		if _, err := game.Deal(); err != nil {
			return fmt.Errorf("deal round %d: %w", round, err)
		}
		for !game.Over() {
			res, err := game.Step(blackjack.ActionHit)
			if err != nil {
				return fmt.Errorf("hit round %d: %w", round, err)
			}
			if res.Done && game.Snapshot().Outcome == blackjack.OutcomePlayerBust {
				busts++
			}
		}
		if game.RunningCount() != 0 {
			countMoved = true
		}
	}
	if busts == 0 {
		return fmt.Errorf("no busts across 50 hit-only rounds")
	}
	if !countMoved {
		return fmt.Errorf("running count never moved across 50 rounds")
	}
	info := game.ShoeInfo()
	if info.CardsRemaining+info.CardsDealt != info.TotalCards {
		return fmt.Errorf("shoe bookkeeping off: %+v", info)
	}
	log.Printf("[Smoke] %d busts across 50 hit-only rounds, shoe consistent (%d shuffles)", busts, info.Shuffles)

	log.Printf("[Smoke] OK")
	return nil
}

func writePolicy(path string, p *agent.TablePolicy) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readPolicy(path string) (*agent.TablePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p agent.TablePolicy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return &p, nil
}

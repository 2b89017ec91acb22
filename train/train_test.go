package train

import (
	"bytes"
	"testing"

	"blackjack-lite/agent"
	"blackjack-lite/blackjack"
)

func newEnv(t *testing.T, seed int64) (*blackjack.Game, blackjack.Config) {
	t.Helper()
	cfg := blackjack.Config{Seed: seed}
	g, err := blackjack.NewGame(cfg)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return g, cfg
}

func newAgent(t *testing.T, seed int64) *agent.QLearning {
	t.Helper()
	cfg := agent.DefaultQConfig()
	cfg.Seed = seed
	q, err := agent.NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning: %v", err)
	}
	return q
}

func TestTrainerRunPopulatesTable(t *testing.T) {
	env, envCfg := newEnv(t, 7)
	q := newAgent(t, 7)

	tr, err := NewTrainer(env, envCfg, q, Config{Episodes: 200})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	tape, err := tr.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if tape.Episodes != 200 {
		t.Fatalf("tape episodes = %d, want 200", tape.Episodes)
	}
	if len(tape.Checkpoints) != 0 {
		t.Fatalf("checkpointing disabled but got %d checkpoints", len(tape.Checkpoints))
	}
	if len(q.States()) == 0 {
		t.Fatal("no states recorded after 200 episodes")
	}
	// 200 decay steps of the default linear schedule.
	if got := q.Epsilon(); got >= 1.0 {
		t.Fatalf("epsilon did not decay: %v", got)
	}
}

func TestTrainerCheckpoints(t *testing.T) {
	env, envCfg := newEnv(t, 11)
	q := newAgent(t, 11)

	tr, err := NewTrainer(env, envCfg, q, Config{
		Episodes:        100,
		CheckpointEvery: 50,
		EvalEpisodes:    30,
		EvalSeed:        11,
	})
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	tape, err := tr.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(tape.Checkpoints) != 2 {
		t.Fatalf("checkpoints = %d, want 2", len(tape.Checkpoints))
	}
	for i, cp := range tape.Checkpoints {
		if cp.Episode != 50*(i+1) {
			t.Fatalf("checkpoint %d at episode %d, want %d", i, cp.Episode, 50*(i+1))
		}
		if cp.Report.Episodes != 30 {
			t.Fatalf("checkpoint %d evaluated %d episodes, want 30", i, cp.Report.Episodes)
		}
		total := cp.Report.Wins + cp.Report.Losses + cp.Report.Pushes
		if total != 30 {
			t.Fatalf("checkpoint %d tallies %d outcomes, want 30", i, total)
		}
	}
}

func TestTrainerConfigValidation(t *testing.T) {
	env, envCfg := newEnv(t, 1)
	q := newAgent(t, 1)

	if _, err := NewTrainer(env, envCfg, q, Config{Episodes: 0}); err == nil {
		t.Fatal("zero episodes accepted")
	}
	if _, err := NewTrainer(env, envCfg, q, Config{Episodes: 10, CheckpointEvery: 5}); err == nil {
		t.Fatal("checkpointing without EvalEpisodes accepted")
	}
	if _, err := NewTrainer(nil, envCfg, q, Config{Episodes: 10}); err == nil {
		t.Fatal("nil environment accepted")
	}
}

func TestEvaluateTallies(t *testing.T) {
	env, _ := newEnv(t, 3)
	p := agent.DealerMimicPolicy{}

	report, err := Evaluate(p, env, 500)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if report.Episodes != 500 {
		t.Fatalf("episodes = %d, want 500", report.Episodes)
	}
	if report.Wins+report.Losses+report.Pushes != 500 {
		t.Fatalf("tallies do not sum: %+v", report)
	}
	if report.Wins == 0 || report.Losses == 0 {
		t.Fatalf("degenerate outcome split over 500 rounds: %+v", report)
	}
	if got := report.WinRate() + report.LossRate() + report.PushRate(); got < 0.999 || got > 1.001 {
		t.Fatalf("rates sum to %v, want 1", got)
	}
}

func TestEvaluateRejectsBadArgs(t *testing.T) {
	env, _ := newEnv(t, 1)
	if _, err := Evaluate(nil, env, 10); err == nil {
		t.Fatal("nil policy accepted")
	}
	if _, err := Evaluate(agent.DealerMimicPolicy{}, env, 0); err == nil {
		t.Fatal("zero episodes accepted")
	}
}

func TestTapeRoundTrip(t *testing.T) {
	tape := &Tape{
		TapeVersion: TapeVersion,
		Agent:       "q-learning",
		Episodes:    1000,
		Checkpoints: []Checkpoint{
			{Episode: 500, Alpha: 0.09, Epsilon: 0.5, Report: Report{Episodes: 100, Wins: 41, Losses: 50, Pushes: 9, MeanReward: -0.07}},
		},
	}

	var buf bytes.Buffer
	if err := tape.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadTape(&buf)
	if err != nil {
		t.Fatalf("LoadTape: %v", err)
	}
	if got.Agent != tape.Agent || got.Episodes != tape.Episodes {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Checkpoints) != 1 || got.Checkpoints[0] != tape.Checkpoints[0] {
		t.Fatalf("checkpoint mismatch: %+v", got.Checkpoints)
	}
}

func TestTapeRejectsWrongVersion(t *testing.T) {
	var buf bytes.Buffer
	bad := &Tape{TapeVersion: TapeVersion + 1, Agent: "q-learning"}
	if err := bad.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := LoadTape(&buf); err == nil {
		t.Fatal("wrong version accepted")
	}
}

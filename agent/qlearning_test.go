package agent

import (
	"encoding/json"
	"testing"

	"blackjack-lite/blackjack"
)

func testObs(playerSum int) blackjack.Observation {
	return blackjack.Observation{
		PlayerSum: playerSum,
		DealerUp:  10,
		UsableAce: false,
		Count:     blackjack.CountNeutral,
	}
}

func TestQLearningUpdateTerminal(t *testing.T) {
	cfg := DefaultQConfig()
	cfg.Alpha = Schedule{Initial: 0.5, Final: 0.5}
	cfg.Seed = 1
	q, err := NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}

	obs := testObs(20)
	q.Update(obs, blackjack.ActionStand, 1.0, blackjack.Observation{}, true)

	stand, hit := q.Q(obs)
	if stand != 0.5 {
		t.Errorf("Q(stand) = %v, want 0.5 (alpha * reward)", stand)
	}
	if hit != 0 {
		t.Errorf("Q(hit) = %v, want untouched 0", hit)
	}
}

func TestQLearningUpdateBootstraps(t *testing.T) {
	cfg := DefaultQConfig()
	cfg.Alpha = Schedule{Initial: 1.0, Final: 1.0}
	cfg.Gamma = 1.0
	cfg.Seed = 1
	q, err := NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}

	next := testObs(19)
	// Seed the successor state with a known best value.
	q.Update(next, blackjack.ActionStand, 0.8, blackjack.Observation{}, true)

	obs := testObs(12)
	q.Update(obs, blackjack.ActionHit, 0, next, false)

	_, hit := q.Q(obs)
	if hit != 0.8 {
		t.Errorf("Q(hit) = %v, want bootstrapped 0.8", hit)
	}
}

func TestQLearningGreedyAfterTraining(t *testing.T) {
	cfg := DefaultQConfig()
	cfg.Alpha = Schedule{Initial: 0.5, Final: 0.5}
	cfg.Epsilon = Schedule{Initial: 0, Final: 0}
	cfg.Seed = 42
	q, err := NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}

	obs := testObs(20)
	q.Update(obs, blackjack.ActionStand, 1.0, blackjack.Observation{}, true)
	q.Update(obs, blackjack.ActionHit, -1.0, blackjack.Observation{}, true)

	for i := 0; i < 20; i++ {
		if got := q.SelectAction(obs); got != blackjack.ActionStand {
			t.Fatalf("SelectAction = %s with epsilon 0, want STAND", got)
		}
	}
	if got := q.Greedy().SelectAction(obs); got != blackjack.ActionStand {
		t.Fatalf("Greedy().SelectAction = %s, want STAND", got)
	}
}

func TestScheduleLinearDecay(t *testing.T) {
	s := Schedule{Initial: 1.0, Final: 0.1, Decay: 0.4, Kind: ScheduleLinear}
	if s.Value() != 1.0 {
		t.Fatalf("Value = %v, want initial 1.0", s.Value())
	}
	s.Step()
	if v := s.Value(); v < 0.6-1e-12 || v > 0.6+1e-12 {
		t.Fatalf("Value after one step = %v, want 0.6", v)
	}
	s.Step()
	s.Step() // would go below final
	if s.Value() != 0.1 {
		t.Fatalf("Value = %v, want floor 0.1", s.Value())
	}
	s.Reset()
	if s.Value() != 1.0 {
		t.Fatalf("Value after Reset = %v, want 1.0", s.Value())
	}
}

func TestScheduleExponentialDecay(t *testing.T) {
	s := Schedule{Initial: 1.0, Final: 0.25, Decay: 0.5, Kind: ScheduleExponential}
	s.Step()
	if s.Value() != 0.5 {
		t.Fatalf("Value = %v, want 0.5", s.Value())
	}
	s.Step()
	s.Step()
	if s.Value() != 0.25 {
		t.Fatalf("Value = %v, want floor 0.25", s.Value())
	}
}

func TestQConfigValidation(t *testing.T) {
	cfg := DefaultQConfig()
	cfg.Gamma = 1.5
	if _, err := NewQLearning(cfg); err == nil {
		t.Fatal("expected error for gamma > 1")
	}

	cfg = DefaultQConfig()
	cfg.Epsilon = Schedule{Initial: 0.01, Final: 1.0}
	if _, err := NewQLearning(cfg); err == nil {
		t.Fatal("expected error for initial < final")
	}

	cfg = DefaultQConfig()
	cfg.Alpha = Schedule{Initial: 0.1, Final: 0.01, Decay: 2.0, Kind: ScheduleExponential}
	if _, err := NewQLearning(cfg); err == nil {
		t.Fatal("expected error for exponential decay factor > 1")
	}
}

func TestTablePolicyRoundTrip(t *testing.T) {
	decisions := map[blackjack.Observation]blackjack.Action{
		testObs(20): blackjack.ActionStand,
		testObs(12): blackjack.ActionHit,
	}
	tp := NewTablePolicy("unit", decisions)

	data, err := tp.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON err: %v", err)
	}

	var restored TablePolicy
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON err: %v", err)
	}
	if restored.Name() != "unit" {
		t.Errorf("Name = %q, want unit", restored.Name())
	}
	if restored.Len() != 2 {
		t.Fatalf("Len = %d, want 2", restored.Len())
	}
	for obs, want := range decisions {
		if got := restored.SelectAction(obs); got != want {
			t.Errorf("SelectAction(%s) = %s, want %s", obs, got, want)
		}
	}
}

func TestTablePolicyFallbacks(t *testing.T) {
	neutralOnly := map[blackjack.Observation]blackjack.Action{
		testObs(16): blackjack.ActionHit,
	}
	tp := NewTablePolicy("fallback", neutralOnly)

	// Same state at a high count falls back to the neutral entry.
	high := testObs(16)
	high.Count = blackjack.CountHigh
	if got := tp.SelectAction(high); got != blackjack.ActionHit {
		t.Errorf("high-count fallback = %s, want HIT", got)
	}

	// Unknown low totals default to hit, high totals to stand.
	if got := tp.SelectAction(testObs(5)); got != blackjack.ActionHit {
		t.Errorf("unknown sum 5 = %s, want HIT", got)
	}
	if got := tp.SelectAction(testObs(19)); got != blackjack.ActionStand {
		t.Errorf("unknown sum 19 = %s, want STAND", got)
	}
}

func TestQTableSaveResume(t *testing.T) {
	cfg := DefaultQConfig()
	cfg.Alpha = Schedule{Initial: 0.5, Final: 0.5}
	cfg.Seed = 1
	q, err := NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}
	q.Update(testObs(20), blackjack.ActionStand, 1, blackjack.Observation{}, true)
	q.Update(testObs(12), blackjack.ActionHit, -1, blackjack.Observation{}, true)

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("Marshal err: %v", err)
	}

	resumed, err := NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}
	if err := json.Unmarshal(data, resumed); err != nil {
		t.Fatalf("Unmarshal err: %v", err)
	}
	if len(resumed.States()) != 2 {
		t.Fatalf("States = %d, want 2", len(resumed.States()))
	}
	wantStand, wantHit := q.Q(testObs(20))
	stand, hit := resumed.Q(testObs(20))
	if stand != wantStand || hit != wantHit {
		t.Fatalf("Q(20) = (%v, %v), want (%v, %v)", stand, hit, wantStand, wantHit)
	}

	// A resumed agent keeps learning from where it left off.
	resumed.Update(testObs(20), blackjack.ActionStand, 1, blackjack.Observation{}, true)
	if after, _ := resumed.Q(testObs(20)); after <= stand {
		t.Fatalf("Q(stand) = %v after resume update, want > %v", after, stand)
	}
}

func TestQTableRejectsForeignAgent(t *testing.T) {
	q, err := NewQLearning(DefaultQConfig())
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"agent":"sarsa","entries":[]}`), q); err == nil {
		t.Fatal("expected error for a foreign agent's table")
	}
}

func TestFromQLearning(t *testing.T) {
	cfg := DefaultQConfig()
	cfg.Alpha = Schedule{Initial: 1.0, Final: 1.0}
	cfg.Seed = 1
	q, err := NewQLearning(cfg)
	if err != nil {
		t.Fatalf("NewQLearning err: %v", err)
	}
	q.Update(testObs(20), blackjack.ActionStand, 1, blackjack.Observation{}, true)
	q.Update(testObs(20), blackjack.ActionHit, -1, blackjack.Observation{}, true)

	tp := FromQLearning("frozen", q)
	if got := tp.SelectAction(testObs(20)); got != blackjack.ActionStand {
		t.Fatalf("frozen policy = %s, want STAND", got)
	}
}

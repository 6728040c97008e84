package board

import (
	"context"
	"errors"
	"testing"

	"monopoly-ai/platform/ai"
)

// scriptedModel returns whatever the score function produces. Stateful
// functions let a test fire a decision once and stay quiet afterwards.
type scriptedModel struct {
	scores func(ai.Observation) []float64
}

func (s *scriptedModel) Predict(_ context.Context, obs ai.Observation) ([]float64, error) {
	return s.scores(obs), nil
}

func constModel(scores ...float64) *scriptedModel {
	return &scriptedModel{scores: func(ai.Observation) []float64 { return scores }}
}

func opModel(t *testing.T, name string, kind ai.Kind, single bool, m ai.DecisionModel) *ai.OperationModel {
	t.Helper()
	om, err := ai.NewOperationModel(ai.Config{
		Model:         m,
		Name:          name,
		Operation:     kind,
		TrueThreshold: 0.5,
		SingleLabel:   single,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return om
}

func mustRegistry(t *testing.T, limit int, models ...*ai.OperationModel) *ai.Registry {
	t.Helper()
	r, err := ai.NewRegistry(models, limit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestGameSetupResolvesModels(t *testing.T) {
	b, err := NewBoardInformation([]string{"Alice", "Bob"}, 1500, 32, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.AvailableHouses() != 32 || b.AvailableHotels() != 12 {
		t.Fatalf("inventory off: %d/%d", b.AvailableHouses(), b.AvailableHotels())
	}

	purchase, err := ai.NewOperationModel(ai.Config{
		Model:         constModel(1),
		Name:          "purchase-model-v2",
		Operation:     ai.Purchase,
		TrueThreshold: 0.5,
		SingleLabel:   true,
		Optimizer:     "rmsprop",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decision, err := ai.NewOperationModel(ai.Config{
		Model:         constModel(1),
		Name:          "trade-decision-v2",
		Operation:     ai.TradeDecision,
		TrueThreshold: 0.5,
		SingleLabel:   true,
		Optimizer:     "rmsprop",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	registry := mustRegistry(t, 4, purchase, decision)
	if registry.UpgradeLimit != 4 {
		t.Fatalf("upgrade limit off: %d", registry.UpgradeLimit)
	}
	got, err := registry.Resolve(ai.Purchase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != purchase {
		t.Fatal("resolution should return the bound model unchanged")
	}
	if got.Optimizer != "rmsprop" {
		t.Fatalf("explicit optimizer lost: %q", got.Optimizer)
	}
	if len(got.Metrics) != 1 || got.Metrics[0] != "accuracy" {
		t.Fatalf("metrics should default: %v", got.Metrics)
	}
}

func TestControllerRequiresRegistry(t *testing.T) {
	if _, err := NewController([]string{"Alice"}, nil, DefaultConfig()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestRunHonorsContext(t *testing.T) {
	registry := mustRegistry(t, 4)
	c, err := NewController([]string{"Alice", "Bob"}, registry, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPurchaseOnlyGameEnds(t *testing.T) {
	registry := mustRegistry(t, 4,
		opModel(t, "always-buy", ai.Purchase, true, constModel(1)))

	cfg := Config{Purchase: true, Seed: 42}
	c, err := NewController([]string{"Alice", "Bob"}, registry, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Alive() {
		t.Fatal("game should have ended")
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both players, got %d", len(results))
	}
	owned := 0
	for _, r := range results {
		owned += r.PropertiesOwned
		if r.TurnCount != c.TotalTurns() {
			t.Fatalf("turn count mismatch: %d vs %d", r.TurnCount, c.TotalTurns())
		}
	}
	if owned == 0 {
		t.Fatal("an always-buy game should sell at least one property")
	}
}

func TestTurnLimitStopsGame(t *testing.T) {
	registry := mustRegistry(t, 4,
		opModel(t, "never-buy", ai.Purchase, true, constModel(0)))

	cfg := Config{Purchase: true, MaxTurn: 10, Seed: 1}
	c, err := NewController([]string{"Alice", "Bob"}, registry, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TotalTurns() < cfg.MaxTurn {
		t.Fatalf("stopped after %d turns, limit is %d", c.TotalTurns(), cfg.MaxTurn)
	}
	if !c.Board().IsAnyPurchaseable() {
		t.Fatal("nothing should have been bought")
	}
	for _, r := range results {
		if r.PropertiesOwned != 0 {
			t.Fatalf("%s owns %d properties", r.Name, r.PropertiesOwned)
		}
	}
}

func TestUpgradePhaseFollowsDecisionVector(t *testing.T) {
	fired := false
	upDown := &scriptedModel{scores: func(obs ai.Observation) []float64 {
		y := make([]float64, 2*len(obs.Board.Fields))
		if !fired {
			fired = true
			y[0] = 1
		}
		return y
	}}
	registry := mustRegistry(t, 4,
		opModel(t, "builder", ai.UpDownGrade, true, upDown))

	cfg := Config{UpDownGrade: true, MaxTurn: 1, Seed: 3}
	c, err := NewController([]string{"Alice", "Bob"}, registry, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Board().Purchase("Alice", 1)
	c.Board().Purchase("Alice", 3)

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.Board().Level(1); got != 2 {
		t.Fatalf("first decision index should build on position 1, level is %d", got)
	}
	if c.Board().AvailableHouses() != 31 {
		t.Fatalf("one house should be in play, %d left", c.Board().AvailableHouses())
	}
}

func TestTradeTransfersOwnership(t *testing.T) {
	offered := false
	offer := &scriptedModel{scores: func(obs ai.Observation) []float64 {
		y := make([]float64, 2*len(obs.Board.Fields))
		if !offered {
			offered = true
			for i := range y {
				y[i] = 0.9
			}
		}
		return y
	}}
	registry := mustRegistry(t, 4,
		opModel(t, "offer", ai.TradeOfferKind, false, offer),
		opModel(t, "always-accept", ai.TradeDecision, true, constModel(1)))

	cfg := Config{Trade: true, MaxTurn: 1, Seed: 7}
	c, err := NewController([]string{"Alice", "Bob"}, registry, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Board().Purchase("Alice", 1)

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Board().IsOwnedBy("Bob", 1) {
		t.Fatal("accepted offer should hand position 1 to Bob")
	}
	if c.Board().IsOwnedBy("Alice", 1) {
		t.Fatal("Alice should no longer own position 1")
	}
}

func TestTransferStripsBuildings(t *testing.T) {
	registry := mustRegistry(t, 4)
	c, err := NewController([]string{"Alice", "Bob"}, registry, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := c.Board()
	b.Purchase("Alice", 1)
	b.Purchase("Alice", 3)
	b.Upgrade("Alice", 1)
	b.Upgrade("Alice", 1)

	alice, bob := c.Player("Alice"), c.Player("Bob")
	cashBefore := alice.Cash
	if err := c.transferProperties(alice, bob, []int{1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.IsOwnedBy("Bob", 1) {
		t.Fatal("ownership did not move")
	}
	if b.Level(1) != 1 {
		t.Fatalf("buildings must come down before a transfer, level is %d", b.Level(1))
	}
	if alice.Cash != cashBefore+2*b.DowngradeAmount(1) {
		t.Fatalf("seller should be credited for torn down houses, cash %d", alice.Cash)
	}
}

func TestReset(t *testing.T) {
	registry := mustRegistry(t, 4,
		opModel(t, "always-buy", ai.Purchase, true, constModel(1)))
	c, err := NewController([]string{"Alice", "Bob"}, registry, Config{Purchase: true, MaxTurn: 5, Seed: 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.TotalTurns() != 0 || !c.Alive() {
		t.Fatal("reset should restore the starting state")
	}
	if !c.Board().IsAnyPurchaseable() || c.Board().AmountPropertiesOwned("Alice") != 0 {
		t.Fatal("reset should rebuild the board")
	}
}

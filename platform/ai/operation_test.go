package ai

import (
	"context"
	"errors"
	"testing"
)

type stubModel struct {
	scores []float64
	err    error
}

func (s stubModel) Predict(ctx context.Context, obs Observation) ([]float64, error) {
	return s.scores, s.err
}

func TestOperationModelDefaults(t *testing.T) {
	m, err := NewOperationModel(Config{
		Model:         stubModel{scores: []float64{1}},
		Name:          "purchase-v1",
		Operation:     Purchase,
		Loss:          "binary_crossentropy",
		TrueThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Optimizer != "adam" {
		t.Fatalf("expected default optimizer adam, got %q", m.Optimizer)
	}
	if len(m.Metrics) != 1 || m.Metrics[0] != "accuracy" {
		t.Fatalf("expected default metrics [accuracy], got %v", m.Metrics)
	}
}

func TestOperationModelExplicitValuesKept(t *testing.T) {
	m, err := NewOperationModel(Config{
		Model:         stubModel{scores: []float64{1}},
		Name:          "purchase-v1",
		Operation:     Purchase,
		TrueThreshold: 0.5,
		Optimizer:     "sgd",
		Metrics:       []string{"mae"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Optimizer != "sgd" {
		t.Fatalf("explicit optimizer overridden, got %q", m.Optimizer)
	}
	if len(m.Metrics) != 1 || m.Metrics[0] != "mae" {
		t.Fatalf("explicit metrics overridden, got %v", m.Metrics)
	}
}

func TestOperationModelValidation(t *testing.T) {
	base := Config{
		Model:         stubModel{scores: []float64{1}},
		Name:          "m",
		Operation:     Purchase,
		TrueThreshold: 0.5,
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"nil model", func(c *Config) { c.Model = nil }},
		{"empty name", func(c *Config) { c.Name = "" }},
		{"unknown operation", func(c *Config) { c.Operation = "buy_everything" }},
		{"threshold above one", func(c *Config) { c.TrueThreshold = 1.5 }},
		{"threshold negative", func(c *Config) { c.TrueThreshold = -0.1 }},
		{"negative cash limit", func(c *Config) { c.MaxCashLimit = -1 }},
	}
	for _, tc := range tests {
		cfg := base
		tc.mutate(&cfg)
		if _, err := NewOperationModel(cfg); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got %v", tc.name, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"purchase", "up_down_grade", "trade_offer", "trade_decision"} {
		if _, err := ParseKind(s); err != nil {
			t.Fatalf("expected %q to parse: %v", s, err)
		}
	}
	if _, err := ParseKind("roll_dice"); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDecideSingleLabel(t *testing.T) {
	m, err := NewOperationModel(Config{
		Model:         stubModel{scores: []float64{0.2, 0.9, 0.4}},
		Name:          "m",
		Operation:     UpDownGrade,
		TrueThreshold: 0.5,
		SingleLabel:   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	y, err := m.Decide(context.Background(), Observation{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{false, true, false}
	for i := range want {
		if y[i] != want[i] {
			t.Fatalf("got %v want %v", y, want)
		}
	}
}

func TestDecideSingleLabelBelowThreshold(t *testing.T) {
	m, _ := NewOperationModel(Config{
		Model:         stubModel{scores: []float64{0.2, 0.4}},
		Name:          "m",
		Operation:     Purchase,
		TrueThreshold: 0.5,
		SingleLabel:   true,
	})
	y, err := m.Decide(context.Background(), Observation{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range y {
		if v {
			t.Fatalf("index %d fired below threshold", i)
		}
	}
}

func TestDecideMultiLabel(t *testing.T) {
	m, _ := NewOperationModel(Config{
		Model:         stubModel{scores: []float64{0.6, 0.4, 0.5}},
		Name:          "m",
		Operation:     TradeOfferKind,
		TrueThreshold: 0.5,
	})
	y, err := m.Decide(context.Background(), Observation{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, false, true}
	for i := range want {
		if y[i] != want[i] {
			t.Fatalf("got %v want %v", y, want)
		}
	}
}

func TestDecidePropagatesModelError(t *testing.T) {
	m, _ := NewOperationModel(Config{
		Model:         stubModel{err: ErrFetchFailed},
		Name:          "m",
		Operation:     Purchase,
		TrueThreshold: 0.5,
	})
	if _, err := m.Decide(context.Background(), Observation{}); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

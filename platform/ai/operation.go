package ai

import (
	"context"
	"errors"
	"fmt"
)

// Kind is one of the decision categories a model can be bound to.
type Kind string

const (
	Purchase       Kind = "purchase"
	UpDownGrade    Kind = "up_down_grade"
	TradeOfferKind Kind = "trade_offer"
	TradeDecision  Kind = "trade_decision"
)

var kinds = map[Kind]bool{
	Purchase:       true,
	UpDownGrade:    true,
	TradeOfferKind: true,
	TradeDecision:  true,
}

var (
	ErrFetchFailed   = errors.New("model fetch failed")
	ErrConfiguration = errors.New("invalid model configuration")
	ErrResolution    = errors.New("no model bound for operation")
)

func (k Kind) Valid() bool {
	return kinds[k]
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown operation %q", ErrConfiguration, s)
	}
	return k, nil
}

const (
	DefaultOptimizer = "adam"
	DefaultMetric    = "accuracy"
)

// Config collects the construction inputs of an OperationModel. Optimizer
// and Metrics fall back to their defaults when left unset; everything else
// is taken as given and validated.
type Config struct {
	Model         DecisionModel
	Name          string
	Operation     Kind
	Loss          string
	TrueThreshold float64
	MaxCashLimit  int
	SingleLabel   bool
	Optimizer     string
	Metrics       []string
}

// OperationModel binds one remote model to one decision kind together with
// the parameters needed to use it. Instances are immutable after
// construction and safe for concurrent use.
type OperationModel struct {
	Name          string
	Operation     Kind
	Loss          string
	TrueThreshold float64
	MaxCashLimit  int
	SingleLabel   bool
	Optimizer     string
	Metrics       []string

	model DecisionModel
}

func NewOperationModel(cfg Config) (*OperationModel, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("%w: model reference is required", ErrConfiguration)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: model name is required", ErrConfiguration)
	}
	if !cfg.Operation.Valid() {
		return nil, fmt.Errorf("%w: unknown operation %q", ErrConfiguration, cfg.Operation)
	}
	if cfg.TrueThreshold < 0 || cfg.TrueThreshold > 1 {
		return nil, fmt.Errorf("%w: true threshold %v outside [0,1]", ErrConfiguration, cfg.TrueThreshold)
	}
	if cfg.MaxCashLimit < 0 {
		return nil, fmt.Errorf("%w: max cash limit cannot be negative", ErrConfiguration)
	}

	optimizer := cfg.Optimizer
	if optimizer == "" {
		optimizer = DefaultOptimizer
	}
	metrics := cfg.Metrics
	if len(metrics) == 0 {
		metrics = []string{DefaultMetric}
	}

	return &OperationModel{
		Name:          cfg.Name,
		Operation:     cfg.Operation,
		Loss:          cfg.Loss,
		TrueThreshold: cfg.TrueThreshold,
		MaxCashLimit:  cfg.MaxCashLimit,
		SingleLabel:   cfg.SingleLabel,
		Optimizer:     optimizer,
		Metrics:       metrics,
		model:         cfg.Model,
	}, nil
}

// Decide runs inference for the observation and binarizes the raw scores
// against the true threshold. In single-label mode at most the best scoring
// index fires, and only when its score reaches the threshold. In multi-label
// mode every index at or above the threshold fires.
func (m *OperationModel) Decide(ctx context.Context, obs Observation) ([]bool, error) {
	scores, err := m.model.Predict(ctx, obs)
	if err != nil {
		return nil, err
	}

	y := make([]bool, len(scores))
	if m.SingleLabel {
		best := 0
		for i, s := range scores {
			if s > scores[best] {
				best = i
			}
		}
		if len(scores) > 0 && scores[best] >= m.TrueThreshold {
			y[best] = true
		}
		return y, nil
	}

	for i, s := range scores {
		if s >= m.TrueThreshold {
			y[i] = true
		}
	}
	return y, nil
}

package ai

import "fmt"

// Registry resolves decision kinds to their configured OperationModel for
// one game instance and carries the shared upgrade limit. Bindings are
// validated once at construction; afterwards the registry is read-only and
// safe for concurrent use.
type Registry struct {
	models       map[Kind]*OperationModel
	UpgradeLimit int
}

func NewRegistry(models []*OperationModel, upgradeLimit int) (*Registry, error) {
	if upgradeLimit < 0 {
		return nil, fmt.Errorf("%w: upgrade limit cannot be negative", ErrConfiguration)
	}

	bound := make(map[Kind]*OperationModel, len(models))
	for _, m := range models {
		if m == nil {
			return nil, fmt.Errorf("%w: nil operation model", ErrConfiguration)
		}
		if !m.Operation.Valid() {
			return nil, fmt.Errorf("%w: unknown operation %q", ErrConfiguration, m.Operation)
		}
		if prev, ok := bound[m.Operation]; ok {
			return nil, fmt.Errorf("%w: operation %q claimed by both %q and %q",
				ErrConfiguration, m.Operation, prev.Name, m.Name)
		}
		bound[m.Operation] = m
	}

	return &Registry{models: bound, UpgradeLimit: upgradeLimit}, nil
}

// Resolve returns the unique model bound to the kind.
func (r *Registry) Resolve(kind Kind) (*OperationModel, error) {
	m, ok := r.models[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrResolution, kind)
	}
	return m, nil
}

// Has reports whether a model is bound for the kind.
func (r *Registry) Has(kind Kind) bool {
	_, ok := r.models[kind]
	return ok
}

// Kinds returns the bound decision kinds.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.models))
	for k := range r.models {
		out = append(out, k)
	}
	return out
}

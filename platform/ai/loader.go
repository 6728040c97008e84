package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
)

// Manifest is the serialized model description served next to a trained
// model: which operation it answers, where inference is reachable, and the
// configuration it was compiled with.
type Manifest struct {
	Name          string   `json:"name"`
	Operation     string   `json:"operation"`
	Endpoint      string   `json:"endpoint"`
	Loss          string   `json:"loss"`
	Optimizer     string   `json:"optimizer"`
	Metrics       []string `json:"metrics"`
	TrueThreshold float64  `json:"true_threshold"`
	SingleLabel   bool     `json:"single_label"`
	MaxCashLimit  int      `json:"max_cash_limit"`
}

// Load fetches a model manifest from the given URL and builds the
// OperationModel it describes. A relative manifest endpoint is resolved
// against the manifest URL. Transport, status and decoding failures are
// reported as ErrFetchFailed; a manifest describing an unusable model as
// ErrConfiguration.
func Load(ctx context.Context, manifestURL string) (*OperationModel, error) {
	client := &http.Client{Timeout: requestTimeout}

	raw, err := doWithRetry(ctx, client, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	})
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: decode manifest from %s: %v", ErrFetchFailed, manifestURL, err)
	}

	kind, err := ParseKind(m.Operation)
	if err != nil {
		return nil, err
	}

	endpoint, err := resolveEndpoint(manifestURL, m.Endpoint)
	if err != nil {
		return nil, err
	}

	model, err := NewOperationModel(Config{
		Model:         NewRemoteModel(endpoint),
		Name:          m.Name,
		Operation:     kind,
		Loss:          m.Loss,
		TrueThreshold: m.TrueThreshold,
		MaxCashLimit:  m.MaxCashLimit,
		SingleLabel:   m.SingleLabel,
		Optimizer:     m.Optimizer,
		Metrics:       m.Metrics,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"name":      model.Name,
		"operation": model.Operation,
		"endpoint":  endpoint,
	}).Info("model loaded")

	return model, nil
}

// LoadAll fetches every manifest and wraps the result in a validated
// registry with the given upgrade limit.
func LoadAll(ctx context.Context, manifestURLs []string, upgradeLimit int) (*Registry, error) {
	models := make([]*OperationModel, 0, len(manifestURLs))
	for _, u := range manifestURLs {
		m, err := Load(ctx, u)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return NewRegistry(models, upgradeLimit)
}

func resolveEndpoint(manifestURL, endpoint string) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("%w: manifest has no inference endpoint", ErrConfiguration)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: bad endpoint %q: %v", ErrConfiguration, endpoint, err)
	}
	if ref.IsAbs() {
		return endpoint, nil
	}
	base, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad manifest url %q: %v", ErrConfiguration, manifestURL, err)
	}
	return base.ResolveReference(ref).String(), nil
}

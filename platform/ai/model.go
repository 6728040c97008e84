package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// DecisionModel produces a raw score vector for a game observation. It is
// invoked synchronously by the game loop and must not mutate shared state.
type DecisionModel interface {
	Predict(ctx context.Context, obs Observation) ([]float64, error)
}

// Observation is the game state handed to a model for one decision.
type Observation struct {
	GameId    string       `json:"game_id,omitempty"`
	Operation Kind         `json:"operation"`
	Player    PlayerState  `json:"player"`
	Opponent  *PlayerState `json:"opponent,omitempty"`
	Offer     *TradeOffer  `json:"offer,omitempty"`
	Board     BoardState   `json:"board"`
}

type PlayerState struct {
	Name     string `json:"name"`
	Cash     int    `json:"cash"`
	Position int    `json:"position"`
}

type FieldState struct {
	Position    int    `json:"position"`
	Owner       string `json:"owner,omitempty"`
	Level       int    `json:"level"`
	CanPurchase bool   `json:"can_purchase"`
	Price       int    `json:"price"`
	Rent        int    `json:"rent"`
	Monopoly    bool   `json:"monopoly"`
}

type BoardState struct {
	Fields          []FieldState `json:"fields"`
	AvailableHouses int          `json:"available_houses"`
	AvailableHotels int          `json:"available_hotels"`
	FreeParkingCash int          `json:"free_parking_cash"`
	MaxCashLimit    int          `json:"max_cash_limit"`
}

// TradeOffer is a proposed exchange between the offering player and one
// opponent: cash both ways plus board positions both ways.
type TradeOffer struct {
	From              string `json:"from"`
	To                string `json:"to"`
	OfferCash         int    `json:"offer_cash"`
	RequestCash       int    `json:"request_cash"`
	OfferProperties   []int  `json:"offer_properties"`
	RequestProperties []int  `json:"request_properties"`
}

const (
	requestTimeout = 10 * time.Second
	maxAttempts    = 3
)

// RemoteModel calls a served model over HTTP. The endpoint receives the
// observation as JSON and answers with {"scores": [...]}.
type RemoteModel struct {
	Endpoint string
	client   *http.Client
}

func NewRemoteModel(endpoint string) *RemoteModel {
	return &RemoteModel{
		Endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

type predictResponse struct {
	Scores []float64 `json:"scores"`
}

func (m *RemoteModel) Predict(ctx context.Context, obs Observation) ([]float64, error) {
	body, err := json.Marshal(obs)
	if err != nil {
		return nil, fmt.Errorf("%w: encode observation: %v", ErrFetchFailed, err)
	}

	raw, err := doWithRetry(ctx, m.client, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var res predictResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("%w: decode scores from %s: %v", ErrFetchFailed, m.Endpoint, err)
	}
	if len(res.Scores) == 0 {
		return nil, fmt.Errorf("%w: empty score vector from %s", ErrFetchFailed, m.Endpoint)
	}
	return res.Scores, nil
}

// doWithRetry performs the request up to maxAttempts times with linear
// backoff. Non-2xx statuses and transport errors both count as failures.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrFetchFailed, ctx.Err())
			case <-time.After(time.Duration(attempt-1) * 250 * time.Millisecond):
			}
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).WithField("attempt", attempt).Warn("model request failed")
			continue
		}

		raw, err := ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			log.WithField("status", resp.StatusCode).WithField("attempt", attempt).Warn("model request rejected")
			continue
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrFetchFailed, lastErr)
}

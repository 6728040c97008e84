package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"monopoly-ai/platform/ai"
	"monopoly-ai/platform/board"
)

func modelServer(t *testing.T, operation string, scores []float64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/model.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ai.Manifest{
			Name:          operation + "-model",
			Operation:     operation,
			Endpoint:      "/predict",
			TrueThreshold: 0.5,
			SingleLabel:   true,
		})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]float64{"scores": scores})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunValidation(t *testing.T) {
	_, err := Run(context.Background(), Request{Models: []string{"http://x/model.json"}}, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error without players")
	}

	_, err = Run(context.Background(), Request{Players: []string{"Alice"}}, nil, nil, nil)
	if !errors.Is(err, ai.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration without models, got %v", err)
	}
}

func TestRunReportsUnreachableModel(t *testing.T) {
	req := Request{
		Players: []string{"Alice", "Bob"},
		Models:  []string{"http://127.0.0.1:1/model.json"},
	}
	if _, err := Run(context.Background(), req, nil, nil, nil); !errors.Is(err, ai.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestRunPlaysGame(t *testing.T) {
	srv := modelServer(t, "purchase", []float64{0})

	var events []board.Event
	req := Request{
		GameId:  "test-game",
		Players: []string{"Alice", "Bob"},
		Models:  []string{srv.URL + "/model.json"},
		MaxTurn: 5,
		Seed:    2,
	}
	results, err := Run(context.Background(), req, nil, nil, func(e board.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected results for both players, got %d", len(results))
	}
	for name, r := range results {
		if r.Name != name {
			t.Fatalf("result keyed by %q carries name %q", name, r.Name)
		}
		if r.PropertiesOwned != 0 {
			t.Fatalf("never-buy model should leave %s without properties", name)
		}
	}

	sawMove, sawOver := false, false
	for _, e := range events {
		switch e.Type {
		case "move":
			sawMove = true
		case "game-over":
			sawOver = true
		}
	}
	if !sawMove || !sawOver {
		t.Fatalf("expected move and game-over events, got %d events", len(events))
	}
}

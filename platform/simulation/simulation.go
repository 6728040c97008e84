package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-pg/pg/v10"
	"github.com/gomodule/redigo/redis"
	log "github.com/sirupsen/logrus"

	"monopoly-ai/platform/ai"
	"monopoly-ai/platform/board"
	"monopoly-ai/platform/queries"
)

// Request describes one simulation run: who plays, which served models make
// the decisions, and the game tunables. Unset toggles default to enabled.
type Request struct {
	GameId          string   `json:"game_id"`
	Players         []string `json:"players"`
	Models          []string `json:"models"`
	UpgradeLimit    int      `json:"upgrade_limit"`
	MaxTurn         int      `json:"max_turn"`
	StartingCash    int      `json:"starting_cash"`
	MaxCashLimit    int      `json:"max_cash_limit"`
	AvailableHouses int      `json:"available_houses"`
	AvailableHotels int      `json:"available_hotels"`
	Purchase        *bool    `json:"purchase"`
	UpDownGrade     *bool    `json:"up_down_grade"`
	Trade           *bool    `json:"trade"`
	Seed            int64    `json:"seed"`
}

const defaultUpgradeLimit = 20

// Run loads the requested models, plays a full game and persists the
// results. db and pool are optional; without them the run is in-memory
// only. Events are forwarded to emit when set.
func Run(ctx context.Context, req Request, db *pg.DB, pool *redis.Pool, emit board.EventFunc) (map[string]board.Result, error) {
	if len(req.Players) == 0 {
		return nil, errors.New("at least one player is required")
	}
	if len(req.Models) == 0 {
		return nil, fmt.Errorf("%w: no model manifests given", ai.ErrConfiguration)
	}

	upgradeLimit := req.UpgradeLimit
	if upgradeLimit == 0 {
		upgradeLimit = defaultUpgradeLimit
	}
	registry, err := ai.LoadAll(ctx, req.Models, upgradeLimit)
	if err != nil {
		return nil, err
	}

	var conn redis.Conn
	if pool != nil {
		conn = pool.Get()
		defer conn.Close()
		if err := queries.MarkSimulationRunning(req.GameId, req.Players, &conn); err != nil {
			log.WithError(err).Warn("could not mark simulation in redis")
			conn = nil
		}
	}

	cfg := board.Config{
		MaxTurn:         req.MaxTurn,
		StartingCash:    req.StartingCash,
		MaxCashLimit:    req.MaxCashLimit,
		AvailableHouses: req.AvailableHouses,
		AvailableHotels: req.AvailableHotels,
		Purchase:        enabled(req.Purchase),
		UpDownGrade:     enabled(req.UpDownGrade),
		Trade:           enabled(req.Trade),
		Seed:            req.Seed,
		OnEvent: func(e board.Event) {
			if conn != nil && e.Type == "move" {
				queries.SetCurrentTurn(req.GameId, e.Player, e.Turn, &conn)
			}
			if emit != nil {
				emit(e)
			}
		},
	}

	controller, err := board.NewController(req.Players, registry, cfg)
	if err != nil {
		return nil, err
	}

	if db != nil {
		queries.SetGameStatus(req.GameId, "in progress", db)
	}

	results, err := controller.Run(ctx)

	if conn != nil {
		queries.ClearSimulation(req.GameId, &conn)
	}
	if err != nil {
		return nil, err
	}

	if db != nil {
		if err := queries.SaveResults(req.GameId, results, db); err != nil {
			return nil, err
		}
		queries.SetGameStatus(req.GameId, "finished", db)
	}

	log.WithFields(log.Fields{
		"game":  req.GameId,
		"turns": controller.TotalTurns(),
	}).Info("simulation finished")
	return results, nil
}

func enabled(v *bool) bool {
	return v == nil || *v
}

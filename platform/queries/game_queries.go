package queries

import (
	"fmt"
	"strconv"

	"github.com/go-pg/pg/v10"
	"github.com/gomodule/redigo/redis"
	uuid "github.com/satori/go.uuid"

	"monopoly-ai/app/models"
	"monopoly-ai/platform/board"
	"monopoly-ai/platform/cache"
)

func VerifyGame(id string, db *pg.DB) bool {
	game := &models.Game{Id: id}
	return db.Model(game).WherePK().Select() == nil
}

func SetGameStatus(id, status string, db *pg.DB) error {
	game := &models.Game{Id: id}
	_, err := db.Model(game).WherePK().Set("status = ?", status).Update()
	return err
}

// SaveResults persists the per-player outcome of a finished simulation.
func SaveResults(gameID string, results map[string]board.Result, db *pg.DB) error {
	for _, r := range results {
		row := &models.GameResult{
			Id:           uuid.NewV4().String(),
			GameId:       gameID,
			Player:       r.Name,
			Cash:         r.Cash,
			PropsOwned:   r.PropertiesOwned,
			AverageLevel: r.AverageLevel,
			TurnCount:    r.TurnCount,
		}
		if _, err := db.Model(row).Insert(); err != nil {
			return err
		}
	}
	return nil
}

func GetResults(gameID string, db *pg.DB) ([]models.GameResult, error) {
	var results []models.GameResult
	err := db.Model(&results).Where("game_id = ?", gameID).Select()
	return results, err
}

// Live simulation status mirrored into redis, keyed by game id.

func MarkSimulationRunning(gameID string, order []string, conn *redis.Conn) error {
	if err := cache.Set(gameID, "running", conn); err != nil {
		return err
	}
	values := make([]interface{}, len(order))
	for i, name := range order {
		values[i] = name
	}
	return cache.RPUSH(fmt.Sprintf("%s.order", gameID), values, conn)
}

func SetCurrentTurn(gameID, player string, turn int, conn *redis.Conn) error {
	if err := cache.HSET(fmt.Sprintf("%s.state", gameID), "player", player, conn); err != nil {
		return err
	}
	return cache.HSET(fmt.Sprintf("%s.state", gameID), "turn", strconv.Itoa(turn), conn)
}

// IsSimulationRunning checks the live status flag for the game.
func IsSimulationRunning(gameID string, conn *redis.Conn) bool {
	status, err := cache.Get(gameID, conn)
	return err == nil && status == "running"
}

// TurnOrder returns the player order of the running simulation.
func TurnOrder(gameID string, conn *redis.Conn) ([]string, error) {
	values, err := cache.LGET(fmt.Sprintf("%s.order", gameID), conn)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(values))
	for _, v := range values {
		if b, ok := v.([]byte); ok {
			order = append(order, string(b))
		}
	}
	return order, nil
}

func CurrentTurn(gameID string, conn *redis.Conn) (string, int, error) {
	player, err := cache.HGET(fmt.Sprintf("%s.state", gameID), "player", conn)
	if err != nil {
		return "", 0, err
	}
	raw, err := cache.HGET(fmt.Sprintf("%s.state", gameID), "turn", conn)
	if err != nil {
		return "", 0, err
	}
	turn, _ := strconv.Atoi(raw)
	return player, turn, nil
}

func ClearSimulation(gameID string, conn *redis.Conn) {
	cache.Del(gameID, conn)
	cache.Del(fmt.Sprintf("%s.order", gameID), conn)
	cache.Del(fmt.Sprintf("%s.state", gameID), conn)
}

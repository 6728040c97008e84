package socket

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"monopoly-ai/platform/board"
	"monopoly-ai/platform/cache"
	"monopoly-ai/platform/database"
	"monopoly-ai/platform/queries"
	"monopoly-ai/platform/simulation"
)

// CreateSocketIOServer runs the realtime side of the service: clients join a
// room per game, kick off simulations and receive every board event the game
// loop emits while the simulation runs.
func CreateSocketIOServer() {
	server, err := socketio.NewServer(nil)
	if err != nil {
		log.WithError(err).Fatal("could not create socket.io server")
	}

	db := database.PostgreSQLConnection()
	defer db.Close()

	pool := cache.CreateRedisPool()
	defer pool.Close()

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		return nil
	})

	server.OnEvent("/", "join-game", func(s socketio.Conn, jsonStr string) {
		var result map[string]string
		json.Unmarshal([]byte(jsonStr), &result)

		id, ok := result["game_id"]
		if !ok || !queries.VerifyGame(id, db) {
			s.Emit("error-message", "Invalid game")
			return
		}
		s.Join(id)
		server.BroadcastToRoom("/", id, "watcher-join")
		s.Emit("joined-game", id)
	})

	server.OnEvent("/", "leave-game", func(s socketio.Conn, jsonStr string) {
		var result map[string]string
		json.Unmarshal([]byte(jsonStr), &result)
		s.Leave(result["game_id"])
	})

	server.OnEvent("/", "start-sim", func(s socketio.Conn, jsonStr string) {
		var req simulation.Request
		if err := json.Unmarshal([]byte(jsonStr), &req); err != nil {
			s.Emit("error-message", "Bad simulation request")
			return
		}
		if !queries.VerifyGame(req.GameId, db) {
			s.Emit("error-message", "Invalid game")
			return
		}

		go func() {
			emit := func(e board.Event) {
				payload, err := json.Marshal(e)
				if err != nil {
					return
				}
				server.BroadcastToRoom("/", req.GameId, "sim-event", string(payload))
			}

			results, err := simulation.Run(context.Background(), req, db, pool, emit)
			if err != nil {
				log.WithError(err).WithField("game", req.GameId).Error("simulation failed")
				server.BroadcastToRoom("/", req.GameId, "sim-error", err.Error())
				return
			}
			payload, _ := json.Marshal(results)
			server.BroadcastToRoom("/", req.GameId, "sim-over", string(payload))
		}()
	})

	server.OnEvent("/", "sim-status", func(s socketio.Conn, gameID string) {
		conn := pool.Get()
		defer conn.Close()

		if !queries.IsSimulationRunning(gameID, &conn) {
			s.Emit("error-message", "No running simulation")
			return
		}
		player, turn, err := queries.CurrentTurn(gameID, &conn)
		if err != nil {
			s.Emit("error-message", "No running simulation")
			return
		}
		order, _ := queries.TurnOrder(gameID, &conn)
		payload, _ := json.Marshal(map[string]interface{}{"player": player, "turn": turn, "order": order})
		s.Emit("sim-status", string(payload))
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.WithError(e).Warn("socket error")
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		s.LeaveAll()
	})

	go server.Serve()
	defer server.Close()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{os.Getenv("CORS_ORIGIN")},
		AllowCredentials: true,
	})

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)

	addr := os.Getenv("SOCKET_ADDR")
	if addr == "" {
		addr = ":8000"
	}
	log.WithField("addr", addr).Info("socket.io server listening")
	http.ListenAndServe(addr, c.Handler(mux))
}

// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/parkerc/unoroom/internal/auth"
	"github.com/parkerc/unoroom/internal/database"
	"github.com/parkerc/unoroom/internal/handlers"
	"github.com/parkerc/unoroom/internal/leaderboard"
	"github.com/parkerc/unoroom/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	lb, err := leaderboard.Connect()
	if err != nil {
		// Rooms still run without Redis; only the ranking goes dark.
		logger.Warnf("leaderboard disabled: %v", err)
		lb = nil
	}

	srv := handlers.NewRoomServer(logger, lb)

	logged := middleware.LogMiddleware(logger)
	mux := http.NewServeMux()

	// account endpoints
	mux.Handle("/api/register", logged(handlers.RegisterHandler(logger)))
	mux.Handle("/api/login", logged(handlers.LoginHandler(logger)))
	mux.Handle("/api/me", logged(http.HandlerFunc(handlers.MeHandler)))
	mux.Handle("/api/leaderboard", logged(handlers.LeaderboardHandler(logger, lb)))

	// room websocket; mounted bare so the upgrade can hijack the connection
	mux.Handle("/ws", handlers.RoomWSHandler(logger, srv))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

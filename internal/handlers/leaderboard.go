package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/parkerc/unoroom/internal/database"
	"github.com/parkerc/unoroom/internal/leaderboard"
)

const leaderboardSize = 25

// LeaderboardHandler serves the top win counts from the Redis ranking,
// falling back to the durable counters in Postgres when Redis is not
// configured.
func LeaderboardHandler(logger *logrus.Logger, lb *leaderboard.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []leaderboard.Entry
		if lb != nil {
			var err error
			entries, err = lb.TopN(r.Context(), leaderboardSize)
			if err != nil {
				logger.Errorf("failed to read leaderboard: %v", err)
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
		} else {
			users, err := database.TopWins(r.Context(), leaderboardSize)
			if err != nil {
				logger.Errorf("failed to read win counts: %v", err)
				http.Error(w, "leaderboard unavailable", http.StatusInternalServerError)
				return
			}
			for _, u := range users {
				entries = append(entries, leaderboard.Entry{Username: u.Username, Wins: u.Wins})
			}
		}
		if entries == nil {
			entries = []leaderboard.Entry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

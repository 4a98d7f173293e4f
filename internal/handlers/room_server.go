package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parkerc/unoroom/internal/database"
	"github.com/parkerc/unoroom/internal/game"
	"github.com/parkerc/unoroom/internal/leaderboard"
)

// RoomServer owns the room registry and the collaborators a finishing game
// touches. One instance serves the whole process.
type RoomServer struct {
	Rooms       *game.RoomStore
	Leaderboard *leaderboard.Store
	Logger      *logrus.Logger
	GracePeriod time.Duration
}

const defaultGraceSec = 30

func NewRoomServer(logger *logrus.Logger, lb *leaderboard.Store) *RoomServer {
	grace := time.Duration(getEnvInt("DISCONNECT_GRACE_SEC", defaultGraceSec)) * time.Second
	return &RoomServer{
		Rooms:       game.NewRoomStore(),
		Leaderboard: lb,
		Logger:      logger,
		GracePeriod: grace,
	}
}

// CreateRoom registers a fresh room and wires its end-of-game side effects.
func (s *RoomServer) CreateRoom() *game.Room {
	room := s.Rooms.Create(s.GracePeriod)
	room.BroadcastFn = broadcastViews(s.Logger)
	room.OnGameEnd = s.onGameEnd(room.Code)
	s.Logger.WithField("room", room.Code).Info("room created")
	return room
}

// onGameEnd records the result with every collaborator: the durable win
// counter in Postgres, the Redis ranking, and the match log. All of it is
// fire-and-forget from the room's perspective; a failed side effect never
// touches room state.
func (s *RoomServer) onGameEnd(code string) game.OnGameEndFunc {
	return func(winnerID uuid.UUID, winnerName string, forfeit bool) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log := s.Logger.WithFields(logrus.Fields{"room": code, "winner": winnerName})
		log.Info("game concluded")

		if err := database.IncrementWins(ctx, winnerID); err != nil {
			log.Warnf("failed to record win: %v", err)
		}
		if s.Leaderboard == nil {
			return
		}
		if err := s.Leaderboard.IncrementWins(ctx, winnerName); err != nil {
			log.Warnf("failed to update leaderboard: %v", err)
		}
		record := leaderboard.MatchRecord{
			Code:    code,
			Winner:  winnerName,
			Forfeit: forfeit,
			EndedAt: time.Now().Unix(),
		}
		if err := s.Leaderboard.PublishMatch(ctx, record); err != nil {
			log.Warnf("failed to publish match record: %v", err)
		}
	}
}

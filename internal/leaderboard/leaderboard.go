// Package leaderboard keeps the win-count ranking in a Redis sorted set and
// publishes finished-match records onto a Redis list for out-of-process
// consumers. ZINCRBY is atomic on the server, so concurrent finishes in
// different rooms each land their increment; nothing is ever overwritten by a
// stale read-modify-write.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	winsKey           = "uno:leaderboard:wins"
	defaultMatchQueue = "uno:matches"
)

// Entry is one leaderboard row.
type Entry struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

// MatchRecord describes one concluded game for the match log.
type MatchRecord struct {
	Code    string `json:"code"`
	Winner  string `json:"winner"`
	Forfeit bool   `json:"forfeit"`
	EndedAt int64  `json:"ended_at"`
}

// Store wraps the Redis client behind the two operations the engine needs.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect builds a Store from REDIS_ADDR and REDIS_DB and verifies the
// connection.
func Connect() (*Store, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client), nil
}

// IncrementWins adds exactly one win to the identity's score.
func (s *Store) IncrementWins(ctx context.Context, username string) error {
	return s.client.ZIncrBy(ctx, winsKey, 1, username).Err()
}

// TopN returns the best-ranked entries, highest win count first.
func (s *Store) TopN(ctx context.Context, limit int) ([]Entry, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, winsKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		entries = append(entries, Entry{Username: name, Wins: int(z.Score)})
	}
	return entries, nil
}

// PublishMatch pushes a finished-match record onto the match queue. Errors
// surface to the caller, who treats the log as best-effort.
func (s *Store) PublishMatch(ctx context.Context, record MatchRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}
	queue := getEnv("MATCH_QUEUE_NAME", defaultMatchQueue)
	if err := s.client.RPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push match record to '%s': %w", queue, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

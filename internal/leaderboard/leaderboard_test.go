package leaderboard

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestIncrementWinsAccumulates(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementWins(ctx, "alice"))
	require.NoError(t, s.IncrementWins(ctx, "alice"))
	require.NoError(t, s.IncrementWins(ctx, "bob"))

	entries, err := s.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Username: "alice", Wins: 2}, entries[0])
	assert.Equal(t, Entry{Username: "bob", Wins: 1}, entries[1])
}

func TestTopNOrderAndLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	names := []string{"carol", "dave", "erin", "frank"}
	for i, name := range names {
		for j := 0; j <= i; j++ {
			require.NoError(t, s.IncrementWins(ctx, name))
		}
	}

	entries, err := s.TopN(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "frank", entries[0].Username)
	assert.Equal(t, 4, entries[0].Wins)
	assert.Equal(t, "erin", entries[1].Username)
}

func TestTopNEmpty(t *testing.T) {
	s := setupTestStore(t)

	entries, err := s.TopN(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishMatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	s := New(client)

	record := MatchRecord{Code: "KQ7XP", Winner: "alice", Forfeit: true, EndedAt: 1700000000}
	require.NoError(t, s.PublishMatch(context.Background(), record))

	raw, err := mr.Lpop(defaultMatchQueue)
	require.NoError(t, err)

	var got MatchRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, record, got)
}

package game

import (
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkerc/unoroom/internal/models"
)

// mockBroadcaster collects per-seat view batches instead of writing to sockets.
type mockBroadcaster struct {
	mu      sync.Mutex
	batches [][]PlayerView
}

func (mb *mockBroadcaster) broadcastFn(views []PlayerView) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.batches = append(mb.batches, views)
}

func (mb *mockBroadcaster) lastBatch() []PlayerView {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.batches) == 0 {
		return nil
	}
	return mb.batches[len(mb.batches)-1]
}

// dummyConn gives a seat a non-nil connection handle so views get built. No
// bytes ever travel through it; the mock broadcaster intercepts everything.
func dummyConn() *websocket.Conn {
	return &websocket.Conn{}
}

type testSeat struct {
	id   uuid.UUID
	name string
}

// setupTestRoom seats two players and returns the started game.
func setupTestRoom(t *testing.T, grace time.Duration) (*Room, testSeat, testSeat, *mockBroadcaster) {
	t.Helper()
	r := NewRoom("ROOM1", grace)
	mb := &mockBroadcaster{}
	r.BroadcastFn = mb.broadcastFn

	alice := testSeat{uuid.New(), "alice"}
	bob := testSeat{uuid.New(), "bob"}
	require.NoError(t, r.Join(alice.id, alice.name, dummyConn()))
	require.Equal(t, StatusWaiting, r.Status)
	require.NoError(t, r.Join(bob.id, bob.name, dummyConn()))
	require.Equal(t, StatusPlaying, r.Status)
	return r, alice, bob, mb
}

func TestSecondJoinStartsGame(t *testing.T) {
	r, _, _, _ := setupTestRoom(t, time.Minute)

	require.Len(t, r.Players, 2)
	for _, p := range r.Players {
		assert.Len(t, p.Hand, HandSize)
	}
	require.Len(t, r.Discard, 1)
	top := r.Discard[0]
	assert.Equal(t, models.KindNumber, top.Kind, "opening card is always a colored number")
	assert.Equal(t, top.Color, r.CurrentColor)
	// Opening redraws return cards to the deck, so the count is exact.
	assert.Len(t, r.Deck, DeckSize-2*HandSize-1)
	assert.Equal(t, 0, r.TurnIndex, "first seat opens")
}

func TestJoinRejectsThirdSeat(t *testing.T) {
	r, _, _, _ := setupTestRoom(t, time.Minute)

	err := r.Join(uuid.New(), "mallory", dummyConn())
	assert.ErrorIs(t, err, ErrGameNotActive)
}

func TestJoinFullWaitingRoom(t *testing.T) {
	r := NewRoom("ROOM1", time.Minute)
	alice := uuid.New()
	aliceConn := dummyConn()
	require.NoError(t, r.Join(alice, "alice", aliceConn))
	// A disconnected seat keeps its claim; the room stays Waiting with both
	// seats taken once bob arrives.
	r.HandleDisconnect(alice, aliceConn)
	require.NoError(t, r.Join(uuid.New(), "bob", dummyConn()))
	require.Equal(t, StatusWaiting, r.Status)

	err := r.Join(uuid.New(), "mallory", dummyConn())
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRejoinKeepsHand(t *testing.T) {
	r, alice, _, _ := setupTestRoom(t, time.Minute)
	hand := make([]uuid.UUID, 0, HandSize)
	for _, c := range r.Players[0].Hand {
		hand = append(hand, c.ID)
	}

	require.NoError(t, r.Join(alice.id, alice.name, dummyConn()))

	require.Equal(t, StatusPlaying, r.Status)
	require.Len(t, r.Players, 2, "rejoin never creates a new seat")
	require.Len(t, r.Players[0].Hand, HandSize)
	for i, c := range r.Players[0].Hand {
		assert.Equal(t, hand[i], c.ID, "rejoin never re-deals")
	}
}

func TestReconnectUnknownIdentity(t *testing.T) {
	r, _, _, _ := setupTestRoom(t, time.Minute)

	err := r.Reconnect(uuid.New(), dummyConn())
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestDisconnectGraceForfeit(t *testing.T) {
	r, alice, bob, _ := setupTestRoom(t, 20*time.Millisecond)

	done := make(chan struct{})
	var gotWinner uuid.UUID
	var gotForfeit bool
	r.OnGameEnd = func(winnerID uuid.UUID, winnerName string, forfeit bool) {
		gotWinner = winnerID
		gotForfeit = forfeit
		close(done)
	}

	r.HandleDisconnect(alice.id, r.Players[0].Conn)

	r.Mu.Lock()
	assert.Equal(t, StatusPlaying, r.Status, "state survives during the grace period")
	assert.False(t, r.Players[0].Connected)
	r.Mu.Unlock()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("grace expiry did not conclude the game")
	}

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, StatusFinished, r.Status)
	assert.Equal(t, bob.id, r.WinnerID)
	assert.Equal(t, bob.id, gotWinner)
	assert.True(t, gotForfeit)
	require.Len(t, r.Players, 1, "the forfeiting seat is removed")
}

func TestReconnectCancelsForfeit(t *testing.T) {
	r, alice, _, _ := setupTestRoom(t, 30*time.Millisecond)

	r.HandleDisconnect(alice.id, r.Players[0].Conn)
	require.NoError(t, r.Reconnect(alice.id, dummyConn()))

	time.Sleep(80 * time.Millisecond)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, StatusPlaying, r.Status)
	assert.True(t, r.Players[0].Connected)
	require.Len(t, r.Players, 2)
}

func TestLeaveForfeitsImmediately(t *testing.T) {
	r, alice, bob, _ := setupTestRoom(t, time.Minute)

	require.NoError(t, r.Leave(alice.id))

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, StatusFinished, r.Status)
	assert.Equal(t, bob.name, r.WinnerName)
	require.Len(t, r.Players, 1)
}

func TestStaleSocketCloseKeepsLiveSeat(t *testing.T) {
	r, alice, _, _ := setupTestRoom(t, 30*time.Millisecond)
	oldConn := r.Players[0].Conn

	// The client dials a fresh socket and rejoins before the server notices
	// the old one died; the old socket's close arrives afterwards.
	newConn := dummyConn()
	require.NoError(t, r.Join(alice.id, alice.name, newConn))
	r.HandleDisconnect(alice.id, oldConn)

	r.Mu.Lock()
	assert.True(t, r.Players[0].Connected, "a superseded socket cannot take the seat offline")
	assert.Same(t, newConn, r.Players[0].Conn)
	assert.Nil(t, r.Players[0].GraceTimer)
	r.Mu.Unlock()

	time.Sleep(80 * time.Millisecond)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Equal(t, StatusPlaying, r.Status, "no forfeiture while the seat is live")
	require.Len(t, r.Players, 2)
}

func TestDisconnectAfterFinishRemovesSeat(t *testing.T) {
	r, alice, _, _ := setupTestRoom(t, time.Minute)
	require.NoError(t, r.Leave(alice.id))
	require.Len(t, r.Players, 1)
	bobID := r.Players[0].ID

	r.HandleDisconnect(bobID, r.Players[0].Conn)

	r.Mu.Lock()
	defer r.Mu.Unlock()
	assert.Empty(t, r.Players, "no grace period once the game is over")
}

func TestViewsHideOpponentHand(t *testing.T) {
	r, alice, bob, mb := setupTestRoom(t, time.Minute)

	views := mb.lastBatch()
	require.Len(t, views, 2)

	byName := make(map[string]PlayerView)
	for _, v := range views {
		byName[v.You] = v
	}
	for _, seat := range []testSeat{alice, bob} {
		v, ok := byName[seat.name]
		require.True(t, ok)
		assert.Equal(t, "state", v.Type)
		assert.Equal(t, seat.id, v.PlayerID)
		assert.Len(t, v.YourHand, HandSize)
		require.Len(t, v.Players, 2)
		for _, s := range v.Players {
			assert.Equal(t, HandSize, s.Cards, "opponents appear as counts only")
		}
		assert.Equal(t, len(r.Deck), v.DrawPile)
		assert.NotNil(t, v.TopCard)
	}

	// The two seats see distinct hands.
	assert.NotEqual(t, byName[alice.name].YourHand[0].ID, byName[bob.name].YourHand[0].ID)
}

func TestCardCountMismatchTerminatesRoom(t *testing.T) {
	r, alice, _, _ := setupTestRoom(t, time.Minute)

	r.Mu.Lock()
	// Simulate a vanished card.
	r.Deck = r.Deck[:len(r.Deck)-1]
	r.verifyCardCount()
	r.Mu.Unlock()

	assert.True(t, r.Corrupted)
	assert.Equal(t, StatusFinished, r.Status)
	assert.ErrorIs(t, r.DrawCard(alice.id), ErrGameNotActive)
}

func TestRoomStoreCreateAndPrune(t *testing.T) {
	s := NewRoomStore()
	room := s.Create(time.Minute)

	require.Len(t, room.Code, 5)
	for _, ch := range room.Code {
		assert.Contains(t, roomCodeAlphabet, string(ch))
	}
	got, ok := s.Get(room.Code)
	require.True(t, ok)
	assert.Same(t, room, got)

	alice, bob := uuid.New(), uuid.New()
	require.NoError(t, room.Join(alice, "alice", dummyConn()))
	require.NoError(t, room.Join(bob, "bob", dummyConn()))

	require.NoError(t, room.Leave(alice))
	require.NoError(t, room.Leave(bob))

	_, ok = s.Get(room.Code)
	assert.False(t, ok, "empty rooms are pruned from the registry")
	assert.Equal(t, 0, s.Len())
}

func TestRoomStoreCodesUnique(t *testing.T) {
	s := NewRoomStore()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := s.Create(time.Minute)
		require.False(t, seen[room.Code])
		seen[room.Code] = true
	}
	assert.Equal(t, 50, s.Len())
}

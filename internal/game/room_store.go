package game

import (
	"math/rand"
	"sync"
	"time"
)

// roomCodeAlphabet omits easily-confused characters (I, O, 0, 1).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 5

// RoomStore is the process-wide room registry: populated on create, pruned
// when a room's last seat is permanently gone. There is no other global room
// state.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create registers a new Waiting room under a fresh unique code.
func (s *RoomStore) Create(gracePeriod time.Duration) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newCode()
	for _, taken := s.rooms[code]; taken; _, taken = s.rooms[code] {
		code = s.newCode()
	}

	room := NewRoom(code, gracePeriod)
	room.OnEmpty = func() { s.Remove(code) }
	s.rooms[code] = room
	return room
}

// Get looks a room up by code.
func (s *RoomStore) Get(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	return r, ok
}

// Remove prunes a room from the registry. Safe to call for a code that is
// already gone.
func (s *RoomStore) Remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Len reports how many rooms are live.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *RoomStore) newCode() string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[s.rng.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}

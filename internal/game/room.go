package game

import (
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/parkerc/unoroom/internal/models"
)

// Status is a room's lifecycle state. Waiting -> Playing -> Finished, terminal.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// HandSize is the number of cards dealt to each seat at game start.
const HandSize = 7

// MaxSeats is fixed: rooms host exactly two players.
const MaxSeats = 2

// OnGameEndFunc receives the winner when a room finishes, whether by emptying
// a hand or by forfeiture. Invoked off the room lock, fire-and-forget.
type OnGameEndFunc func(winnerID uuid.UUID, winnerName string, forfeit bool)

// Room holds the entire state of one two-player session. Mu serializes every
// mutating operation: player actions, joins, disconnects and grace-timer
// firings all take the lock, so each observes and leaves a consistent
// snapshot. Rooms are independent of each other; only the registry that owns
// them is shared.
type Room struct {
	Code    string
	Status  Status
	Players []*models.Player // seat order; at most MaxSeats entries
	Deck    []*models.Card
	Discard []*models.Card

	CurrentColor models.Color
	TurnIndex    int
	TurnHasDrawn bool
	LastEvent    *Event
	WinnerID     uuid.UUID
	WinnerName   string

	// expectedCards tracks the total card count the integrity check asserts.
	// It starts at DeckSize and grows only on the degenerate deck rebuild.
	expectedCards int

	// Corrupted is set when the integrity check fails; the room performs no
	// further rule mutations afterwards.
	Corrupted bool

	// GracePeriod bounds how long a disconnected seat is preserved before
	// forfeiture.
	GracePeriod time.Duration

	// BroadcastFn delivers per-seat views; set once by the transport layer.
	// Called with the room lock held, so it must not re-enter the room and
	// must do its I/O asynchronously.
	BroadcastFn func(views []PlayerView)

	// OnGameEnd is invoked once when the room reaches Finished with a winner.
	OnGameEnd OnGameEndFunc

	// OnEmpty is invoked after the last seat is permanently removed, so the
	// registry can prune the room.
	OnEmpty func()

	Mu sync.Mutex
}

// NewRoom builds an empty Waiting room. The deck is dealt lazily at game
// start so a room that never fills holds no cards.
func NewRoom(code string, gracePeriod time.Duration) *Room {
	return &Room{
		Code:          code,
		Status:        StatusWaiting,
		GracePeriod:   gracePeriod,
		expectedCards: DeckSize,
	}
}

// seat returns the player entry and seat index for an identity, or (nil, -1).
// Assumes lock held.
func (r *Room) seat(playerID uuid.UUID) (*models.Player, int) {
	for i, p := range r.Players {
		if p.ID == playerID {
			return p, i
		}
	}
	return nil, -1
}

// opponentIndex is the other seat in a two-player room. Assumes lock held and
// both seats present.
func (r *Room) opponentIndex(i int) int { return 1 - i }

// Join seats a new identity, or re-attaches an already-seated identity (a
// rejoin never re-deals). The game starts the moment two distinct identities
// are both connected.
func (r *Room) Join(playerID uuid.UUID, username string, conn *websocket.Conn) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if p, _ := r.seat(playerID); p != nil {
		r.attach(p, conn)
		r.broadcastState()
		return nil
	}

	if r.Status != StatusWaiting {
		return ErrGameNotActive
	}
	if len(r.Players) >= MaxSeats {
		return ErrRoomFull
	}

	p := &models.Player{
		ID:        playerID,
		Username:  username,
		Connected: true,
		Conn:      conn,
	}
	r.Players = append(r.Players, p)
	r.LastEvent = &Event{Type: EventJoined, Actor: username}

	if len(r.Players) == MaxSeats && r.connectedCount() == MaxSeats {
		r.startGame()
	}
	r.broadcastState()
	return nil
}

// Reconnect re-attaches a previously-seated identity and cancels its pending
// forfeiture timer. Unknown identities are rejected; reconnecting does not
// grant a seat.
func (r *Room) Reconnect(playerID uuid.UUID, conn *websocket.Conn) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, _ := r.seat(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	r.attach(p, conn)
	r.broadcastState()
	return nil
}

// attach updates a seat's connection handle in place and cancels any grace
// timer. Starts the game if the second seat just came online. Assumes lock held.
func (r *Room) attach(p *models.Player, conn *websocket.Conn) {
	stopGraceTimer(p)
	p.Conn = conn
	p.Connected = true
	if r.Status == StatusWaiting && len(r.Players) == MaxSeats && r.connectedCount() == MaxSeats {
		r.startGame()
	}
}

// HandleDisconnect marks a seat disconnected and starts its grace-period
// timer. Hand and turn state are preserved; only the timer firing (or an
// explicit leave) removes the player. conn is the socket that closed: a seat
// that has already re-attached on a newer socket is left alone, so a stale
// close can never take a live seat offline.
func (r *Room) HandleDisconnect(playerID uuid.UUID, conn *websocket.Conn) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, _ := r.seat(playerID)
	if p == nil || !p.Connected {
		return
	}
	if p.Conn != conn {
		return
	}
	p.Connected = false
	p.Conn = nil

	if r.Status == StatusFinished {
		// Nothing left to forfeit; the seat is gone for good.
		r.removeSeat(playerID)
		r.broadcastState()
		return
	}

	stopGraceTimer(p)
	p.GraceTimer = time.AfterFunc(r.GracePeriod, func() {
		r.graceExpired(playerID)
	})
	r.broadcastState()
}

// graceExpired fires when a disconnected seat's grace period lapses. A
// reconnect that was processed first wins: the timer finds the seat connected
// and does nothing. A fired timer that reached the lock first wins the
// opposite race; the late reconnect then finds the room Finished.
func (r *Room) graceExpired(playerID uuid.UUID) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, _ := r.seat(playerID)
	if p == nil || p.Connected {
		return
	}
	p.GraceTimer = nil
	r.removeSeat(playerID)
	r.broadcastState()
}

// Leave removes an identity immediately, with the same consequences as a
// grace-timer expiry but no grace period.
func (r *Room) Leave(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, _ := r.seat(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	stopGraceTimer(p)
	r.removeSeat(playerID)
	r.broadcastState()
	return nil
}

// removeSeat permanently deletes a player entry. If the room was Playing, the
// remaining seat wins by forfeiture. When the last seat goes, the room asks
// its registry to destroy it. Assumes lock held.
func (r *Room) removeSeat(playerID uuid.UUID) {
	p, idx := r.seat(playerID)
	if p == nil {
		return
	}

	if r.Status == StatusPlaying {
		winner := r.Players[r.opponentIndex(idx)]
		r.finish(winner, true)
	}

	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	if r.TurnIndex >= len(r.Players) {
		r.TurnIndex = 0
	}
	if r.LastEvent == nil || r.LastEvent.Type != EventGameOver {
		r.LastEvent = &Event{Type: EventLeft, Actor: p.Username}
	}

	if len(r.Players) == 0 && r.OnEmpty != nil {
		r.OnEmpty()
	}
}

// startGame deals both hands and reveals the opening card. The opening draw
// is re-rolled until a colored number card comes up: the offending card goes
// back into the deck, which is reshuffled before the next attempt. Assumes
// lock held.
func (r *Room) startGame() {
	r.Status = StatusPlaying
	r.WinnerID = uuid.Nil
	r.WinnerName = ""
	r.TurnIndex = 0
	r.TurnHasDrawn = false
	r.expectedCards = DeckSize

	r.Deck = NewDeck()
	shuffleCards(r.Deck)
	r.Discard = nil

	for _, p := range r.Players {
		p.Hand = make([]*models.Card, 0, HandSize)
		p.DeclaredUno = false
	}
	for i := 0; i < HandSize; i++ {
		for _, p := range r.Players {
			p.Hand = append(p.Hand, r.drawOne())
		}
	}

	top := r.drawOne()
	for top.Kind != models.KindNumber {
		r.Deck = append(r.Deck, top)
		shuffleCards(r.Deck)
		top = r.drawOne()
	}
	r.Discard = []*models.Card{top}
	r.CurrentColor = top.Color
	r.LastEvent = &Event{Type: EventShuffled}

	r.verifyCardCount()
}

// finish moves the room to its terminal state. Winning takes priority over
// any queued effect; no rule mutation happens afterwards. Assumes lock held.
func (r *Room) finish(winner *models.Player, forfeit bool) {
	if r.Status == StatusFinished {
		return
	}
	r.Status = StatusFinished
	r.WinnerID = winner.ID
	r.WinnerName = winner.Username
	r.TurnHasDrawn = false
	r.LastEvent = &Event{Type: EventGameOver, Actor: winner.Username}

	if r.OnGameEnd != nil {
		go r.OnGameEnd(winner.ID, winner.Username, forfeit)
	}
}

// connectedCount returns how many seats currently hold an open connection.
// Assumes lock held.
func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// verifyCardCount asserts that every card is accounted for across deck,
// discard and hands. A mismatch is fatal for this room only: it is terminated
// and both seats see the final state, rather than silently playing on with a
// corrupted card count. Assumes lock held.
func (r *Room) verifyCardCount() {
	if r.Status != StatusPlaying {
		return
	}
	total := len(r.Deck) + len(r.Discard)
	for _, p := range r.Players {
		total += len(p.Hand)
	}
	if total != r.expectedCards {
		log.Printf("room %s: card count mismatch (have %d, want %d), terminating room", r.Code, total, r.expectedCards)
		r.Corrupted = true
		r.Status = StatusFinished
		r.LastEvent = &Event{Type: EventGameOver}
	}
}

// stopGraceTimer cancels a seat's pending forfeiture timer, if any. The timer
// can only be stopped under the room lock, so a cancel and a firing resolve
// deterministically.
func stopGraceTimer(p *models.Player) {
	if p.GraceTimer != nil {
		p.GraceTimer.Stop()
		p.GraceTimer = nil
	}
}

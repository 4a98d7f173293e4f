package models

import (
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Player is one seat in a room. Conn is nil while the player is disconnected;
// GraceTimer is the pending forfeiture timer for a disconnected seat, owned
// and cancelled by the room's session logic.
type Player struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Hand        []*Card   `json:"hand"`
	Connected   bool      `json:"connected"`
	DeclaredUno bool      `json:"declaredUno"`

	Conn       *websocket.Conn `json:"-"`
	GraceTimer *time.Timer     `json:"-"`
}

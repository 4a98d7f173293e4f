package game

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/parkerc/unoroom/internal/models"
)

// SeatSummary is what one seat is allowed to know about another: hand size,
// never hand contents.
type SeatSummary struct {
	Username  string `json:"username"`
	Cards     int    `json:"cards"`
	Connected bool   `json:"connected"`
}

// PlayerView is the sanitized snapshot delivered to one connected seat after
// every state-changing operation. Each view is full and self-consistent; there
// is no incremental diffing. The recipient's own hand is the only hand whose
// card identities appear.
type PlayerView struct {
	Type          string         `json:"type"`
	Code          string         `json:"code"`
	Status        Status         `json:"status"`
	You           string         `json:"you"`
	YourHand      []*models.Card `json:"yourHand"`
	Players       []SeatSummary  `json:"players"`
	TopCard       *models.Card   `json:"topCard,omitempty"`
	DrawPile      int            `json:"drawPile"`
	CurrentColor  models.Color   `json:"currentColor,omitempty"`
	CurrentPlayer string         `json:"currentPlayer,omitempty"`
	TurnHasDrawn  bool           `json:"turnHasDrawn"`
	Winner        string         `json:"winner,omitempty"`
	LastEvent     *Event         `json:"lastEvent,omitempty"`

	// Routing only; never serialized.
	PlayerID uuid.UUID       `json:"-"`
	Conn     *websocket.Conn `json:"-"`
}

// buildViews projects one view per connected seat. Assumes lock held.
func (r *Room) buildViews() []PlayerView {
	var top *models.Card
	if len(r.Discard) > 0 {
		top = r.Discard[len(r.Discard)-1]
	}

	seats := make([]SeatSummary, len(r.Players))
	for i, p := range r.Players {
		seats[i] = SeatSummary{
			Username:  p.Username,
			Cards:     len(p.Hand),
			Connected: p.Connected,
		}
	}

	var current string
	if r.Status == StatusPlaying && r.TurnIndex < len(r.Players) {
		current = r.Players[r.TurnIndex].Username
	}

	views := make([]PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Connected || p.Conn == nil {
			continue
		}
		hand := make([]*models.Card, len(p.Hand))
		copy(hand, p.Hand)
		views = append(views, PlayerView{
			Type:          "state",
			Code:          r.Code,
			Status:        r.Status,
			You:           p.Username,
			YourHand:      hand,
			Players:       seats,
			TopCard:       top,
			DrawPile:      len(r.Deck),
			CurrentColor:  r.CurrentColor,
			CurrentPlayer: current,
			TurnHasDrawn:  r.TurnHasDrawn,
			Winner:        r.WinnerName,
			LastEvent:     r.LastEvent,
			PlayerID:      p.ID,
			Conn:          p.Conn,
		})
	}
	return views
}

// broadcastState hands the fresh per-seat views to the transport layer.
// Assumes lock held; the transport writes asynchronously.
func (r *Room) broadcastState() {
	if r.BroadcastFn == nil {
		return
	}
	r.BroadcastFn(r.buildViews())
}

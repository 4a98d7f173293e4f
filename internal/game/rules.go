package game

import (
	"github.com/google/uuid"

	"github.com/parkerc/unoroom/internal/models"
)

// canPlay implements the legality check against the current discard top:
// wild-type cards always play; otherwise the card must match the current
// color, match a number top's face value with its own number value, or match
// a non-number top's kind (skip on skip, draw-two on draw-two, and so on).
// The opening discard is a number card by construction, so the value/kind
// branches apply uniformly for the whole game. Assumes lock held.
func (r *Room) canPlay(card *models.Card) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == r.CurrentColor {
		return true
	}
	top := r.Discard[len(r.Discard)-1]
	if top.Kind == models.KindNumber {
		return card.Kind == models.KindNumber && card.Value == top.Value
	}
	return card.Kind == top.Kind
}

// PlayCard plays one card instance out of the acting player's hand.
//
// On success the card moves to the discard, the color context updates (the
// chosen color for wild types), the acting player's UNO declaration resets,
// and the kind-specific effect applies. In a two-player room Skip and Reverse
// are equivalent: the opponent's ply is skipped, so the turn stays with the
// acting player, as it does after DrawTwo and WildDrawFour force the opponent
// to draw. An emptied hand wins immediately and suppresses every queued
// effect. Reaching exactly one card without a prior UNO call (made while
// holding two) costs a two-card penalty on the spot.
func (r *Room) PlayCard(playerID uuid.UUID, cardID uuid.UUID, chosenColor models.Color) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying || r.Corrupted {
		return ErrGameNotActive
	}
	p, idx := r.seat(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	if idx != r.TurnIndex {
		return ErrNotYourTurn
	}

	card, handIdx := findCard(p.Hand, cardID)
	if card == nil {
		return ErrCardNotFound
	}
	if !r.canPlay(card) {
		return ErrIllegalCard
	}
	if card.IsWild() && !chosenColor.Concrete() {
		// Never substitute a default color silently.
		return ErrColorRequired
	}

	hadDeclared := p.DeclaredUno && len(p.Hand) == 2

	p.Hand = append(p.Hand[:handIdx], p.Hand[handIdx+1:]...)
	p.DeclaredUno = false
	r.Discard = append(r.Discard, card)
	if card.IsWild() {
		r.CurrentColor = chosenColor
	} else {
		r.CurrentColor = card.Color
	}
	r.TurnHasDrawn = false
	opp := r.Players[r.opponentIndex(idx)]
	r.LastEvent = playEvent(card, p.Username, opp.Username, r.CurrentColor)

	if len(p.Hand) == 0 {
		r.finish(p, false)
		r.broadcastState()
		return nil
	}

	if len(p.Hand) == 1 && !hadDeclared {
		r.drawMany(p, 2)
		r.LastEvent = &Event{Type: EventUnoPenalty, Actor: p.Username, Target: p.Username}
	}

	switch card.Kind {
	case models.KindSkip, models.KindReverse:
		// Two-player: the acting player goes again.
	case models.KindDrawTwo:
		r.drawMany(opp, 2)
	case models.KindWildDrawFour:
		r.drawMany(opp, 4)
	default:
		r.TurnIndex = r.opponentIndex(idx)
	}

	r.verifyCardCount()
	r.broadcastState()
	return nil
}

// DrawCard moves one card from the deck into the acting player's hand. A seat
// may draw once per turn; if the refreshed hand still holds no legal card the
// turn auto-advances, so a player is never stuck with no legal move and no
// pass action.
func (r *Room) DrawCard(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying || r.Corrupted {
		return ErrGameNotActive
	}
	p, idx := r.seat(playerID)
	if p == nil {
		return ErrNotInRoom
	}
	if idx != r.TurnIndex {
		return ErrNotYourTurn
	}
	if r.TurnHasDrawn {
		return ErrAlreadyDrawn
	}

	r.drawMany(p, 1)
	r.TurnHasDrawn = true
	r.LastEvent = &Event{Type: EventDraw, Actor: p.Username}

	if !r.handHasLegalPlay(p) {
		r.TurnIndex = r.opponentIndex(idx)
		r.TurnHasDrawn = false
	}

	r.verifyCardCount()
	r.broadcastState()
	return nil
}

// CallUno records a declaration while holding one or two cards. A premature
// call is silently ignored: it has no effect and carries no penalty. The
// declaration is invalidated the next time the hand size changes.
func (r *Room) CallUno(playerID uuid.UUID) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.Status != StatusPlaying || r.Corrupted {
		return
	}
	p, _ := r.seat(playerID)
	if p == nil || len(p.Hand) > 2 {
		return
	}
	p.DeclaredUno = true
	r.LastEvent = &Event{Type: EventUnoCalled, Actor: p.Username}
	r.broadcastState()
}

// handHasLegalPlay reports whether any card in the hand is playable right
// now. Assumes lock held.
func (r *Room) handHasLegalPlay(p *models.Player) bool {
	for _, c := range p.Hand {
		if r.canPlay(c) {
			return true
		}
	}
	return false
}

func findCard(hand []*models.Card, cardID uuid.UUID) (*models.Card, int) {
	for i, c := range hand {
		if c.ID == cardID {
			return c, i
		}
	}
	return nil, -1
}

// playEvent maps a played card to its event tag. Wild and number plays share
// the plain Play tag; the color carries the wild's chosen color, and forced
// draws name the seat that draws in Target.
func playEvent(card *models.Card, actor, opponent string, color models.Color) *Event {
	ev := &Event{Actor: actor, Card: card, Color: color}
	switch card.Kind {
	case models.KindSkip:
		ev.Type = EventSkip
	case models.KindReverse:
		ev.Type = EventReverse
	case models.KindDrawTwo:
		ev.Type = EventDrawTwo
		ev.Target = opponent
	case models.KindWildDrawFour:
		ev.Type = EventWildDrawFour
		ev.Target = opponent
	default:
		ev.Type = EventPlay
	}
	return ev
}

package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/parkerc/unoroom/internal/models"
)

// DeckSize is the size of the standard card set: per color one 0, two each of
// 1-9, two each of skip/reverse/draw-two, plus four wilds and four wild-draw-fours.
const DeckSize = 108

// NewDeck builds the canonical 108-card set with fresh instance identifiers.
// Identifiers are never reused across a process lifetime, so a card remains
// unambiguous even after reshuffles mix old discards back into the deck.
func NewDeck() []*models.Card {
	deck := make([]*models.Card, 0, DeckSize)

	number := func(color models.Color, value int) *models.Card {
		return &models.Card{ID: uuid.New(), Color: color, Kind: models.KindNumber, Value: value}
	}
	action := func(color models.Color, kind models.Kind) *models.Card {
		return &models.Card{ID: uuid.New(), Color: color, Kind: kind, Value: -1}
	}

	for _, color := range models.Colors {
		deck = append(deck, number(color, 0))
		for v := 1; v <= 9; v++ {
			deck = append(deck, number(color, v), number(color, v))
		}
		for i := 0; i < 2; i++ {
			deck = append(deck,
				action(color, models.KindSkip),
				action(color, models.KindReverse),
				action(color, models.KindDrawTwo),
			)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck,
			action(models.ColorNone, models.KindWild),
			action(models.ColorNone, models.KindWildDrawFour),
		)
	}
	return deck
}

// shuffleCards permutes cards in place with a uniform Fisher-Yates shuffle.
func shuffleCards(cards []*models.Card) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// drawOne pops one card from the deck, reshuffling the discard pile (minus its
// top card) back into the deck when the deck runs dry. In the degenerate case
// where the discard held at most one card, a brand-new full set is built so the
// draw still succeeds; the room's expected card count is bumped to keep the
// integrity check exact. Assumes the room lock is held.
func (r *Room) drawOne() *models.Card {
	if len(r.Deck) == 0 {
		if len(r.Discard) > 1 {
			top := r.Discard[len(r.Discard)-1]
			rest := make([]*models.Card, len(r.Discard)-1)
			copy(rest, r.Discard[:len(r.Discard)-1])
			shuffleCards(rest)
			r.Deck = rest
			r.Discard = []*models.Card{top}
		} else {
			r.Deck = NewDeck()
			shuffleCards(r.Deck)
			r.expectedCards += DeckSize
		}
		r.LastEvent = &Event{Type: EventShuffled}
	}

	card := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	return card
}

// drawMany moves n cards from the deck into the player's hand. The UNO flag is
// invalidated because the hand size changed.
func (r *Room) drawMany(p *models.Player, n int) {
	for i := 0; i < n; i++ {
		p.Hand = append(p.Hand, r.drawOne())
	}
	p.DeclaredUno = false
}

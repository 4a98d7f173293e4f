package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkerc/unoroom/internal/models"
)

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	type face struct {
		color models.Color
		kind  models.Kind
		value int
	}
	counts := make(map[face]int)
	for _, c := range deck {
		counts[face{c.Color, c.Kind, c.Value}]++
	}

	for _, color := range models.Colors {
		assert.Equal(t, 1, counts[face{color, models.KindNumber, 0}], "one zero per color")
		for v := 1; v <= 9; v++ {
			assert.Equal(t, 2, counts[face{color, models.KindNumber, v}], "two %d per color", v)
		}
		assert.Equal(t, 2, counts[face{color, models.KindSkip, -1}])
		assert.Equal(t, 2, counts[face{color, models.KindReverse, -1}])
		assert.Equal(t, 2, counts[face{color, models.KindDrawTwo, -1}])
	}
	assert.Equal(t, 4, counts[face{models.ColorNone, models.KindWild, -1}])
	assert.Equal(t, 4, counts[face{models.ColorNone, models.KindWildDrawFour, -1}])
}

func TestNewDeckUniqueIDs(t *testing.T) {
	seen := make(map[uuid.UUID]bool)
	// Two decks in one process must not share instance IDs either.
	for _, deck := range [][]*models.Card{NewDeck(), NewDeck()} {
		for _, c := range deck {
			require.False(t, seen[c.ID], "duplicate card id %s", c.ID)
			seen[c.ID] = true
		}
	}
}

func TestShuffleKeepsMultiset(t *testing.T) {
	deck := NewDeck()
	before := make(map[uuid.UUID]bool, len(deck))
	for _, c := range deck {
		before[c.ID] = true
	}

	shuffleCards(deck)

	require.Len(t, deck, DeckSize)
	for _, c := range deck {
		assert.True(t, before[c.ID], "shuffle introduced card %s", c.ID)
	}
}

func TestDrawOneReshufflesDiscard(t *testing.T) {
	r := NewRoom("TEST1", time.Minute)
	r.Status = StatusPlaying

	var discard []*models.Card
	for v := 0; v < 5; v++ {
		discard = append(discard, &models.Card{ID: uuid.New(), Color: models.ColorRed, Kind: models.KindNumber, Value: v})
	}
	top := discard[len(discard)-1]
	r.Deck = nil
	r.Discard = discard
	r.expectedCards = 5

	drawn := r.drawOne()

	require.NotNil(t, drawn)
	assert.NotEqual(t, top.ID, drawn.ID, "the exposed top card never re-enters the deck")
	assert.Len(t, r.Discard, 1)
	assert.Equal(t, top.ID, r.Discard[0].ID)
	assert.Len(t, r.Deck, 3)
	assert.Equal(t, 5, r.expectedCards, "reshuffle adds no cards")
	require.NotNil(t, r.LastEvent)
	assert.Equal(t, EventShuffled, r.LastEvent.Type)
}

func TestDrawOneRebuildsWhenDegenerate(t *testing.T) {
	r := NewRoom("TEST1", time.Minute)
	r.Status = StatusPlaying
	top := &models.Card{ID: uuid.New(), Color: models.ColorBlue, Kind: models.KindNumber, Value: 7}
	r.Deck = nil
	r.Discard = []*models.Card{top}
	r.expectedCards = 1

	drawn := r.drawOne()

	require.NotNil(t, drawn)
	assert.Len(t, r.Deck, DeckSize-1)
	assert.Len(t, r.Discard, 1)
	assert.Equal(t, top.ID, r.Discard[0].ID)
	assert.Equal(t, 1+DeckSize, r.expectedCards, "rebuild grows the accounted total")
}

func TestDrawManyClearsDeclaration(t *testing.T) {
	r := NewRoom("TEST1", time.Minute)
	r.Status = StatusPlaying
	r.Deck = NewDeck()
	r.expectedCards = DeckSize

	p := &models.Player{ID: uuid.New(), Username: "alice", DeclaredUno: true}
	r.drawMany(p, 2)

	assert.Len(t, p.Hand, 2)
	assert.False(t, p.DeclaredUno, "hand size changed, declaration is stale")
}

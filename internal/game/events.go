package game

import "github.com/parkerc/unoroom/internal/models"

// EventType tags the last state-changing action in a room.
type EventType string

const (
	EventPlay         EventType = "play"
	EventDraw         EventType = "draw"
	EventSkip         EventType = "skip"
	EventReverse      EventType = "reverse"
	EventDrawTwo      EventType = "draw2"
	EventWildDrawFour EventType = "draw4"
	EventUnoCalled    EventType = "uno"
	EventUnoPenalty   EventType = "uno_penalty"
	EventGameOver     EventType = "game_over"
	EventJoined       EventType = "joined"
	EventLeft         EventType = "left"
	EventShuffled     EventType = "shuffled"
)

// Event is the redacted summary of the most recent action. Card is only ever
// the card the actor just revealed by playing it; hidden hand contents never
// pass through an Event. Target names the seat forced to draw, when any.
type Event struct {
	Type   EventType    `json:"type"`
	Actor  string       `json:"actor,omitempty"`
	Target string       `json:"target,omitempty"`
	Card   *models.Card `json:"card,omitempty"`
	Color  models.Color `json:"color,omitempty"`
}

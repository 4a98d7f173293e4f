package game

// RuleError is a player-visible error with a stable wire code. Rule errors are
// returned to the acting player only; they never mutate room state and are
// never broadcast to the opponent.
type RuleError struct {
	Code string
	msg  string
}

func (e *RuleError) Error() string { return e.msg }

var (
	ErrUnauthorized  = &RuleError{"unauthorized", "credential is missing or invalid"}
	ErrRoomNotFound  = &RuleError{"room_not_found", "room not found"}
	ErrRoomFull      = &RuleError{"room_full", "room is full"}
	ErrNotInRoom     = &RuleError{"not_in_room", "you are not seated in this room"}
	ErrGameNotActive = &RuleError{"game_not_active", "game is not active"}
	ErrNotYourTurn   = &RuleError{"not_your_turn", "it is not your turn"}
	ErrCardNotFound  = &RuleError{"card_not_found", "card is not in your hand"}
	ErrIllegalCard   = &RuleError{"illegal_card", "card cannot be played on the current discard"}
	ErrColorRequired = &RuleError{"color_required", "a wild card needs a chosen color"}
	ErrAlreadyDrawn  = &RuleError{"already_drawn", "you already drew a card this turn"}
	ErrMalformed     = &RuleError{"malformed_payload", "message is missing required fields"}

	// ErrDeckExhausted marks the unrecoverable state where every card outside
	// the single discard top is held in hands. It is an internal invariant
	// violation, not a condition reachable under normal play.
	ErrDeckExhausted = &RuleError{"deck_exhausted", "no cards left to draw"}
)

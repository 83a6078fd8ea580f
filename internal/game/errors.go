package game

import (
	"errors"
	"fmt"
)

// Client error codes. These surface to the caller unchanged; transports map
// them to HTTP statuses or error envelopes.
const (
	CodeRoomNotFound      = "room_not_found"
	CodeRoomFull          = "room_full"
	CodeRoomNotAccepting  = "room_not_accepting"
	CodeRoomFinished      = "room_finished"
	CodeRoomDegraded      = "room_degraded"
	CodeAlreadyJoined     = "already_joined"
	CodeNotSeated         = "not_seated"
	CodeNotCreator        = "not_creator"
	CodeNeedPlayers       = "need_players"
	CodeHandInProgress    = "hand_in_progress"
	CodeWrongPhase        = "wrong_phase"
	CodeNotYourTurn       = "not_your_turn"
	CodeIllegalAction     = "illegal_action"
	CodeCannotCheck       = "cannot_check"
	CodeBetBelowMinimum   = "bet_below_minimum"
	CodeBetAboveMaximum   = "bet_above_maximum"
	CodeRaiseBelowMinimum = "raise_below_minimum"
	CodeInsufficientChips = "insufficient_chips"
)

// RuleError is a precondition violation by the caller. State is unchanged
// when one is returned, and it is not logged as a server error.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func ruleErrf(code, format string, args ...any) *RuleError {
	return &RuleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRuleError unwraps err as a RuleError if it is one.
func AsRuleError(err error) (*RuleError, bool) {
	var re *RuleError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrInvariant wraps a detected internal inconsistency. Fatal for the room:
// the coordinator quarantines it and preserves the last good snapshot.
var ErrInvariant = errors.New("game: invariant violation")

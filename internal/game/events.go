package game

import (
	"time"

	"github.com/pokerroom/holdem/internal/poker"
)

// EventType identifies an outbound event emitted by the state machine.
type EventType string

const (
	EventHandStarted   EventType = "handStarted"
	EventActionApplied EventType = "actionApplied"
	EventPhaseAdvanced EventType = "phaseAdvanced"
	EventShowdown      EventType = "showdown"
	EventHandEnded     EventType = "handEnded"
	EventWaiting       EventType = "waitingForPlayers"

	// Presence and prompt events are synthesized by the coordinator, not
	// the state machine, but share the event vocabulary.
	EventActionRequired     EventType = "actionRequired"
	EventPlayerJoined       EventType = "playerJoined"
	EventPlayerLeft         EventType = "playerLeft"
	EventPlayerDisconnected EventType = "playerDisconnected"
	EventPlayerReconnected  EventType = "playerReconnected"
	EventRoomEnded          EventType = "roomEnded"
	EventRoomDegraded       EventType = "roomDegraded"
)

// Payout records chips awarded to one seat at hand end.
type Payout struct {
	Seat     int            `json:"seat"`
	PlayerID string         `json:"playerId"`
	Amount   int            `json:"amount"`
	Category poker.Category `json:"-"`
	Hand     string         `json:"hand,omitempty"` // category name, showdown only
}

// BlindPost records a forced blind at hand start.
type BlindPost struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Kind     string `json:"kind"` // "small" or "big"
	Amount   int    `json:"amount"`
}

// Reveal is one seat's hole cards shown at showdown.
type Reveal struct {
	Seat     int          `json:"seat"`
	PlayerID string       `json:"playerId"`
	Cards    []poker.Card `json:"cards"`
	Hand     string       `json:"hand"` // category name
}

// Event is one outbound event from applying a single input. The coordinator
// pairs every event with the snapshot taken after the whole input settled.
type Event struct {
	Type       EventType   `json:"type"`
	Seat       int         `json:"seat,omitempty"`
	PlayerID   string      `json:"playerId,omitempty"`
	Action     ActionKind  `json:"-"`
	ActionName string      `json:"action,omitempty"`
	Amount     int         `json:"amount,omitempty"` // chips moved by the action
	Auto       bool        `json:"auto,omitempty"`   // fold injected by timeout or disconnect
	Phase      Phase       `json:"phase,omitempty"`
	Posts      []BlindPost `json:"posts,omitempty"`
	Reveals    []Reveal    `json:"reveals,omitempty"`
	Payouts    []Payout    `json:"payouts,omitempty"`

	// actionRequired only.
	Options  []ActionOption `json:"options,omitempty"`
	Deadline time.Time      `json:"deadline,omitzero"`
}

func actionEvent(seat int, playerID string, kind ActionKind, amount int, auto bool) Event {
	return Event{
		Type:       EventActionApplied,
		Seat:       seat,
		PlayerID:   playerID,
		Action:     kind,
		ActionName: kind.String(),
		Amount:     amount,
		Auto:       auto,
	}
}

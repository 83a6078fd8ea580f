package game

import (
	"time"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"  // accepting players, no hand yet
	StatusPlaying  Status = "playing"  // play has started
	StatusFinished Status = "finished" // terminal
)

// Config carries the creator's room parameters.
type Config struct {
	Name      string `json:"name"`
	SeatLimit int    `json:"seatLimit"`
	MinBet    int    `json:"minBet"` // the big blind; small blind is half
	MaxBet    int    `json:"maxBet"` // 0 means no cap
	BuyIn     int    `json:"buyIn"`  // starting chips per seat
}

// Defaults applied when the creator omits a field.
const (
	DefaultSeatLimit = 6
	MaxSeatLimit     = 10
	DefaultMinBet    = 10
)

// Normalize fills defaults and validates the config.
func (c *Config) Normalize() error {
	if c.SeatLimit == 0 {
		c.SeatLimit = DefaultSeatLimit
	}
	if c.MinBet == 0 {
		c.MinBet = DefaultMinBet
	}
	if c.BuyIn == 0 {
		c.BuyIn = 100 * c.MinBet
	}
	switch {
	case c.Name == "":
		return ruleErrf(CodeIllegalAction, "room name is required")
	case c.SeatLimit < 2 || c.SeatLimit > MaxSeatLimit:
		return ruleErrf(CodeIllegalAction, "seat limit must be between 2 and %d", MaxSeatLimit)
	case c.MinBet < 2 || c.MinBet%2 != 0:
		return ruleErrf(CodeIllegalAction, "minimum bet must be a positive even number")
	case c.MaxBet != 0 && c.MaxBet < c.MinBet:
		return ruleErrf(CodeIllegalAction, "maximum bet must be at least the minimum bet")
	case c.BuyIn < c.MinBet:
		return ruleErrf(CodeIllegalAction, "buy-in must cover at least the big blind")
	}
	return nil
}

// Room is the full authoritative state of one table. All methods assume the
// caller serializes access; the coordinator owns that.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Creator   string    `json:"creator"` // player ID
	Status    Status    `json:"status"`
	SeatLimit int       `json:"seatLimit"`
	MinBet    int       `json:"minBet"`
	MaxBet    int       `json:"maxBet"`
	BuyIn     int       `json:"buyIn"`
	Seats     []*Seat   `json:"seats"`
	Dealer    int       `json:"dealer"` // dealer cursor; -1 before the first hand
	Hand      *Hand     `json:"hand,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRoom creates a waiting room with the creator already seated.
func NewRoom(id, creatorID, creatorName string, cfg Config, now time.Time) (*Room, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	r := &Room{
		ID:        id,
		Name:      cfg.Name,
		Creator:   creatorID,
		Status:    StatusWaiting,
		SeatLimit: cfg.SeatLimit,
		MinBet:    cfg.MinBet,
		MaxBet:    cfg.MaxBet,
		BuyIn:     cfg.BuyIn,
		Dealer:    -1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.Join(creatorID, creatorName); err != nil {
		return nil, err
	}
	return r, nil
}

// Join seats a player with the room's buy-in. Rooms only accept players
// while waiting; once play starts the roster is fixed.
func (r *Room) Join(playerID, username string) (*Seat, error) {
	switch r.Status {
	case StatusFinished:
		return nil, ruleErrf(CodeRoomFinished, "room has finished")
	case StatusPlaying:
		return nil, ruleErrf(CodeRoomNotAccepting, "room is not accepting players")
	}
	if r.SeatIndex(playerID) >= 0 {
		return nil, ruleErrf(CodeAlreadyJoined, "player already seated")
	}
	if len(r.Seats) >= r.SeatLimit {
		return nil, ruleErrf(CodeRoomFull, "room is full")
	}
	seat := &Seat{
		PlayerID:  playerID,
		Username:  username,
		Chips:     r.BuyIn,
		Connected: true,
	}
	r.Seats = append(r.Seats, seat)
	return seat, nil
}

// SeatIndex returns the player's seat index, or -1.
func (r *Room) SeatIndex(playerID string) int {
	for i, s := range r.Seats {
		if s.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// Clone deep-copies the room. Coordinators publish clones so readers never
// alias live state.
func (r *Room) Clone() *Room {
	c := *r
	c.Seats = make([]*Seat, len(r.Seats))
	for i, s := range r.Seats {
		c.Seats[i] = s.clone()
	}
	if r.Hand != nil {
		c.Hand = r.Hand.clone()
	}
	return &c
}

// chippedCount counts seats able to enter the next hand.
func (r *Room) chippedCount() int {
	n := 0
	for _, s := range r.Seats {
		if s.Chips > 0 && !s.Leaving {
			n++
		}
	}
	return n
}

// nextChipped scans clockwise starting at from (inclusive, wrapping) for a
// seat able to enter a hand. Returns -1 when none exists.
func (r *Room) nextChipped(from int) int {
	n := len(r.Seats)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		idx := ((from+i)%n + n) % n
		s := r.Seats[idx]
		if s.Chips > 0 && !s.Leaving {
			return idx
		}
	}
	return -1
}

// nextActor scans clockwise starting at from (inclusive, wrapping) for a
// seat that can still act in the current hand. Returns -1 when none exists.
func (r *Room) nextActor(from int) int {
	n := len(r.Seats)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		idx := ((from+i)%n + n) % n
		if r.Seats[idx].CanAct() {
			return idx
		}
	}
	return -1
}

package game

import "github.com/pokerroom/holdem/internal/poker"

// Seat is a stable position at a room. At most one seat per player per room.
// A disconnected player's seat is retained for the coordinator's grace
// window; the Leaving flag defers physical removal until the hand ends so
// seat indices stay stable mid-hand.
type Seat struct {
	PlayerID  string       `json:"id"`
	Username  string       `json:"username"`
	Chips     int          `json:"chips"`
	Bet       int          `json:"bet"`      // committed this betting round
	TotalBet  int          `json:"totalBet"` // committed this hand
	Hole      []poker.Card `json:"hand,omitempty"`
	Folded    bool         `json:"folded"`
	AllIn     bool         `json:"allIn"`
	Connected bool         `json:"connected"`
	Acted     bool         `json:"acted"`   // acted this betting round
	Leaving   bool         `json:"leaving"` // removed when the hand ends

	IsDealer     bool `json:"isDealer"`
	IsSmallBlind bool `json:"isSmallBlind"`
	IsBigBlind   bool `json:"isBigBlind"`
}

// InHand reports whether the seat was dealt into the current hand.
func (s *Seat) InHand() bool {
	return len(s.Hole) == 2
}

// CanAct reports whether the seat still owes decisions this hand.
func (s *Seat) CanAct() bool {
	return s.InHand() && !s.Folded && !s.AllIn
}

func (s *Seat) clone() *Seat {
	c := *s
	if s.Hole != nil {
		c.Hole = append([]poker.Card(nil), s.Hole...)
	}
	return &c
}

// resetHand clears all per-hand state.
func (s *Seat) resetHand() {
	s.Bet = 0
	s.TotalBet = 0
	s.Hole = nil
	s.Folded = false
	s.AllIn = false
	s.Acted = false
	s.IsDealer = false
	s.IsSmallBlind = false
	s.IsBigBlind = false
}

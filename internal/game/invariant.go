package game

import "fmt"

// Check verifies the room's internal consistency. The coordinator runs it
// after every mutation; a failure quarantines the room.
func (r *Room) Check() error {
	for i, s := range r.Seats {
		if s.Chips < 0 {
			return fmt.Errorf("%w: seat %d has negative chips (%d)", ErrInvariant, i, s.Chips)
		}
	}
	h := r.Hand
	if h == nil {
		return nil
	}

	totalBet := 0
	holes := 0
	for _, s := range r.Seats {
		totalBet += s.TotalBet
		holes += len(s.Hole)
	}
	if h.Pot != totalBet {
		return fmt.Errorf("%w: pot is %d, total committed is %d", ErrInvariant, h.Pot, totalBet)
	}

	wantCommunity := map[Phase]int{
		PhasePreflop: 0, PhaseFlop: 3, PhaseTurn: 4, PhaseRiver: 5, PhaseShowdown: 5,
	}
	if want, ok := wantCommunity[h.Phase]; ok && len(h.Community) != want {
		return fmt.Errorf("%w: %v has %d community cards", ErrInvariant, h.Phase, len(h.Community))
	}

	if got := h.Deck.Remaining() + h.Burns + len(h.Community) + holes; got != 52 {
		return fmt.Errorf("%w: cards do not account for a full deck (%d)", ErrInvariant, got)
	}

	if h.CurrentTurn >= 0 {
		if h.CurrentTurn >= len(r.Seats) {
			return fmt.Errorf("%w: turn seat %d out of range", ErrInvariant, h.CurrentTurn)
		}
		if !r.Seats[h.CurrentTurn].CanAct() {
			return fmt.Errorf("%w: turn on seat %d which cannot act", ErrInvariant, h.CurrentTurn)
		}
	}
	return nil
}

package game

// ActionOption is one legal action for the seat on turn, with the amount
// bounds a client may submit. Bet and raise amounts are increments, the
// same meaning Apply gives them.
type ActionOption struct {
	Action string `json:"action"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}

// LegalActions lists what the seat currently on turn may do. Advisory for
// clients; Apply revalidates every input.
func LegalActions(r *Room) []ActionOption {
	h := r.Hand
	if h == nil || !h.Phase.betting() || h.CurrentTurn < 0 {
		return nil
	}
	s := r.Seats[h.CurrentTurn]

	opts := []ActionOption{{Action: Fold.String()}}
	toCall := h.CurrentBet - s.Bet
	if toCall == 0 {
		opts = append(opts, ActionOption{Action: Check.String()})
	} else {
		opts = append(opts, ActionOption{Action: Call.String(), Min: min(toCall, s.Chips), Max: min(toCall, s.Chips)})
	}

	if h.CurrentBet == 0 && s.Chips >= r.MinBet {
		maxBet := s.Chips
		if r.MaxBet > 0 && r.MaxBet < maxBet {
			maxBet = r.MaxBet
		}
		opts = append(opts, ActionOption{Action: Bet.String(), Min: r.MinBet, Max: maxBet})
	}
	if h.CurrentBet > 0 && s.Chips > toCall {
		maxRaise := s.Chips - toCall
		if r.MaxBet > 0 && r.MaxBet < maxRaise {
			maxRaise = r.MaxBet
		}
		if maxRaise < h.MinRaise {
			// A short stack can still push the price up, but only by
			// committing everything.
			maxRaise = h.MinRaise
		}
		opts = append(opts, ActionOption{Action: Raise.String(), Min: h.MinRaise, Max: maxRaise})
	}
	if s.Chips > 0 {
		opts = append(opts, ActionOption{Action: AllIn.String(), Min: s.Chips, Max: s.Chips})
	}
	return opts
}

package game

import "sort"

// Pot is one pot at showdown. The first entry is the main pot; later
// entries are side pots created by shorter all-in stacks.
type Pot struct {
	Amount   int   `json:"amount"`
	Eligible []int `json:"eligible"` // seat indices that can win this pot
}

// SidePots splits the hand's pot by contribution level. Every chip a seat
// committed lands in exactly one pot, folded seats included; only seats
// still in the hand are eligible to win. Pots with identical eligibility
// are merged, so a hand with no all-ins yields a single pot.
func SidePots(r *Room) []Pot {
	levelSet := make(map[int]bool)
	for _, s := range r.Seats {
		if s.TotalBet > 0 {
			levelSet[s.TotalBet] = true
		}
	}
	levels := make([]int, 0, len(levelSet))
	for lvl := range levelSet {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	var pots []Pot
	prev := 0
	for _, lvl := range levels {
		pot := Pot{}
		for i, s := range r.Seats {
			c := min(s.TotalBet, lvl) - prev
			if c > 0 {
				pot.Amount += c
			}
			if s.InHand() && !s.Folded && s.TotalBet >= lvl {
				pot.Eligible = append(pot.Eligible, i)
			}
		}
		prev = lvl
		if pot.Amount == 0 {
			continue
		}
		if n := len(pots); n > 0 && equalSeats(pots[n-1].Eligible, pot.Eligible) {
			pots[n-1].Amount += pot.Amount
			continue
		}
		pots = append(pots, pot)
	}
	return pots
}

func equalSeats(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

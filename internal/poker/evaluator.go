package poker

import (
	"math/bits"
)

// Category enumerates hand categories from weakest to strongest.
type Category uint8

const (
	Incomplete Category = iota
	HighCard
	Pair
	TwoPair
	Trips
	Straight
	Flush
	FullHouse
	Quads
	StraightFlush
	RoyalFlush
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case Incomplete:
		return "Incomplete"
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case Trips:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case Quads:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Eval is the result of evaluating a hand. Score is a total ordering:
// for any two evaluations over the same board, the higher score wins and
// equal scores tie exactly when the hands tie under standard rules.
type Eval struct {
	Category Category `json:"category"`
	Score    uint32   `json:"score"`
}

// Beats reports whether e strictly beats other.
func (e Eval) Beats(other Eval) bool {
	return e.Score > other.Score
}

// score packs the category and up to five tie-break ranks (high to low)
// into nibbles so plain integer comparison implements hand comparison.
func score(cat Category, tiebreaks ...uint8) Eval {
	s := uint32(cat) << 20
	shift := 16
	for _, t := range tiebreaks {
		s |= uint32(t) << shift
		shift -= 4
	}
	return Eval{Category: cat, Score: s}
}

// Evaluate selects the best 5-card hand from 2 hole cards plus up to 5 board
// cards. With fewer than 5 cards total it returns Incomplete with score 0.
func Evaluate(hole, board []Card) Eval {
	if len(hole)+len(board) < 5 {
		return Eval{Category: Incomplete, Score: 0}
	}

	var set CardSet
	for _, c := range hole {
		set.Add(c)
	}
	for _, c := range board {
		set.Add(c)
	}
	return evaluateSet(set)
}

// EvaluateSet evaluates a pre-built card set of at least 5 cards.
func EvaluateSet(set CardSet) Eval {
	if set.Count() < 5 {
		return Eval{Category: Incomplete, Score: 0}
	}
	return evaluateSet(set)
}

func evaluateSet(set CardSet) Eval {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := uint8(0); suit < 4; suit++ {
		m := set.SuitMask(suit)
		suitMasks[suit] = m
		rankMask |= m
	}

	// At most one suit can hold five of seven cards.
	var flushMask uint16
	for _, m := range suitMasks {
		if bits.OnesCount16(m) >= 5 {
			flushMask = m
			break
		}
	}

	if flushMask != 0 {
		if high := straightHigh(flushMask); high > 0 {
			if high == Ace {
				return score(RoyalFlush, high)
			}
			return score(StraightFlush, high)
		}
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]
	quadsMask := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	tripsMask := tripCandidates &^ quadsMask
	pairsMask := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quad := highestRank(quadsMask); quad >= 0 {
		kicker := topRanks(rankMask&^(1<<quad), 1)
		return score(Quads, uint8(quad), kicker[0])
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		// A second trips or any pair completes a full house.
		pairCandidates := pairsMask | (tripsMask &^ (1 << trip))
		if pair := highestRank(pairCandidates); pair >= 0 {
			return score(FullHouse, uint8(trip), uint8(pair))
		}
	}

	if flushMask != 0 {
		top := topRanks(flushMask, 5)
		return score(Flush, top...)
	}

	if high := straightHigh(rankMask); high > 0 {
		return score(Straight, high)
	}

	if trip := highestRank(tripsMask); trip >= 0 {
		kickers := topRanks(rankMask&^(1<<trip), 2)
		return score(Trips, append([]uint8{uint8(trip)}, kickers...)...)
	}

	if hi := highestRank(pairsMask); hi >= 0 {
		if lo := highestRank(pairsMask &^ (1 << hi)); lo >= 0 {
			kicker := topRanks(rankMask&^(1<<hi)&^(1<<lo), 1)
			return score(TwoPair, uint8(hi), uint8(lo), kicker[0])
		}
		kickers := topRanks(rankMask&^(1<<hi), 3)
		return score(Pair, append([]uint8{uint8(hi)}, kickers...)...)
	}

	return score(HighCard, topRanks(rankMask, 5)...)
}

// highestRank returns the highest rank set in the mask, or -1 when empty.
func highestRank(mask uint16) int {
	if mask == 0 {
		return -1
	}
	return bits.Len16(mask) - 1
}

// topRanks returns the n highest ranks present, descending.
func topRanks(mask uint16, n int) []uint8 {
	out := make([]uint8, 0, n)
	for len(out) < n && mask != 0 {
		top := uint8(bits.Len16(mask) - 1)
		out = append(out, top)
		mask &^= 1 << top
	}
	return out
}

// straightHigh returns the high-card rank of the best straight in the rank
// mask, or 0 when there is none. The wheel (A-2-3-4-5) reports Five: it is a
// 5-high straight, never ace-high.
func straightHigh(mask uint16) uint8 {
	const wheel = 0x100F // A + 2-3-4-5
	mask &= rankMask

	// Bitwise cascade finds runs of five consecutive ranks in one pass.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		low := uint8(bits.Len16(seq) - 1)
		return low + 4
	}
	if mask&wheel == wheel {
		return Five
	}
	return 0
}

package game

import "fmt"

// Phase represents where a hand is in its deal cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreflop
	PhaseFlop
	PhaseTurn
	PhaseRiver
	PhaseShowdown
)

func (p Phase) String() string {
	return [...]string{"idle", "preflop", "flop", "turn", "river", "showdown"}[p]
}

// MarshalText encodes the phase as its lowercase name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase from its lowercase name.
func (p *Phase) UnmarshalText(text []byte) error {
	for i := PhaseIdle; i <= PhaseShowdown; i++ {
		if i.String() == string(text) {
			*p = i
			return nil
		}
	}
	return fmt.Errorf("unknown phase: %s", text)
}

// betting reports whether players act during this phase.
func (p Phase) betting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// ActionKind is the closed set of player actions.
type ActionKind int

const (
	Fold ActionKind = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (a ActionKind) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise", "all-in"}[a]
}

// ParseActionKind maps a wire action name to its kind. "allin" is accepted
// as an alias for "all-in" since clients disagree on the spelling.
func ParseActionKind(s string) (ActionKind, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "bet":
		return Bet, nil
	case "raise":
		return Raise, nil
	case "all-in", "allin":
		return AllIn, nil
	default:
		return 0, fmt.Errorf("unknown action: %q", s)
	}
}

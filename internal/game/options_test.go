package game

import (
	"testing"

	"github.com/pokerroom/holdem/internal/randutil"
)

func optionNames(opts []ActionOption) []string {
	names := make([]string, len(opts))
	for i, o := range opts {
		names[i] = o.Action
	}
	return names
}

func findOption(t *testing.T, opts []ActionOption, action string) ActionOption {
	t.Helper()
	for _, o := range opts {
		if o.Action == action {
			return o
		}
	}
	t.Fatalf("no %q option in %v", action, opts)
	return ActionOption{}
}

func TestLegalActionsFacingBet(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 1000, 1000, 1000)
	mustStart(t, r, script(t))

	// Seat 0 is under the gun facing the big blind.
	opts := LegalActions(r)
	want := []string{"fold", "call", "raise", "all-in"}
	got := optionNames(opts)
	if len(got) != len(want) {
		t.Fatalf("options = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("options = %v, want %v", got, want)
		}
	}

	call := findOption(t, opts, "call")
	if call.Min != 10 || call.Max != 10 {
		t.Errorf("call bounds = [%d,%d], want [10,10]", call.Min, call.Max)
	}
	raise := findOption(t, opts, "raise")
	if raise.Min != 10 {
		t.Errorf("raise min = %d, want 10", raise.Min)
	}
	if raise.Max != 990 {
		t.Errorf("raise max = %d, want 990", raise.Max)
	}
	allin := findOption(t, opts, "all-in")
	if allin.Min != 1000 {
		t.Errorf("all-in amount = %d, want 1000", allin.Min)
	}
}

func TestLegalActionsUnopenedStreet(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 1000, 1000)
	mustStart(t, r, script(t))
	mustApply(t, r, playerID(0), Call, 0)
	mustApply(t, r, playerID(1), Check, 0)

	if r.Hand.Phase != PhaseFlop {
		t.Fatalf("phase = %v, want flop", r.Hand.Phase)
	}
	opts := LegalActions(r)
	bet := findOption(t, opts, "bet")
	if bet.Min != 10 {
		t.Errorf("bet min = %d, want the big blind", bet.Min)
	}
	if bet.Max != 990 {
		t.Errorf("bet max = %d, want the full stack", bet.Max)
	}
	for _, o := range opts {
		if o.Action == "call" || o.Action == "raise" {
			t.Errorf("unexpected %s option with no bet open", o.Action)
		}
	}
}

func TestLegalActionsNilBetweenHands(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 1000, 1000)
	if opts := LegalActions(r); opts != nil {
		t.Fatalf("options = %v, want none", opts)
	}
}

func TestLegalActionsShortStackRaise(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 25, 1000, 1000)
	_, err := r.StartHand(r.Creator, "hand1", randutil.New(3))
	if err != nil {
		t.Fatal(err)
	}

	// Seat 0 acts first with 25 chips, 10 to call, so only 15 beyond the
	// call. The raise stays available but commits the stack.
	opts := LegalActions(r)
	raise := findOption(t, opts, "raise")
	if raise.Min != 10 {
		t.Errorf("raise min = %d, want 10", raise.Min)
	}
	if raise.Max != 15 {
		t.Errorf("raise max = %d, want 15", raise.Max)
	}
}

package game

import (
	"testing"
	"time"
)

func TestConfigNormalize(t *testing.T) {
	t.Parallel()
	cfg := Config{Name: "table"}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.SeatLimit != DefaultSeatLimit || cfg.MinBet != DefaultMinBet || cfg.BuyIn != 1000 {
		t.Errorf("defaults = %+v", cfg)
	}

	bad := []Config{
		{},                                      // no name
		{Name: "t", SeatLimit: 1},               // too few seats
		{Name: "t", SeatLimit: 11},              // too many seats
		{Name: "t", MinBet: 7},                  // odd blind
		{Name: "t", MinBet: 10, MaxBet: 4},      // cap below minimum
		{Name: "t", MinBet: 100, BuyIn: 50},     // buy-in below blind
	}
	for i, c := range bad {
		if err := c.Normalize(); err == nil {
			t.Errorf("config %d should be rejected: %+v", i, c)
		}
	}
}

func TestJoinRules(t *testing.T) {
	t.Parallel()
	r, err := NewRoom("room1", "p1", "P1", Config{Name: "t", SeatLimit: 2}, time.Unix(0, 0))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Join("p1", "P1"); err == nil {
		t.Error("double join should fail")
	}
	if _, err := r.Join("p2", "P2"); err != nil {
		t.Fatalf("join: %v", err)
	}
	_, err = r.Join("p3", "P3")
	if re, ok := AsRuleError(err); !ok || re.Code != CodeRoomFull {
		t.Errorf("full room join: %v", err)
	}

	r.Status = StatusPlaying
	r.Seats = r.Seats[:1]
	_, err = r.Join("p4", "P4")
	if re, ok := AsRuleError(err); !ok || re.Code != CodeRoomNotAccepting {
		t.Errorf("join after start: %v", err)
	}
}

func TestLeaveBetweenHandsRemovesSeat(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 1000, 1000, 1000)
	if _, err := r.Leave("p2"); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if len(r.Seats) != 2 || r.SeatIndex("p2") >= 0 {
		t.Errorf("seat not removed: %d seats", len(r.Seats))
	}
	if _, err := r.Leave("p2"); err == nil {
		t.Error("leaving twice should fail")
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 1000, 1000)
	mustStart(t, r, script(t))

	c := r.Clone()
	c.Seats[0].Chips = 1
	c.Hand.Pot = 999
	if _, err := c.Hand.Deck.Deal(); err != nil {
		t.Fatal(err)
	}

	if r.Seats[0].Chips == 1 {
		t.Error("clone shares seats")
	}
	if r.Hand.Pot == 999 {
		t.Error("clone shares hand")
	}
	if r.Hand.Deck.Remaining() == c.Hand.Deck.Remaining() {
		t.Error("clone shares deck")
	}
}

func TestFinishedWhenOnePlayerHasChips(t *testing.T) {
	t.Parallel()
	r := testRoom(t, 15, 1000)
	mustStart(t, r, script(t))

	// p1 is all-in covering the small blind plus 10 more.
	mustApply(t, r, "p1", AllIn, 0)
	events := mustApply(t, r, "p2", Call, 0)

	if !hasEvent(events, EventHandEnded) {
		t.Fatalf("events = %v", eventTypes(events))
	}
	loserBusted := r.Seats[0].Chips == 0 || r.Seats[1].Chips == 0
	if loserBusted {
		if r.Status != StatusFinished {
			t.Errorf("status = %v, want finished with one stack left", r.Status)
		}
		if hasEvent(events, EventWaiting) {
			t.Error("busted table should not wait for players")
		}
	} else if r.Status != StatusPlaying {
		// A split leaves both stacks live.
		t.Errorf("status = %v after split", r.Status)
	}
}

package game

import (
	"testing"
	"time"

	"github.com/pokerroom/holdem/internal/poker"
)

// testRoom builds a room with minBet 10 and one seat per stack, players
// named p1..pN with p1 as creator.
func testRoom(t *testing.T, chips ...int) *Room {
	t.Helper()
	r, err := NewRoom("room1", "p1", "P1", Config{Name: "table"}, time.Unix(0, 0))
	if err != nil {
		t.Fatalf("NewRoom: %v", err)
	}
	for i := 1; i < len(chips); i++ {
		id := playerID(i)
		if _, err := r.Join(id, "P"+id[1:]); err != nil {
			t.Fatalf("Join %s: %v", id, err)
		}
	}
	for i, c := range chips {
		r.Seats[i].Chips = c
	}
	return r
}

func playerID(i int) string {
	return "p" + string(rune('1'+i))
}

// script builds a deck that deals the named cards in order. "xx" deals an
// arbitrary unused card (for burns and don't-care deals); remaining cards
// pad the deck to a full 52.
func script(t *testing.T, cards ...string) *poker.Deck {
	t.Helper()
	used := make(map[poker.Card]bool)
	for _, s := range cards {
		if s == "xx" {
			continue
		}
		used[poker.MustParseCard(s)] = true
	}
	var pool []poker.Card
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			if c := poker.NewCard(rank, suit); !used[c] {
				pool = append(pool, c)
			}
		}
	}
	var out []poker.Card
	for _, s := range cards {
		if s == "xx" {
			out = append(out, pool[0])
			pool = pool[1:]
			continue
		}
		out = append(out, poker.MustParseCard(s))
	}
	out = append(out, pool...)
	return poker.NewStackedDeck(out...)
}

func mustStart(t *testing.T, r *Room, deck *poker.Deck) []Event {
	t.Helper()
	events, err := r.startHand(r.Creator, "hand1", deck)
	if err != nil {
		t.Fatalf("startHand: %v", err)
	}
	return events
}

func mustApply(t *testing.T, r *Room, playerID string, kind ActionKind, amount int) []Event {
	t.Helper()
	events, err := r.Apply(playerID, kind, amount)
	if err != nil {
		t.Fatalf("%s %v %d: %v", playerID, kind, amount, err)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func hasEvent(events []Event, typ EventType) bool {
	for _, e := range events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func totalChips(r *Room) int {
	total := 0
	for _, s := range r.Seats {
		total += s.Chips + s.TotalBet
	}
	return total
}

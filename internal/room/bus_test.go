package room

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokerroom/holdem/internal/game"
	"github.com/pokerroom/holdem/internal/poker"
	"github.com/pokerroom/holdem/internal/randutil"
)

func busRoom(t *testing.T) *game.Room {
	t.Helper()
	r, err := game.NewRoom("room1", "p1", "Alice", game.Config{Name: "t"}, time.Unix(0, 0))
	require.NoError(t, err)
	_, err = r.Join("p2", "Bob")
	require.NoError(t, err)
	_, err = r.StartHand("p1", "hand1", randutil.New(1))
	require.NoError(t, err)
	return r
}

func TestBusRedactsPerSubscriber(t *testing.T) {
	t.Parallel()
	r := busRoom(t)
	bus := NewBus(testLogger(), 8)
	p1 := bus.Subscribe("p1")
	p2 := bus.Subscribe("p2")
	spectator := bus.Subscribe("")

	bus.Publish(r, 1, []game.Event{{Type: game.EventHandStarted}})

	u1 := <-p1.Updates()
	u2 := <-p2.Updates()
	us := <-spectator.Updates()

	assert.NotEqual(t, HiddenCard, u1.View.Seats[0].Cards[0], "p1 sees own cards")
	assert.Equal(t, HiddenCard, u1.View.Seats[1].Cards[0], "p1 cannot see p2's cards")
	assert.NotEqual(t, HiddenCard, u2.View.Seats[1].Cards[0])
	assert.Equal(t, HiddenCard, u2.View.Seats[0].Cards[0])
	assert.Equal(t, HiddenCard, us.View.Seats[0].Cards[0], "spectators see nothing")
	assert.Equal(t, HiddenCard, us.View.Seats[1].Cards[0])
}

func TestBusDetachesSlowSubscriber(t *testing.T) {
	t.Parallel()
	r := busRoom(t)
	bus := NewBus(testLogger(), 2)
	slow := bus.Subscribe("p1")
	fast := bus.Subscribe("p2")

	// Never drain slow; its queue holds 2 updates and the third publish
	// must detach it instead of blocking the room.
	for seq := uint64(1); seq <= 3; seq++ {
		bus.Publish(r, seq, []game.Event{{Type: game.EventPhaseAdvanced}})
	}

	got := 0
	for range 3 {
		<-fast.Updates()
		got++
	}
	assert.Equal(t, 3, got, "fast subscriber keeps receiving")

	deadline := time.After(time.Second)
	closed := false
	for !closed {
		select {
		case _, ok := <-slow.Updates():
			if !ok {
				closed = true
			}
		case <-deadline:
			t.Fatal("slow subscriber was not detached")
		}
	}
}

func TestBusCloseUnsubscribes(t *testing.T) {
	t.Parallel()
	r := busRoom(t)
	bus := NewBus(testLogger(), 2)
	sub := bus.Subscribe("p1")
	sub.Close()

	bus.Publish(r, 1, []game.Event{{Type: game.EventHandStarted}})
	_, ok := <-sub.Updates()
	assert.False(t, ok, "closed subscription channel should be closed")
}

func TestViewNeverLeaksOpponentCards(t *testing.T) {
	t.Parallel()
	r := busRoom(t)
	v := ViewFor(r, "p2")

	require.Len(t, v.Seats, 2)
	assert.Equal(t, []string{HiddenCard, HiddenCard}, v.Seats[0].Cards)
	assert.NotEqual(t, HiddenCard, v.Seats[1].Cards[0])
	assert.Equal(t, "preflop", v.Phase)
	assert.Equal(t, 15, v.Pot)
	assert.NotEmpty(t, v.HandID)
}

func TestViewWireFieldNames(t *testing.T) {
	t.Parallel()
	r := busRoom(t)
	raw, err := json.Marshal(ViewFor(r, "p1"))
	require.NoError(t, err)

	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &top))
	require.Contains(t, top, "players")
	assert.NotContains(t, top, "seats")

	var players []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(top["players"], &players))
	require.Len(t, players, 2)
	assert.Contains(t, players[0], "hand")
	assert.NotContains(t, players[0], "cards")
}

func TestViewShowsUnfoldedHandsAtShowdown(t *testing.T) {
	t.Parallel()
	r, err := game.NewRoom("room1", "p1", "Alice", game.Config{Name: "t"}, time.Unix(0, 0))
	require.NoError(t, err)
	_, err = r.Join("p2", "Bob")
	require.NoError(t, err)
	_, err = r.Join("p3", "Carol")
	require.NoError(t, err)

	r.Hand = &game.Hand{ID: "hand1", Phase: game.PhaseShowdown, CurrentTurn: -1}
	r.Seats[0].Hole = []poker.Card{poker.MustParseCard("Ah"), poker.MustParseCard("Kh")}
	r.Seats[1].Hole = []poker.Card{poker.MustParseCard("Qs"), poker.MustParseCard("Qd")}
	r.Seats[2].Hole = []poker.Card{poker.MustParseCard("2c"), poker.MustParseCard("3c")}
	r.Seats[2].Folded = true

	v := ViewFor(r, "p1")
	assert.Equal(t, []string{"Ah", "Kh"}, v.Seats[0].Cards)
	assert.Equal(t, []string{"Qs", "Qd"}, v.Seats[1].Cards, "unfolded hands are open at showdown")
	assert.Equal(t, []string{HiddenCard, HiddenCard}, v.Seats[2].Cards, "folded hands stay mucked")
}

func TestViewBetweenHands(t *testing.T) {
	t.Parallel()
	r, err := game.NewRoom("room1", "p1", "Alice", game.Config{Name: "t"}, time.Unix(0, 0))
	require.NoError(t, err)
	v := ViewFor(r, "p1")
	assert.Equal(t, "idle", v.Phase)
	assert.Equal(t, -1, v.CurrentTurn)
	assert.Empty(t, v.Community)
	assert.Zero(t, v.Pot)
}

package room

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/pokerroom/holdem/internal/game"
)

// DefaultQueueSize bounds each subscriber's update queue. A subscriber that
// falls this far behind is detached rather than allowed to stall the room.
const DefaultQueueSize = 256

// Update is one event paired with the viewer's redacted snapshot taken
// after the triggering input was fully applied.
type Update struct {
	RoomID string     `json:"roomId"`
	Seq    uint64     `json:"seq"`
	Event  game.Event `json:"event"`
	View   View       `json:"view"`
}

// Subscription receives a player's updates for one room. The channel closes
// when the subscriber is detached, either explicitly or for falling behind;
// the owner should resubscribe and reload a fresh snapshot.
type Subscription struct {
	PlayerID string

	id  uint64
	bus *Bus
	ch  chan Update
}

// Updates is the subscriber's queue.
func (s *Subscription) Updates() <-chan Update { return s.ch }

// Close detaches the subscription.
func (s *Subscription) Close() { s.bus.drop(s.id) }

// Bus fans room updates out to subscribers with per-player redaction.
// Publishing never blocks on a slow subscriber.
type Bus struct {
	logger    *log.Logger
	queueSize int

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*Subscription
}

func NewBus(logger *log.Logger, queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		logger:    logger.WithPrefix("bus"),
		queueSize: queueSize,
		subs:      make(map[uint64]*Subscription),
	}
}

// Subscribe registers a subscriber viewing the room as playerID. Spectators
// subscribe with an empty player ID and see all hole cards hidden.
func (b *Bus) Subscribe(playerID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{
		PlayerID: playerID,
		id:       b.nextID,
		bus:      b,
		ch:       make(chan Update, b.queueSize),
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers every event to every subscriber, each with its own
// redacted view of snap. Subscribers whose queues are full are detached.
func (b *Bus) Publish(snap *game.Room, seq uint64, events []game.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	views := make(map[string]View)
	for _, sub := range b.subs {
		view, ok := views[sub.PlayerID]
		if !ok {
			view = ViewFor(snap, sub.PlayerID)
			views[sub.PlayerID] = view
		}
		for _, ev := range events {
			update := Update{RoomID: snap.ID, Seq: seq, Event: ev, View: view}
			select {
			case sub.ch <- update:
				continue
			default:
			}
			b.logger.Warn("subscriber queue full, detaching",
				"room", snap.ID, "player", sub.PlayerID, "queue", b.queueSize)
			b.dropLocked(sub.id)
			break
		}
	}
}

// CloseAll detaches every subscriber, for room shutdown.
func (b *Bus) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.subs {
		b.dropLocked(id)
	}
}

func (b *Bus) drop(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dropLocked(id)
}

func (b *Bus) dropLocked(id uint64) {
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

package room

import (
	"encoding/json"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/pokerroom/holdem/internal/game"
	"github.com/pokerroom/holdem/internal/store"
)

// ErrClosed is returned for operations against a coordinator that has shut
// down, either because the room finished or the server is stopping.
var ErrClosed = errors.New("room: closed")

const roomKeyPrefix = "room:"

// Options tunes a coordinator. Zero values take the defaults.
type Options struct {
	TurnTimeout    time.Duration // deadline for each turn before auto-fold
	GraceTimeout   time.Duration // disconnect window before forced leave
	PersistRetries int
	PersistBackoff time.Duration // doubles per attempt
	QueueSize      int           // per-subscriber update queue
}

const (
	DefaultTurnTimeout    = 30 * time.Second
	DefaultGraceTimeout   = 60 * time.Second
	DefaultPersistRetries = 3
	DefaultPersistBackoff = 50 * time.Millisecond
)

func (o *Options) withDefaults() {
	if o.TurnTimeout == 0 {
		o.TurnTimeout = DefaultTurnTimeout
	}
	if o.GraceTimeout == 0 {
		o.GraceTimeout = DefaultGraceTimeout
	}
	if o.PersistRetries == 0 {
		o.PersistRetries = DefaultPersistRetries
	}
	if o.PersistBackoff == 0 {
		o.PersistBackoff = DefaultPersistBackoff
	}
}

// Coordinator is the single writer for one room. Every mutation is a command
// processed by one goroutine, which gives each room a total order of inputs.
// Reads are served from an atomically published snapshot and never touch the
// command queue.
type Coordinator struct {
	ID string

	logger *log.Logger
	clock  quartz.Clock
	store  store.Store
	bus    *Bus
	rng    *rand.Rand
	opts   Options

	// onClosed is called from the loop goroutine when the room terminates
	// on its own (finished or emptied). It must not block on the loop.
	onClosed func(roomID string)

	cmds chan command
	quit chan struct{}
	done chan struct{}
	once sync.Once

	snap atomic.Pointer[game.Room]
	seq  atomic.Uint64

	// Loop-owned state below; never touched outside the run goroutine.
	room        *game.Room
	degraded    bool
	turnTimer   *quartz.Timer
	armedHand   string
	armedSeq    uint64
	graceTimers map[string]*quartz.Timer
}

type command struct {
	name   string
	mutate func() ([]game.Event, error)
	reply  chan error
}

// NewCoordinator starts a coordinator for an existing room state.
func NewCoordinator(r *game.Room, st store.Store, logger *log.Logger, clock quartz.Clock, rng *rand.Rand, opts Options, onClosed func(string)) *Coordinator {
	opts.withDefaults()
	c := &Coordinator{
		ID:          r.ID,
		logger:      logger.WithPrefix("room").With("room", r.ID),
		clock:       clock,
		store:       st,
		bus:         NewBus(logger, opts.QueueSize),
		rng:         rng,
		opts:        opts,
		onClosed:    onClosed,
		cmds:        make(chan command, 64),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		room:        r,
		graceTimers: make(map[string]*quartz.Timer),
	}
	c.snap.Store(r.Clone())
	// Write the record up front so a room that crashes before its first
	// mutation still restores. Rooms spawned from Restore rewrite the
	// record they were read from, which is harmless.
	if err := c.persist(); err != nil {
		c.logger.Error("initial persist failed, room starts degraded", "error", err)
		c.degraded = true
	}
	go c.run()
	return c
}

// Snapshot returns the viewer's redacted copy of the latest published state.
func (c *Coordinator) Snapshot(viewerID string) View {
	return ViewFor(c.snap.Load(), viewerID)
}

// Subscribe attaches a subscriber and returns its subscription along with
// the current snapshot, so re-attaching clients can resynchronize.
func (c *Coordinator) Subscribe(playerID string) (*Subscription, View) {
	sub := c.bus.Subscribe(playerID)
	return sub, c.Snapshot(playerID)
}

// Join seats a player.
func (c *Coordinator) Join(playerID, username string) error {
	return c.do("join", func() ([]game.Event, error) {
		if _, err := c.room.Join(playerID, username); err != nil {
			return nil, err
		}
		return []game.Event{{Type: game.EventPlayerJoined, PlayerID: playerID}}, nil
	})
}

// Leave removes a player, folding them first if a hand is running.
func (c *Coordinator) Leave(playerID string) error {
	return c.do("leave", func() ([]game.Event, error) {
		events, err := c.room.Leave(playerID)
		if err != nil {
			return nil, err
		}
		c.stopGrace(playerID)
		return append(events, game.Event{Type: game.EventPlayerLeft, PlayerID: playerID}), nil
	})
}

// Start begins the next hand. Creator only.
func (c *Coordinator) Start(playerID string) error {
	return c.do("start", func() ([]game.Event, error) {
		return c.room.StartHand(playerID, uuid.NewString(), c.rng)
	})
}

// Act applies a player action to the current hand.
func (c *Coordinator) Act(playerID string, kind game.ActionKind, amount int) error {
	return c.do("act", func() ([]game.Event, error) {
		return c.room.Apply(playerID, kind, amount)
	})
}

// End finishes the room. Creator only; a running hand is settled first.
func (c *Coordinator) End(playerID string) error {
	return c.do("end", func() ([]game.Event, error) {
		if playerID != c.room.Creator {
			return nil, &game.RuleError{Code: game.CodeNotCreator, Message: "only the room creator can end the room"}
		}
		events, err := c.room.ForceEnd()
		if err != nil {
			return events, err
		}
		return append(events, game.Event{Type: game.EventRoomEnded, PlayerID: playerID}), nil
	})
}

// Disconnect marks the player disconnected and arms the grace timer. The
// seat keeps playing until the window expires.
func (c *Coordinator) Disconnect(playerID string) error {
	return c.do("disconnect", func() ([]game.Event, error) {
		if !c.room.Disconnect(playerID) {
			return nil, &game.RuleError{Code: game.CodeNotSeated, Message: "player is not seated at this room"}
		}
		c.armGrace(playerID)
		return []game.Event{{Type: game.EventPlayerDisconnected, PlayerID: playerID}}, nil
	})
}

// Reconnect clears the player's disconnect grace window.
func (c *Coordinator) Reconnect(playerID string) error {
	return c.do("reconnect", func() ([]game.Event, error) {
		if !c.room.Reconnect(playerID) {
			return nil, &game.RuleError{Code: game.CodeNotSeated, Message: "player is not seated at this room"}
		}
		c.stopGrace(playerID)
		return []game.Event{{Type: game.EventPlayerReconnected, PlayerID: playerID}}, nil
	})
}

// Reload replaces in-memory state with the persisted record and clears the
// degraded flag. Operator remedy for a room that lost its store.
func (c *Coordinator) Reload() error {
	reply := make(chan error, 1)
	cmd := command{name: "reload", reply: reply}
	cmd.mutate = func() ([]game.Event, error) {
		raw, err := c.store.Get(roomKeyPrefix + c.ID)
		if err != nil {
			return nil, fmt.Errorf("loading room record: %w", err)
		}
		var r game.Room
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decoding room record: %w", err)
		}
		c.room = &r
		c.degraded = false
		return nil, nil
	}
	return c.send(cmd)
}

// Close stops the coordinator without deleting the persisted record, so the
// room can be restored on the next boot.
func (c *Coordinator) Close() {
	c.once.Do(func() { close(c.quit) })
	<-c.done
}

func (c *Coordinator) do(name string, mutate func() ([]game.Event, error)) error {
	return c.send(command{name: name, mutate: mutate, reply: make(chan error, 1)})
}

func (c *Coordinator) send(cmd command) error {
	select {
	case c.cmds <- cmd:
	case <-c.quit:
		return ErrClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		// The loop replies before it terminates, so a command that closed
		// the room still has its answer buffered. Drain it first.
		select {
		case err := <-cmd.reply:
			return err
		default:
			return ErrClosed
		}
	}
}

// enqueue is the fire-and-forget path for timer callbacks.
func (c *Coordinator) enqueue(name string, mutate func() ([]game.Event, error)) {
	cmd := command{name: name, mutate: mutate, reply: make(chan error, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.quit:
	}
}

func (c *Coordinator) run() {
	defer close(c.done)
	for {
		select {
		case cmd := <-c.cmds:
			c.handle(cmd)
			if c.room.Status == game.StatusFinished || len(c.room.Seats) == 0 {
				c.terminate()
				return
			}
		case <-c.quit:
			c.shutdown()
			return
		}
	}
}

func (c *Coordinator) handle(cmd command) {
	if c.degraded && cmd.name != "reload" {
		cmd.reply <- &game.RuleError{Code: game.CodeRoomDegraded, Message: "room is degraded; state is read-only"}
		return
	}

	events, err := cmd.mutate()
	if err != nil {
		if re, ok := game.AsRuleError(err); ok {
			c.logger.Debug("rejected input", "op", cmd.name, "code", re.Code)
			cmd.reply <- err
			return
		}
		c.quarantine(cmd.name, "input failed", err)
		cmd.reply <- err
		return
	}

	if err := c.room.Check(); err != nil {
		c.quarantine(cmd.name, "invariant violation", err)
		cmd.reply <- err
		return
	}

	c.room.UpdatedAt = c.clock.Now()
	if err := c.persist(); err != nil {
		c.quarantine(cmd.name, "persist failed", err)
		cmd.reply <- &game.RuleError{Code: game.CodeRoomDegraded, Message: "room state could not be persisted"}
		return
	}

	snap := c.room.Clone()
	c.snap.Store(snap)
	if deadline, armed := c.rearmTurnTimer(); armed {
		h := c.room.Hand
		events = append(events, game.Event{
			Type:     game.EventActionRequired,
			Seat:     h.CurrentTurn,
			PlayerID: c.room.Seats[h.CurrentTurn].PlayerID,
			Options:  game.LegalActions(c.room),
			Deadline: deadline,
		})
	}
	seq := c.seq.Add(1)
	if len(events) > 0 {
		c.bus.Publish(snap, seq, events)
	}
	for _, ev := range events {
		c.logger.Debug("event", "op", cmd.name, "type", ev.Type, "seat", ev.Seat, "amount", ev.Amount)
		if ev.Type == game.EventHandEnded {
			c.logger.Info("hand finished", "pot", sumPayouts(ev.Payouts), "winners", len(ev.Payouts))
		}
	}
	cmd.reply <- nil
}

// quarantine flags the room degraded and tells subscribers. The last good
// snapshot stays published; only Reload clears the flag.
func (c *Coordinator) quarantine(op, what string, err error) {
	c.logger.Error(what+", quarantining room", "op", op, "error", err)
	if !c.degraded {
		c.bus.Publish(c.snap.Load(), c.seq.Add(1), []game.Event{{Type: game.EventRoomDegraded}})
	}
	c.degraded = true
}

func sumPayouts(payouts []game.Payout) int {
	total := 0
	for _, p := range payouts {
		total += p.Amount
	}
	return total
}

// persist writes the room record with bounded retries and backoff. The
// coordinator loop blocks while retrying; per-room ordering demands it.
func (c *Coordinator) persist() error {
	raw, err := json.Marshal(c.room)
	if err != nil {
		return fmt.Errorf("encoding room: %w", err)
	}
	key := roomKeyPrefix + c.ID
	backoff := c.opts.PersistBackoff
	var last error
	for attempt := 1; attempt <= c.opts.PersistRetries; attempt++ {
		if last = c.store.Put(key, raw); last == nil {
			return nil
		}
		c.logger.Warn("persist attempt failed", "attempt", attempt, "error", last)
		if attempt < c.opts.PersistRetries {
			c.sleep(backoff)
			backoff *= 2
		}
	}
	return last
}

func (c *Coordinator) sleep(d time.Duration) {
	fired := make(chan struct{})
	t := c.clock.AfterFunc(d, func() { close(fired) })
	defer t.Stop()
	select {
	case <-fired:
	case <-c.quit:
	}
}

// rearmTurnTimer keeps exactly one pending auto-fold timer, re-armed only
// when the acting turn actually changed so mutations elsewhere in the room
// do not extend the actor's deadline. It reports the deadline when a new
// turn was armed so the caller can prompt the actor.
func (c *Coordinator) rearmTurnTimer() (time.Time, bool) {
	h := c.room.Hand
	if h == nil || h.CurrentTurn < 0 {
		c.stopTurnTimer()
		return time.Time{}, false
	}
	if c.armedHand == h.ID && c.armedSeq == h.TurnSeq {
		return time.Time{}, false
	}
	c.stopTurnTimer()
	handID, turnSeq := h.ID, h.TurnSeq
	c.armedHand, c.armedSeq = handID, turnSeq
	c.turnTimer = c.clock.AfterFunc(c.opts.TurnTimeout, func() {
		c.enqueue("turn-timeout", func() ([]game.Event, error) {
			return c.room.ApplyTimeout(handID, turnSeq)
		})
	})
	return c.clock.Now().Add(c.opts.TurnTimeout), true
}

func (c *Coordinator) stopTurnTimer() {
	if c.turnTimer != nil {
		c.turnTimer.Stop()
		c.turnTimer = nil
	}
	c.armedHand, c.armedSeq = "", 0
}

// armGrace schedules the forced leave for a disconnected player.
func (c *Coordinator) armGrace(playerID string) {
	c.stopGrace(playerID)
	c.graceTimers[playerID] = c.clock.AfterFunc(c.opts.GraceTimeout, func() {
		c.enqueue("grace-expired", func() ([]game.Event, error) {
			idx := c.room.SeatIndex(playerID)
			if idx < 0 || c.room.Seats[idx].Connected {
				return nil, nil
			}
			c.logger.Info("disconnect grace expired, removing player", "player", playerID)
			delete(c.graceTimers, playerID)
			events, err := c.room.Leave(playerID)
			if err != nil {
				return events, err
			}
			return append(events, game.Event{Type: game.EventPlayerLeft, PlayerID: playerID}), nil
		})
	})
}

// armGraceFromRestore schedules the disconnect window for a seat restored
// from the store, giving its player until the grace deadline to reattach.
func (c *Coordinator) armGraceFromRestore(playerID string) {
	c.do("restore-grace", func() ([]game.Event, error) {
		idx := c.room.SeatIndex(playerID)
		if idx < 0 || c.room.Seats[idx].Connected {
			return nil, nil
		}
		c.armGrace(playerID)
		return nil, nil
	})
}

func (c *Coordinator) stopGrace(playerID string) {
	if t, ok := c.graceTimers[playerID]; ok {
		t.Stop()
		delete(c.graceTimers, playerID)
	}
}

// terminate ends a finished or emptied room: the record is deleted, every
// subscriber detached, and the registry notified.
func (c *Coordinator) terminate() {
	c.once.Do(func() { close(c.quit) })
	c.stopAllTimers()
	if err := c.store.Delete(roomKeyPrefix + c.ID); err != nil {
		c.logger.Warn("deleting room record", "error", err)
	}
	c.bus.CloseAll()
	if c.onClosed != nil {
		c.onClosed(c.ID)
	}
	c.logger.Info("room closed", "status", c.room.Status)
}

// shutdown stops the loop but keeps the persisted record for restore.
func (c *Coordinator) shutdown() {
	c.stopAllTimers()
	c.bus.CloseAll()
}

func (c *Coordinator) stopAllTimers() {
	c.stopTurnTimer()
	for id, t := range c.graceTimers {
		t.Stop()
		delete(c.graceTimers, id)
	}
}

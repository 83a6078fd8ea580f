package room

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/pokerroom/holdem/internal/game"
	"github.com/pokerroom/holdem/internal/randutil"
	"github.com/pokerroom/holdem/internal/store"
)

// Summary is one lobby listing entry.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Players   int       `json:"players"`
	SeatLimit int       `json:"seatLimit"`
	MinBet    int       `json:"minBet"`
	BuyIn     int       `json:"buyIn"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry owns the live coordinators and the lobby listing.
type Registry struct {
	logger *log.Logger
	clock  quartz.Clock
	store  store.Store
	opts   Options
	seed   func() int64

	mu    sync.RWMutex
	rooms map[string]*Coordinator
}

// NewRegistry builds a registry. seed provides per-room RNG seeds; pass nil
// for time-based seeding.
func NewRegistry(st store.Store, logger *log.Logger, clock quartz.Clock, opts Options, seed func() int64) *Registry {
	if seed == nil {
		seed = func() int64 { return time.Now().UnixNano() }
	}
	return &Registry{
		logger: logger.WithPrefix("registry"),
		clock:  clock,
		store:  st,
		opts:   opts,
		seed:   seed,
		rooms:  make(map[string]*Coordinator),
	}
}

// Create makes a new room with the creator seated and returns its
// coordinator.
func (g *Registry) Create(creatorID, creatorName string, cfg game.Config) (*Coordinator, error) {
	r, err := game.NewRoom(uuid.NewString(), creatorID, creatorName, cfg, g.clock.Now())
	if err != nil {
		return nil, err
	}
	c := g.spawn(r)
	g.logger.Info("room created", "room", r.ID, "name", r.Name, "creator", creatorID)
	return c, nil
}

// Get returns the live coordinator for id.
func (g *Registry) Get(id string) (*Coordinator, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.rooms[id]
	if !ok {
		return nil, &game.RuleError{Code: game.CodeRoomNotFound, Message: "room not found"}
	}
	return c, nil
}

// List returns joinable rooms, newest first: waiting rooms with a free seat.
func (g *Registry) List() []Summary {
	g.mu.RLock()
	coords := make([]*Coordinator, 0, len(g.rooms))
	for _, c := range g.rooms {
		coords = append(coords, c)
	}
	g.mu.RUnlock()

	var out []Summary
	for _, c := range coords {
		v := c.Snapshot("")
		if v.Status != string(game.StatusWaiting) || len(v.Seats) >= v.SeatLimit {
			continue
		}
		out = append(out, Summary{
			ID:        v.ID,
			Name:      v.Name,
			Players:   len(v.Seats),
			SeatLimit: v.SeatLimit,
			MinBet:    v.MinBet,
			BuyIn:     v.BuyIn,
			Status:    v.Status,
			CreatedAt: v.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Restore loads persisted rooms on boot. Every restored seat starts
// disconnected; grace timers begin once the player fails to reattach.
func (g *Registry) Restore() error {
	records, err := g.store.List(roomKeyPrefix)
	if err != nil {
		return fmt.Errorf("listing room records: %w", err)
	}
	for key, raw := range records {
		var r game.Room
		if err := json.Unmarshal(raw, &r); err != nil {
			g.logger.Error("skipping unreadable room record", "key", key, "error", err)
			continue
		}
		if r.Status == game.StatusFinished {
			if err := g.store.Delete(key); err != nil {
				g.logger.Warn("deleting finished room record", "key", key, "error", err)
			}
			continue
		}
		for _, s := range r.Seats {
			s.Connected = false
		}
		c := g.spawn(&r)
		for _, s := range r.Seats {
			c.armGraceFromRestore(s.PlayerID)
		}
		g.logger.Info("room restored", "room", r.ID, "status", r.Status, "players", len(r.Seats))
	}
	return nil
}

// CloseAll stops every coordinator without deleting state, for shutdown.
func (g *Registry) CloseAll() {
	g.mu.Lock()
	coords := make([]*Coordinator, 0, len(g.rooms))
	for _, c := range g.rooms {
		coords = append(coords, c)
	}
	g.rooms = make(map[string]*Coordinator)
	g.mu.Unlock()

	for _, c := range coords {
		c.Close()
	}
}

func (g *Registry) spawn(r *game.Room) *Coordinator {
	rng := randutil.New(g.seed())
	c := NewCoordinator(r, g.store, g.logger, g.clock, rng, g.opts, g.remove)
	g.mu.Lock()
	g.rooms[r.ID] = c
	g.mu.Unlock()
	return c
}

// remove is the coordinator's onClosed callback; it runs on the room's own
// goroutine so it only touches the map.
func (g *Registry) remove(id string) {
	g.mu.Lock()
	delete(g.rooms, id)
	g.mu.Unlock()
}

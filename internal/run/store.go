package run

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"skrawl/internal/catalog"
	"skrawl/pkg/realtime"
)

// Store holds runs and delegates to realtime.RoomStore for lookup and broadcast.
type Store struct {
	r   *realtime.RoomStore[*Run]
	cat *catalog.Catalog
	ctx context.Context
	ttl time.Duration
}

// NewStore creates an in-memory run store. Run loops stop when ctx is done.
func NewStore(ctx context.Context, cat *catalog.Catalog, ttl time.Duration) *Store {
	return &Store{r: realtime.NewRoomStore[*Run](), cat: cat, ctx: ctx, ttl: ttl}
}

// Catalog returns the catalog runs draw from.
func (s *Store) Catalog() *catalog.Catalog {
	return s.cat
}

// CreateRun registers a run and starts its loop. Updates are published on
// the run's broadcaster.
func (s *Store) CreateRun(settings Settings) *Run {
	id := uuid.NewString()
	r := New(id, settings, s.cat, Options{
		Notify: func(event string) { s.r.Publish(id, event) },
	})
	s.r.Create(id, r)
	r.Go(s.ctx)
	log.Printf("run created id=%s minigame=%q difficulty=%s dev=%t", id, settings.MinigameID, settings.Difficulty, settings.DevMode)
	return r
}

// GetRun returns a run by id and marks it as used.
func (s *Store) GetRun(id string) (*Run, bool) {
	room, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	s.r.Touch(id)
	return room.State, true
}

// Broadcaster returns the event broadcaster for a run.
func (s *Store) Broadcaster(id string) (*realtime.Broadcaster, bool) {
	return s.r.Broadcaster(id)
}

// Len returns the number of live runs.
func (s *Store) Len() int {
	return s.r.Len()
}

// Expired reports whether a run should be swept: finished runs go after a
// minute idle, others after the store's TTL.
func (s *Store) Expired(r *Run, idle time.Duration) bool {
	if r.Over() && idle > time.Minute {
		return true
	}
	return idle > s.ttl
}

// Sweep removes expired runs now and stops their loops.
func (s *Store) Sweep() int {
	removed := s.r.Sweep(s.Expired)
	for _, r := range removed {
		s.closeRun(r)
	}
	return len(removed)
}

// RunSweeper sweeps every interval until the store's context is done.
func (s *Store) RunSweeper(every time.Duration) {
	s.r.RunSweeper(s.ctx, every, s.Expired, s.closeRun)
}

func (s *Store) closeRun(r *Run) {
	r.Close()
	log.Printf("run swept id=%s over=%t live=%d", r.ID, r.Over(), s.Len())
}

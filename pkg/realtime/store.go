package realtime

import (
	"context"
	"sync"
	"time"
)

// Room holds state and a broadcaster for one room.
type Room[T any] struct {
	ID    string
	State T
	hub   *Broadcaster

	touched time.Time
}

// RoomStore manages rooms and their broadcasters.
type RoomStore[T any] struct {
	mu    sync.RWMutex
	rooms map[string]*Room[T]
	now   func() time.Time
}

// NewRoomStore creates an empty room store.
func NewRoomStore[T any]() *RoomStore[T] {
	return &RoomStore[T]{
		rooms: make(map[string]*Room[T]),
		now:   time.Now,
	}
}

// Create adds a room with the given id and state, and a new Broadcaster.
func (s *RoomStore[T]) Create(id string, state T) *Room[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Room[T]{ID: id, State: state, hub: NewBroadcaster(), touched: s.now()}
	s.rooms[id] = r
	return r
}

// Get returns the room by ID if it exists.
func (s *RoomStore[T]) Get(id string) (*Room[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Touch marks the room as recently used.
func (s *RoomStore[T]) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		r.touched = s.now()
	}
}

// Len returns the number of rooms.
func (s *RoomStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Remove deletes a room and disconnects its subscribers.
func (s *RoomStore[T]) Remove(id string) (T, bool) {
	s.mu.Lock()
	r, ok := s.rooms[id]
	delete(s.rooms, id)
	s.mu.Unlock()
	if !ok {
		var zero T
		return zero, false
	}
	r.hub.Close()
	return r.State, true
}

// Publish notifies subscribers of the room's broadcaster. Unknown rooms are ignored.
func (s *RoomStore[T]) Publish(id string, event string) {
	if hub, ok := s.Broadcaster(id); ok {
		hub.Publish(event)
	}
}

// Broadcaster returns the broadcaster for the room.
func (s *RoomStore[T]) Broadcaster(id string) (*Broadcaster, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	return r.hub, true
}

// ExpireFunc reports whether a room that has been idle for idle should be removed.
type ExpireFunc[T any] func(state T, idle time.Duration) bool

// Sweep removes every room for which expired returns true and returns their states.
func (s *RoomStore[T]) Sweep(expired ExpireFunc[T]) []T {
	now := s.now()
	s.mu.Lock()
	var removed []*Room[T]
	for id, r := range s.rooms {
		if expired(r.State, now.Sub(r.touched)) {
			removed = append(removed, r)
			delete(s.rooms, id)
		}
	}
	s.mu.Unlock()

	out := make([]T, 0, len(removed))
	for _, r := range removed {
		r.hub.Close()
		out = append(out, r.State)
	}
	return out
}

// RunSweeper calls Sweep every interval until ctx is cancelled, handing each
// removed state to onRemove.
func (s *RoomStore[T]) RunSweeper(ctx context.Context, every time.Duration, expired ExpireFunc[T], onRemove func(T)) {
	go func() {
		timer := time.NewTimer(every)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				for _, state := range s.Sweep(expired) {
					if onRemove != nil {
						onRemove(state)
					}
				}
				timer.Reset(every)
			}
		}
	}()
}

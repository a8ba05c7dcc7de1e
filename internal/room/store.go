// internal/room/store.go
package room

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Store manages the live rooms hosted by this process, keyed by id and by
// join code.
type Store struct {
	mu     sync.Mutex
	rooms  map[uuid.UUID]*Room
	byCode map[string]*Room
}

// NewStore returns an empty in-memory room store.
func NewStore() *Store {
	return &Store{
		rooms:  make(map[uuid.UUID]*Room),
		byCode: make(map[string]*Room),
	}
}

// Add stores the room. Typically the caller also sets OnDisposed so the room
// removes itself:
//
//	r.OnDisposed = func(id uuid.UUID) { store.Delete(id) }
func (s *Store) Add(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
	s.byCode[r.Code] = r
}

// Get retrieves a room by id.
func (s *Store) Get(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// GetByCode retrieves a room by its join code, case-insensitively.
func (s *Store) GetByCode(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byCode[strings.ToUpper(code)]
	return r, ok
}

// Delete drops the room from both indexes.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		delete(s.byCode, r.Code)
		delete(s.rooms, id)
	}
}

// List returns every live room.
func (s *Store) List() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// Package statestore keeps the saved view state of each playlist slot.
package statestore

import (
	"maps"
	"sort"

	"gazer/internal/viewstate"
)

// Key identifies one playlist slot: the image path together with its position
// in the playlist when the state was saved. The same file appearing at two
// positions therefore keeps two independent states.
type Key struct {
	Path  string
	Index int
}

// Store maps playlist slots to their saved view state.
// Paths are used verbatim; callers normalize them before building a Key.
type Store struct {
	states map[Key]viewstate.ViewState
}

// New creates an empty Store.
func New() *Store {
	return &Store{states: make(map[Key]viewstate.ViewState)}
}

// Save stores state under key, replacing whatever was there.
func (s *Store) Save(key Key, state viewstate.ViewState) {
	s.states[key] = state
}

// Restore returns the state saved under key, if any.
func (s *Store) Restore(key Key) (viewstate.ViewState, bool) {
	state, ok := s.states[key]
	return state, ok
}

// Has reports whether a state exists for key.
func (s *Store) Has(key Key) bool {
	_, ok := s.states[key]
	return ok
}

// Clear drops every saved state.
func (s *Store) Clear() {
	s.states = make(map[Key]viewstate.ViewState)
}

// Clone returns an independent copy of s.
func (s *Store) Clone() *Store {
	return &Store{states: maps.Clone(s.states)}
}

// Len returns the number of saved states.
func (s *Store) Len() int {
	return len(s.states)
}

// Keys returns all keys ordered by index, then path.
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Index != keys[j].Index {
			return keys[i].Index < keys[j].Index
		}
		return keys[i].Path < keys[j].Path
	})
	return keys
}

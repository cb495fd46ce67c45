package history

import (
	"sync"
	"time"

	"github.com/noxwise/noxwise/internal/turbine"
)

// Evaluation is one completed prediction round: the inputs the operator
// submitted, the band's model output, and the engine's risk grade.
type Evaluation struct {
	Timestamp  time.Time      `json:"timestamp"`
	Band       string         `json:"band"`
	Params     turbine.Vector `json:"params"`
	Prediction float64        `json:"prediction"`
	Risk       string         `json:"risk"`
}

// Store is a thread-safe, capacity-bounded evaluation history, newest last.
// When the capacity is exceeded the oldest entries are dropped.
type Store struct {
	mu      sync.RWMutex
	entries []Evaluation
	cap     int
	now     func() time.Time // injectable for deterministic tests
}

// New creates a Store holding at most capacity evaluations.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{cap: capacity, now: time.Now}
}

// Append records one evaluation and returns the stored entry (with its
// timestamp filled in). The vector is cloned so later caller mutations cannot
// alias into the history.
func (s *Store) Append(band string, params turbine.Vector, prediction float64, risk string) Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Evaluation{
		Timestamp:  s.now().UTC(),
		Band:       band,
		Params:     params.Clone(),
		Prediction: prediction,
		Risk:       risk,
	}
	s.entries = append(s.entries, e)
	if len(s.entries) > s.cap {
		s.entries = s.entries[len(s.entries)-s.cap:]
	}
	return e
}

// Last returns the most recent evaluation for the given band.
func (s *Store) Last(band string) (Evaluation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Band == band {
			return s.entries[i], true
		}
	}
	return Evaluation{}, false
}

// List returns a copy of all entries, oldest first.
func (s *Store) List() []Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Evaluation, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns the number of stored evaluations.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Preload seeds the store with previously exported evaluations, oldest first.
// Entries beyond capacity are dropped from the front.
func (s *Store) Preload(entries []Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	if len(s.entries) > s.cap {
		s.entries = s.entries[len(s.entries)-s.cap:]
	}
}

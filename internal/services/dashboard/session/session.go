// Package session keeps the per-browser UI flags of the dashboard in memory.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session id.
const CookieName = "agri_sid"

// DefaultDate is the date shown in the sidebar of a new session.
var DefaultDate = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// Plot management modes.
const (
	ModeDrone     = "drone"
	ModeSensors   = "sensors"
	ModeMultiCrop = "multi_crop"
	ModePrecision = "precision"
	DefaultMode   = ModeMultiCrop
)

// Modes lists the plot modes in menu order.
var Modes = []string{ModeDrone, ModeSensors, ModeMultiCrop, ModePrecision}

// ValidMode reports whether m is a known plot mode.
func ValidMode(m string) bool {
	for _, v := range Modes {
		if v == m {
			return true
		}
	}
	return false
}

// Flags is the state that survives between page renders.
type Flags struct {
	ConfigValidated      bool      `json:"config_validated"`
	RecommendationsReady bool      `json:"recommendations_ready"`
	SensorSynced         bool      `json:"sensor_synced"`
	ActiveMode           string    `json:"active_mode"`
	CurrentDate          time.Time `json:"current_date"`
	// LastPlot is the plot option the last recommendation was generated for.
	LastPlot string `json:"last_plot,omitempty"`
	// Notice is shown once on the next page render.
	Notice string `json:"notice,omitempty"`
}

func defaultFlags() Flags {
	return Flags{ActiveMode: DefaultMode, CurrentDate: DefaultDate}
}

type entry struct {
	flags Flags
	seen  time.Time
}

// Store is an in-memory TTL store of session flags.
type Store struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]*entry
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{ttl: ttl, now: time.Now, data: map[string]*entry{}}
}

// WithClock replaces the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Get returns the flags of id, refreshing its expiry.
func (s *Store) Get(id string) (Flags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return Flags{}, false
	}
	e.seen = s.now()
	return e.flags, true
}

// Ensure returns a live session: id itself when known, otherwise a new one.
func (s *Store) Ensure(id string) (string, Flags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.live(id); ok {
		e.seen = s.now()
		return id, e.flags, false
	}
	id = uuid.NewString()
	e := &entry{flags: defaultFlags(), seen: s.now()}
	s.data[id] = e
	return id, e.flags, true
}

// Update applies fn to the flags of id under the store lock.
func (s *Store) Update(id string, fn func(*Flags)) (Flags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return Flags{}, false
	}
	fn(&e.flags)
	e.seen = s.now()
	return e.flags, true
}

func (s *Store) live(id string) (*entry, bool) {
	if id == "" {
		return nil, false
	}
	e, ok := s.data[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.seen) > s.ttl {
		delete(s.data, id)
		return nil, false
	}
	return e, true
}

// Len is the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Sweep removes expired sessions and returns how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, e := range s.data {
		if now.Sub(e.seen) > s.ttl {
			delete(s.data, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done. onSweep, when set, gets the
// number of sessions removed by each pass.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := s.Sweep()
			if onSweep != nil {
				onSweep(n)
			}
		}
	}
}

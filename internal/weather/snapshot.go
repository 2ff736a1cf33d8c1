// Package weather holds the face's view of the latest companion forecast.
package weather

import (
	"sync/atomic"
	"time"
)

// Snapshot is one complete forecast as pushed by the companion. Nil fields
// are absent. A Snapshot is never modified after it is stored; updates
// replace it wholesale.
type Snapshot struct {
	IconCode   *int      `json:"icon_code,omitempty" msgpack:"icon_code,omitempty"`
	HighTemp   *string   `json:"high_temp,omitempty" msgpack:"high_temp,omitempty"`
	LowTemp    *string   `json:"low_temp,omitempty" msgpack:"low_temp,omitempty"`
	ReceivedAt time.Time `json:"received_at" msgpack:"received_at"`
}

// HasTemperatures reports whether both temperatures are present, which is
// the condition for drawing the weather panel.
func (s Snapshot) HasTemperatures() bool {
	return s.HighTemp != nil && s.LowTemp != nil
}

// Store keeps exactly one live Snapshot. Replace swaps the whole value in a
// single atomic store so a concurrent Load sees either the old or the new
// snapshot, never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a Store holding the empty snapshot.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Snapshot{})
	return s
}

// Load returns the current snapshot by value.
func (s *Store) Load() Snapshot {
	return *s.current.Load()
}

// Replace installs snap as the current snapshot.
func (s *Store) Replace(snap Snapshot) {
	s.current.Store(&snap)
}

// Int and String build the optional fields of a Snapshot.
func Int(v int) *int { return &v }

func String(v string) *string { return &v }

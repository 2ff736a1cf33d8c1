// Package clock supplies the face with the current instant and timezone.
package clock

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Snapshot is the wall-clock instant used for one frame, already expressed in
// the face's timezone.
type Snapshot struct {
	Time     time.Time
	Location *time.Location
}

// ZoneResolver looks up the timezone the face should display.
type ZoneResolver func() (*time.Location, error)

// Source produces Snapshots. The timezone is resolved once at construction
// and again on every RefreshZone call; reads never block on the resolver.
type Source struct {
	clock   clockwork.Clock
	resolve ZoneResolver
	loc     atomic.Pointer[time.Location]
}

// NewSource creates a Source. A nil clock means the real clock; a nil
// resolver means SystemZone("").
func NewSource(c clockwork.Clock, resolve ZoneResolver) *Source {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	if resolve == nil {
		resolve = SystemZone("")
	}
	s := &Source{clock: c, resolve: resolve}
	s.loc.Store(time.Local)
	s.RefreshZone()
	return s
}

// Clock exposes the underlying clock so timers share the same time base.
func (s *Source) Clock() clockwork.Clock {
	return s.clock
}

// Now returns the current instant in the face's timezone.
func (s *Source) Now() Snapshot {
	loc := s.loc.Load()
	return Snapshot{Time: s.clock.Now().In(loc), Location: loc}
}

// Location returns the timezone currently in effect.
func (s *Source) Location() *time.Location {
	return s.loc.Load()
}

// RefreshZone re-resolves the timezone. On failure the previous zone is kept
// and the error returned so the caller can log it.
func (s *Source) RefreshZone() error {
	loc, err := s.resolve()
	if err != nil {
		return err
	}
	if loc == nil {
		return fmt.Errorf("timezone resolver returned no location")
	}
	s.loc.Store(loc)
	return nil
}

// SystemZone resolves a fixed zone name when one is configured and otherwise
// follows the TZ environment variable, falling back to the host's local zone.
// TZ is read on every call so a SIGHUP after the variable changes is seen.
func SystemZone(name string) ZoneResolver {
	return func() (*time.Location, error) {
		if name != "" {
			loc, err := time.LoadLocation(name)
			if err != nil {
				return nil, fmt.Errorf("could not load timezone %q: %w", name, err)
			}
			return loc, nil
		}
		if tz, ok := os.LookupEnv("TZ"); ok && tz != "" {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return nil, fmt.Errorf("could not load timezone from TZ=%q: %w", tz, err)
			}
			return loc, nil
		}
		return time.Local, nil
	}
}

// FixedZone is a resolver for tests and single-zone deployments.
func FixedZone(loc *time.Location) ZoneResolver {
	return func() (*time.Location, error) {
		return loc, nil
	}
}

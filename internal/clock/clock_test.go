package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestSourceNowUsesZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	fake := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 18, 5, 0, 0, time.UTC))
	s := NewSource(fake, FixedZone(ny))

	snap := s.Now()
	if snap.Location != ny {
		t.Errorf("Now().Location = %v, want %v", snap.Location, ny)
	}
	if snap.Time.Hour() != 14 || snap.Time.Minute() != 5 {
		t.Errorf("Now().Time = %v, want 14:05 local", snap.Time)
	}
}

func TestRefreshZoneKeepsPreviousOnError(t *testing.T) {
	fail := false
	resolver := func() (*time.Location, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return time.UTC, nil
	}
	s := NewSource(clockwork.NewFakeClock(), resolver)
	if s.Location() != time.UTC {
		t.Fatalf("Location() = %v, want UTC", s.Location())
	}

	fail = true
	if err := s.RefreshZone(); err == nil {
		t.Errorf("RefreshZone() = nil, want error")
	}
	if s.Location() != time.UTC {
		t.Errorf("Location() after failed refresh = %v, want UTC", s.Location())
	}
}

func TestRefreshZoneFollowsResolver(t *testing.T) {
	zone := time.UTC
	s := NewSource(clockwork.NewFakeClock(), func() (*time.Location, error) { return zone, nil })

	tokyo := time.FixedZone("JST", 9*60*60)
	zone = tokyo
	if err := s.RefreshZone(); err != nil {
		t.Fatalf("RefreshZone() error = %v", err)
	}
	if s.Now().Location != tokyo {
		t.Errorf("Now().Location = %v, want %v", s.Now().Location, tokyo)
	}
}

func TestSystemZone(t *testing.T) {
	t.Setenv("TZ", "UTC")
	loc, err := SystemZone("")()
	if err != nil {
		t.Fatalf("SystemZone(\"\")() error = %v", err)
	}
	if loc.String() != "UTC" {
		t.Errorf("SystemZone(\"\")() = %v, want UTC", loc)
	}

	if _, err := SystemZone("Not/AZone")(); err == nil {
		t.Errorf("SystemZone(\"Not/AZone\")() = nil error, want error")
	}
}

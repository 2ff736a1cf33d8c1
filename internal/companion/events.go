// Package companion receives forecasts pushed by the companion device and
// hands them to the face.
package companion

import "fmt"

// WeatherPath is the data path the companion publishes forecasts on.
const WeatherPath = "/weather-data"

// Keys of the forecast data item.
const (
	KeyIconID   = "icon-id"
	KeyHighTemp = "high-temp"
	KeyLowTemp  = "low-temp"
)

// EventType says whether a data item was written or removed.
type EventType int

const (
	Changed EventType = iota
	Deleted
)

func (t EventType) String() string {
	switch t {
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// ParseEventType accepts the wire names "changed" and "deleted".
func ParseEventType(s string) (EventType, error) {
	switch s {
	case "changed", "":
		return Changed, nil
	case "deleted":
		return Deleted, nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// DataEvent is one change to a data item on the companion.
type DataEvent struct {
	Type EventType
	Path string
	Data map[string]any
}

// WireEvent is a DataEvent as carried in TCP frames and HTTP bodies.
type WireEvent struct {
	Type string         `json:"type" msgpack:"type"`
	Path string         `json:"path" msgpack:"path"`
	Data map[string]any `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Event converts the wire form.
func (w WireEvent) Event() (DataEvent, error) {
	t, err := ParseEventType(w.Type)
	if err != nil {
		return DataEvent{}, err
	}
	return DataEvent{Type: t, Path: w.Path, Data: w.Data}, nil
}

// SuspendCause says why an established connection was lost.
type SuspendCause int

const (
	CauseNetworkLost SuspendCause = iota
	CauseServiceDisconnected
)

func (c SuspendCause) String() string {
	switch c {
	case CauseNetworkLost:
		return "network lost"
	case CauseServiceDisconnected:
		return "service disconnected"
	}
	return "unknown"
}

// FailureReason says why a connection attempt failed.
type FailureReason int

const (
	// ReasonAPIUnavailable means the companion is reachable but does not
	// offer the data service. It is the only failure shown to the user.
	ReasonAPIUnavailable FailureReason = iota
	ReasonNetworkError
	ReasonProtocolError
)

func (r FailureReason) String() string {
	switch r {
	case ReasonAPIUnavailable:
		return "api unavailable"
	case ReasonNetworkError:
		return "network error"
	case ReasonProtocolError:
		return "protocol error"
	}
	return "unknown"
}

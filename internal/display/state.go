// Package display owns the face's display-mode state machine.
package display

// State is the face's display mode. Only Controller mutates it; everyone
// else receives copies.
type State struct {
	Visible       bool `json:"visible" msgpack:"visible"`
	Ambient       bool `json:"ambient" msgpack:"ambient"`
	LowBitAmbient bool `json:"low_bit_ambient" msgpack:"low_bit_ambient"`
}

// ShouldTick reports whether the periodic redraw should be running.
func (s State) ShouldTick() bool {
	return s.Visible && !s.Ambient
}

// ShouldTimeTick reports whether the host's once-a-minute ambient tick is
// needed. In ambient mode nothing else moves the clock forward.
func (s State) ShouldTimeTick() bool {
	return s.Visible && s.Ambient
}

// AntiAlias reports whether text may be anti-aliased. Low-bit panels in
// ambient mode need hard-edged text.
func (s State) AntiAlias() bool {
	return !(s.LowBitAmbient && s.Ambient)
}

// Insets describes the panel's shape as applied by the host. It changes
// layout only, never the state machine.
type Insets struct {
	Round      bool `json:"round" msgpack:"round"`
	ChinHeight int  `json:"chin_height" msgpack:"chin_height"`
}

// TapType mirrors the three phases a host reports for a touch gesture.
type TapType int

const (
	TapTouch TapType = iota
	TapTouchCancel
	TapComplete
)

func (t TapType) String() string {
	switch t {
	case TapTouch:
		return "touch"
	case TapTouchCancel:
		return "touch-cancel"
	case TapComplete:
		return "tap"
	}
	return "unknown"
}

// ParseTapType accepts the names produced by TapType.String.
func ParseTapType(s string) (TapType, bool) {
	switch s {
	case "touch":
		return TapTouch, true
	case "touch-cancel":
		return TapTouchCancel, true
	case "tap", "":
		return TapComplete, true
	}
	return TapComplete, false
}

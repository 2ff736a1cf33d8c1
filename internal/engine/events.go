package engine

import (
	"context"

	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/icons"
	"github.com/chrissnell/weatherface/internal/render"
	"github.com/chrissnell/weatherface/internal/weather"
)

// The host event methods forward lifecycle events to the display controller
// on the loop goroutine. Each returns false if the engine is destroyed.

func (e *Engine) OnVisibilityChanged(visible bool) bool {
	return e.Post(func() { e.controller.OnVisibilityChanged(visible) })
}

func (e *Engine) OnAmbientModeChanged(ambient bool) bool {
	return e.Post(func() { e.controller.OnAmbientModeChanged(ambient) })
}

func (e *Engine) OnLowBitAmbientDetected(lowBit bool) bool {
	return e.Post(func() { e.controller.OnLowBitAmbientDetected(lowBit) })
}

func (e *Engine) OnTimeZoneChanged() bool {
	return e.Post(e.controller.OnTimeZoneChanged)
}

func (e *Engine) OnTimeTick() bool {
	return e.Post(e.controller.OnTimeTick)
}

func (e *Engine) OnApplyWindowInsets(insets display.Insets) bool {
	return e.Post(func() { e.controller.OnApplyWindowInsets(insets) })
}

func (e *Engine) OnTap(tap display.TapType) bool {
	return e.Post(func() { e.controller.OnTap(tap) })
}

// Status is a consistent view of the face taken on the loop goroutine.
type Status struct {
	Display   display.State    `json:"display"`
	Insets    display.Insets   `json:"insets"`
	Scheduler string           `json:"scheduler"`
	TimeTicks string           `json:"time_ticks"`
	Time      string           `json:"time"`
	Date      string           `json:"date"`
	Timezone  string           `json:"timezone"`
	Weather   weather.Snapshot `json:"weather"`
	Icon      string           `json:"icon"`
	Notice    *Notice          `json:"notice,omitempty"`
	Frames    int              `json:"frames"`
	LastError string           `json:"last_error,omitempty"`
}

// Status returns the face's current state. It fails with ErrDestroyed after
// Destroy, or with ctx's error if the loop does not answer in time.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	result := make(chan Status, 1)
	if !e.Post(func() { result <- e.status() }) {
		return Status{}, ErrDestroyed
	}
	select {
	case st := <-result:
		return st, nil
	case <-e.quit:
		return Status{}, ErrDestroyed
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (e *Engine) status() Status {
	now := e.clock.Now()
	w := e.store.Load()
	st := Status{
		Display:   e.controller.State(),
		Insets:    e.controller.Insets(),
		Scheduler: e.scheduler.State().String(),
		TimeTicks: e.timeTicks.State().String(),
		Time:      render.TimeText(now),
		Date:      render.DateText(now, e.renderer.DateLayout),
		Timezone:  now.Location.String(),
		Weather:   w,
		Icon:      icons.ClassifyOptional(w.IconCode).String(),
		Frames:    e.frames,
	}
	if e.notice.Text != "" && now.Time.Before(e.notice.Until) {
		n := e.notice
		st.Notice = &n
	}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	return st
}

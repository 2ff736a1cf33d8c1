package display

import (
	"github.com/chrissnell/weatherface/internal/log"
	"go.uber.org/zap"
)

// Scheduler is the part of the periodic redraw driver the controller needs.
type Scheduler interface {
	Start()
	Stop()
	Running() bool
}

// Hooks are the side effects a Controller triggers. Any of them may be nil.
type Hooks struct {
	// Invalidate requests one redraw.
	Invalidate func()
	// RefreshZone re-reads the timezone.
	RefreshZone func() error
	// ApplyInsets updates layout for the panel's shape.
	ApplyInsets func(Insets)
	// Notify shows a transient message to the user.
	Notify func(text string)
	// TimeTicks delivers OnTimeTick once a minute while the face is visible
	// and ambient.
	TimeTicks Scheduler
}

// TapMessage is the acknowledgment shown for a completed tap.
const TapMessage = "Tap received"

// Controller owns the State and reacts to host lifecycle events. All methods
// must be called from the goroutine that renders the face.
type Controller struct {
	state     State
	insets    Insets
	scheduler Scheduler
	hooks     Hooks
	logger    *zap.SugaredLogger
}

// NewController returns a Controller with every State field false.
func NewController(scheduler Scheduler, hooks Hooks, logger *zap.SugaredLogger) *Controller {
	if hooks.Invalidate == nil {
		hooks.Invalidate = func() {}
	}
	return &Controller{
		scheduler: scheduler,
		hooks:     hooks,
		logger:    log.OrNop(logger),
	}
}

// State returns a copy of the current display state.
func (c *Controller) State() State {
	return c.state
}

// Insets returns the last insets applied by the host.
func (c *Controller) Insets() Insets {
	return c.insets
}

// OnVisibilityChanged records visibility. Becoming visible re-reads the
// timezone, since a change may have been missed while hidden.
func (c *Controller) OnVisibilityChanged(visible bool) {
	c.state.Visible = visible
	if visible {
		c.refreshZone()
	}
	c.update("visibility")
}

// OnAmbientModeChanged records entry into or exit from ambient mode.
func (c *Controller) OnAmbientModeChanged(ambient bool) {
	c.state.Ambient = ambient
	c.update("ambient")
}

// OnLowBitAmbientDetected records whether the panel has reduced color depth
// in ambient mode.
func (c *Controller) OnLowBitAmbientDetected(lowBit bool) {
	c.state.LowBitAmbient = lowBit
	c.update("low-bit-ambient")
}

// OnTimeZoneChanged re-reads the timezone and redraws.
func (c *Controller) OnTimeZoneChanged() {
	c.refreshZone()
	c.update("timezone")
}

// OnApplyWindowInsets changes layout for a round or square panel.
func (c *Controller) OnApplyWindowInsets(insets Insets) {
	c.insets = insets
	if c.hooks.ApplyInsets != nil {
		c.hooks.ApplyInsets(insets)
	}
	c.hooks.Invalidate()
}

// OnTimeTick is the minute tick a host sends in ambient mode. It redraws and
// leaves the scheduler alone.
func (c *Controller) OnTimeTick() {
	c.hooks.Invalidate()
}

// OnTap acknowledges a completed tap and redraws for every phase.
func (c *Controller) OnTap(tap TapType) {
	c.logger.Debugf("tap event: %v", tap)
	if tap == TapComplete && c.hooks.Notify != nil {
		c.hooks.Notify(TapMessage)
	}
	c.hooks.Invalidate()
}

// update brings the scheduler in line with the state and redraws once. The
// scheduler is only toggled when its running state disagrees, so repeated
// events do not re-arm it.
func (c *Controller) update(reason string) {
	if toggle(c.scheduler, c.state.ShouldTick()) {
		c.logger.Debugf("%s: scheduler running=%v", reason, c.state.ShouldTick())
	}
	if toggle(c.hooks.TimeTicks, c.state.ShouldTimeTick()) {
		c.logger.Debugf("%s: ambient time ticks running=%v", reason, c.state.ShouldTimeTick())
	}
	c.hooks.Invalidate()
}

// toggle starts or stops s when its running state differs from should and
// reports whether it did.
func toggle(s Scheduler, should bool) bool {
	if s == nil || should == s.Running() {
		return false
	}
	if should {
		s.Start()
	} else {
		s.Stop()
	}
	return true
}

func (c *Controller) refreshZone() {
	if c.hooks.RefreshZone == nil {
		return
	}
	if err := c.hooks.RefreshZone(); err != nil {
		c.logger.Warnf("could not refresh timezone: %v", err)
	}
}

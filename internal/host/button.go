package host

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/log"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	periphhost "periph.io/x/host/v3"
)

// edgePoll bounds how long the button waits for an edge before checking
// for shutdown.
const edgePoll = 250 * time.Millisecond

// inputPin is the part of gpio.PinIn the button uses.
type inputPin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
	Halt() error
	String() string
}

// Button turns an active-low push button into tap events: pressing reports
// a touch, releasing reports a completed tap.
type Button struct {
	pin    inputPin
	face   Face
	logger *zap.SugaredLogger
}

// OpenButton configures the named GPIO pin with a pull-up and edge
// detection on both edges.
func OpenButton(name string, face Face, logger *zap.SugaredLogger) (*Button, error) {
	if _, err := periphhost.Init(); err != nil {
		return nil, fmt.Errorf("error initializing periph host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown GPIO pin %q", name)
	}
	return newButton(p, face, logger)
}

func newButton(p inputPin, face Face, logger *zap.SugaredLogger) (*Button, error) {
	if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("error configuring tap button on %s: %w", p, err)
	}
	return &Button{pin: p, face: face, logger: log.OrNop(logger)}, nil
}

// Start watches the button until ctx is cancelled or the face goes away.
func (b *Button) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.run(ctx)
	}()
}

func (b *Button) run(ctx context.Context) {
	b.logger.Infof("watching tap button on %s", b.pin)
	defer b.pin.Halt()

	pressed := false
	for ctx.Err() == nil {
		if !b.pin.WaitForEdge(edgePoll) {
			continue
		}
		level := b.pin.Read()
		var ok bool
		switch {
		case level == gpio.Low && !pressed:
			pressed = true
			ok = b.face.OnTap(display.TapTouch)
		case level == gpio.High && pressed:
			pressed = false
			ok = b.face.OnTap(display.TapComplete)
		default:
			// Bounce.
			continue
		}
		if !ok {
			b.logger.Info("face destroyed; tap button stopping")
			return
		}
	}
	if pressed {
		b.face.OnTap(display.TapTouchCancel)
	}
}

package companion

import (
	"context"
	"sync"

	"github.com/chrissnell/weatherface/internal/log"
	"github.com/chrissnell/weatherface/internal/weather"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ConnectionFailedMessage is the notice shown when the data service is
// unavailable.
const ConnectionFailedMessage = "Connection Failed"

// ConnectionCallbacks receive connection lifecycle changes from a Transport.
// They are called on transport goroutines.
type ConnectionCallbacks interface {
	OnConnected()
	OnSuspended(cause SuspendCause)
	OnConnectionFailed(reason FailureReason)
}

// DataListener receives batches of data events from a Transport.
type DataListener interface {
	OnDataChanged(events []DataEvent)
}

// Transport links the face to the companion. Connect must return without
// waiting for the connection; the outcome is reported through cb.
type Transport interface {
	Connect(ctx context.Context, cb ConnectionCallbacks)
	AddListener(l DataListener)
	RemoveListener(l DataListener)
	Disconnect() error
}

// Options wire a Channel into the face. Post hands work to the render
// goroutine and reports false once the face is gone; when nil, work runs on
// the calling goroutine.
type Options struct {
	Post       func(func()) bool
	Invalidate func()
	Notify     func(text string)
	Clock      clockwork.Clock
}

// Channel turns companion data events into weather snapshots.
type Channel struct {
	transport Transport
	store     *weather.Store
	opts      Options
	logger    *zap.SugaredLogger

	mu         sync.Mutex
	registered bool
	closed     bool
}

var (
	_ ConnectionCallbacks = (*Channel)(nil)
	_ DataListener        = (*Channel)(nil)
)

// NewChannel returns a Channel that writes accepted forecasts to store.
func NewChannel(transport Transport, store *weather.Store, opts Options, logger *zap.SugaredLogger) *Channel {
	if opts.Post == nil {
		opts.Post = func(fn func()) bool { fn(); return true }
	}
	if opts.Invalidate == nil {
		opts.Invalidate = func() {}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Channel{
		transport: transport,
		store:     store,
		opts:      opts,
		logger:    log.OrNop(logger),
	}
}

// Connect asks the transport to connect and returns immediately.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.transport.Connect(ctx, c)
}

// OnConnected registers the channel for data events.
func (c *Channel) OnConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.registered {
		return
	}
	c.transport.AddListener(c)
	c.registered = true
	c.logger.Info("connected to companion")
}

func (c *Channel) OnSuspended(cause SuspendCause) {
	c.logger.Infof("companion connection suspended: %v", cause)
}

// OnConnectionFailed logs the failure. An unavailable data service is also
// shown to the user.
func (c *Channel) OnConnectionFailed(reason FailureReason) {
	c.logger.Warnf("companion connection failed: %v", reason)
	if reason != ReasonAPIUnavailable || c.opts.Notify == nil {
		return
	}
	c.opts.Post(func() { c.opts.Notify(ConnectionFailedMessage) })
}

// OnDataChanged accepts changed forecast items. Each accepted item replaces
// the whole snapshot on the render goroutine and requests a redraw.
func (c *Channel) OnDataChanged(events []DataEvent) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	for _, ev := range events {
		if ev.Type != Changed || ev.Path != WeatherPath {
			c.logger.Debugf("ignoring %v event for %s", ev.Type, ev.Path)
			continue
		}
		snap, err := DecodeWeather(ev.Data)
		if err != nil {
			c.logger.Warnf("ignoring forecast: %v", err)
			continue
		}
		snap.ReceivedAt = c.opts.Clock.Now()

		if !c.opts.Post(func() {
			c.store.Replace(snap)
			c.opts.Invalidate()
		}) {
			c.logger.Debug("face is gone; dropping forecast")
			return
		}
	}
}

// Close deregisters the channel and disconnects the transport. Events that
// arrive afterwards are dropped.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	registered := c.registered
	c.registered = false
	c.mu.Unlock()

	if registered {
		c.transport.RemoveListener(c)
	}
	return c.transport.Disconnect()
}

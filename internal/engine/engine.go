// Package engine runs the face: one goroutine owns the display state, the
// pending redraw and every draw call. Everything else talks to it through
// Post.
package engine

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrissnell/weatherface/internal/clock"
	"github.com/chrissnell/weatherface/internal/companion"
	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/log"
	"github.com/chrissnell/weatherface/internal/panel"
	"github.com/chrissnell/weatherface/internal/render"
	"github.com/chrissnell/weatherface/internal/scheduler"
	"github.com/chrissnell/weatherface/internal/weather"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ErrDestroyed is returned by queries made after Destroy.
var ErrDestroyed = errors.New("engine destroyed")

// DefaultNoticeDuration is how long a transient notice stays up.
const DefaultNoticeDuration = 3500 * time.Millisecond

// Drawer turns a frame into pixels.
type Drawer interface {
	Draw(f render.Frame) (*image.RGBA, error)
}

// Config tunes the engine. Zero values select defaults.
type Config struct {
	TickPeriod     time.Duration
	NoticeDuration time.Duration
	QueueSize      int
}

// Deps are the parts the engine drives. Transport may be nil for a face
// without a companion. A nil Renderer selects the default look, measuring
// text with Drawer when it can.
type Deps struct {
	Clock     *clock.Source
	Renderer  *render.Renderer
	Drawer    Drawer
	Panel     panel.Panel
	Transport companion.Transport
}

// Engine is the face's render loop.
type Engine struct {
	cfg    Config
	clock  *clock.Source
	timers clockwork.Clock
	store  *weather.Store
	drawer Drawer
	panel  panel.Panel
	logger *zap.SugaredLogger

	scheduler  *scheduler.Scheduler
	timeTicks  *scheduler.Scheduler
	controller *display.Controller
	channel    *companion.Channel

	tasks chan func()
	wake  chan struct{}
	quit  chan struct{}
	done  chan struct{}
	alive atomic.Bool
	dirty atomic.Bool

	startOnce   sync.Once
	destroyOnce sync.Once

	// Owned by the loop goroutine.
	renderer    render.Renderer
	notice      Notice
	noticeTimer clockwork.Timer
	noticeGen   uint64
	frames      int
	lastErr     error
}

// Notice is a transient message drawn over the face.
type Notice struct {
	Text  string    `json:"text" msgpack:"text"`
	Until time.Time `json:"until" msgpack:"until"`
}

// New wires an engine. It does not start the loop; call Start.
func New(cfg Config, deps Deps, logger *zap.SugaredLogger) *Engine {
	logger = log.OrNop(logger)
	if cfg.NoticeDuration <= 0 {
		cfg.NoticeDuration = DefaultNoticeDuration
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSource(nil, nil)
	}
	if deps.Panel == nil {
		deps.Panel = panel.NewMemory(0, 0)
	}
	var renderer render.Renderer
	if deps.Renderer != nil {
		renderer = *deps.Renderer
	} else {
		m, _ := deps.Drawer.(render.Measurer)
		renderer = render.New(m)
	}

	e := &Engine{
		cfg:      cfg,
		clock:    deps.Clock,
		timers:   deps.Clock.Clock(),
		store:    weather.NewStore(),
		drawer:   deps.Drawer,
		panel:    deps.Panel,
		renderer: renderer,
		logger:   logger,
		tasks:    make(chan func(), cfg.QueueSize),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	e.alive.Store(true)

	e.scheduler = scheduler.New(e.timers, cfg.TickPeriod, e.Post, e.Invalidate, logger.Named("scheduler"))
	// Ambient mode stops the scheduler; the host then owes the face a minute
	// tick, which for a daemon is a second scheduler fixed at one minute.
	e.timeTicks = scheduler.New(e.timers, scheduler.DefaultPeriod, e.Post, func() { e.controller.OnTimeTick() }, logger.Named("time-tick"))
	e.controller = display.NewController(e.scheduler, display.Hooks{
		Invalidate:  e.Invalidate,
		RefreshZone: e.clock.RefreshZone,
		ApplyInsets: func(in display.Insets) { e.renderer = e.renderer.WithInsets(in) },
		Notify:      e.showNotice,
		TimeTicks:   e.timeTicks,
	}, logger.Named("display"))

	if deps.Transport != nil {
		e.channel = companion.NewChannel(deps.Transport, e.store, companion.Options{
			Post:       e.Post,
			Invalidate: e.Invalidate,
			Notify:     e.showNotice,
			Clock:      e.timers,
		}, logger.Named("companion"))
	}
	return e
}

// Start launches the loop and connects to the companion. Cancelling ctx
// destroys the engine.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		go e.loop()
		if e.channel != nil {
			e.channel.Connect(ctx)
		}
		go func() {
			select {
			case <-ctx.Done():
				e.Destroy()
			case <-e.quit:
			}
		}()
		e.Invalidate()
	})
}

// Post hands fn to the loop. It returns false, dropping fn, once the engine
// is destroyed.
func (e *Engine) Post(fn func()) bool {
	if !e.alive.Load() {
		return false
	}
	select {
	case e.tasks <- fn:
		return true
	case <-e.quit:
		return false
	}
}

// Invalidate requests a redraw. Requests made before the loop gets to draw
// are coalesced into one frame.
func (e *Engine) Invalidate() {
	if e.dirty.Swap(true) {
		return
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Alive reports whether the engine still accepts work.
func (e *Engine) Alive() bool {
	return e.alive.Load()
}

// Done is closed once the loop has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Destroy stops both schedulers, flips the liveness flag, stops the loop and
// closes the companion channel. It blocks until the loop has exited, so it
// must not be called from a posted function. Later calls do nothing.
func (e *Engine) Destroy() {
	e.destroyOnce.Do(func() {
		e.logger.Info("destroying face engine")
		e.scheduler.Close()
		e.timeTicks.Close()
		e.alive.Store(false)
		close(e.quit)

		// An engine that never started has no loop to wait for.
		e.startOnce.Do(func() { close(e.done) })
		<-e.done

		if e.channel != nil {
			if err := e.channel.Close(); err != nil {
				e.logger.Warnf("error closing companion channel: %v", err)
			}
		}
	})
}

func (e *Engine) loop() {
	defer close(e.done)
	for {
		select {
		case <-e.quit:
			e.stopNoticeTimer()
			return
		case fn := <-e.tasks:
			fn()
		case <-e.wake:
		}
		if e.dirty.Swap(false) {
			e.draw()
		}
	}
}

// draw renders and shows one frame. Failures are logged; the next redraw
// tries again.
func (e *Engine) draw() {
	b := e.panel.Bounds()
	bounds := render.Bounds{Width: b.Dx(), Height: b.Dy()}
	now := e.clock.Now()

	frame := e.renderer.Render(now, e.controller.State(), e.store.Load(), bounds)
	if e.notice.Text != "" && now.Time.Before(e.notice.Until) {
		frame = e.renderer.WithNotice(frame, e.notice.Text)
	}

	if e.drawer == nil {
		e.frames++
		return
	}
	img, err := e.drawer.Draw(frame)
	if err != nil {
		e.logger.Errorf("could not rasterize frame: %v", err)
		e.lastErr = err
		return
	}
	if err := e.panel.Show(img); err != nil {
		e.logger.Errorf("could not show frame: %v", err)
		e.lastErr = err
		return
	}
	e.lastErr = nil
	e.frames++
}

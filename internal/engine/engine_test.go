package engine

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/weatherface/internal/clock"
	"github.com/chrissnell/weatherface/internal/companion"
	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/icons"
	"github.com/chrissnell/weatherface/internal/panel"
	"github.com/chrissnell/weatherface/internal/render"
	"github.com/jonboulle/clockwork"
)

const waitFor = 2 * time.Second

var start = time.Date(2024, time.June, 1, 14, 5, 30, 0, time.UTC)

type frameRecorder struct {
	frames chan render.Frame
}

func (r *frameRecorder) Draw(f render.Frame) (*image.RGBA, error) {
	select {
	case r.frames <- f:
	default:
	}
	return image.NewRGBA(image.Rect(0, 0, f.Bounds.Width, f.Bounds.Height)), nil
}

type fakeTransport struct {
	mu          sync.Mutex
	cb          companion.ConnectionCallbacks
	listener    companion.DataListener
	disconnects int
	connected   chan struct{}
}

func (f *fakeTransport) Connect(ctx context.Context, cb companion.ConnectionCallbacks) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
	go func() {
		cb.OnConnected()
		close(f.connected)
	}()
}

func (f *fakeTransport) AddListener(l companion.DataListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

func (f *fakeTransport) RemoveListener(l companion.DataListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = nil
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeTransport) push(events ...companion.DataEvent) {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		l.OnDataChanged(events)
	}
}

type harness struct {
	t         *testing.T
	clock     clockwork.FakeClock
	engine    *Engine
	frames    *frameRecorder
	panel     *panel.Memory
	transport *fakeTransport
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fc := clockwork.NewFakeClockAt(start)
	rec := &frameRecorder{frames: make(chan render.Frame, 64)}
	mem := panel.NewMemory(320, 320)
	tr := &fakeTransport{connected: make(chan struct{})}
	measure := render.MeasureFunc(func(s string, size float64) float64 {
		return float64(len([]rune(s))) * size * 0.5
	})

	renderer := render.New(measure)
	e := New(Config{}, Deps{
		Clock:     clock.NewSource(fc, clock.FixedZone(time.UTC)),
		Renderer:  &renderer,
		Drawer:    rec,
		Panel:     mem,
		Transport: tr,
	}, nil)
	e.Start(context.Background())
	t.Cleanup(e.Destroy)

	select {
	case <-tr.connected:
	case <-time.After(waitFor):
		t.Fatal("transport never connected")
	}
	return &harness{t: t, clock: fc, engine: e, frames: rec, panel: mem, transport: tr}
}

// waitFrame returns the first frame for which ok is true.
func (h *harness) waitFrame(what string, ok func(render.Frame) bool) render.Frame {
	h.t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case f := <-h.frames.frames:
			if ok(f) {
				return f
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for frame with %s", what)
			return render.Frame{}
		}
	}
}

func (h *harness) status() Status {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	st, err := h.engine.Status(ctx)
	if err != nil {
		h.t.Fatalf("Status() error = %v", err)
	}
	return st
}

func hasText(role render.Role, text string) func(render.Frame) bool {
	return func(f render.Frame) bool {
		t, ok := f.TextByRole(role)
		return ok && t.Text == text
	}
}

func lacks(role render.Role) func(render.Frame) bool {
	return func(f render.Frame) bool {
		_, ok := f.TextByRole(role)
		return !ok
	}
}

func forecast(path string, icon int, high, low string) companion.DataEvent {
	return companion.DataEvent{
		Type: companion.Changed,
		Path: path,
		Data: map[string]any{companion.KeyIconID: icon, companion.KeyHighTemp: high, companion.KeyLowTemp: low},
	}
}

func TestInitialFrame(t *testing.T) {
	h := newHarness(t)
	f := h.waitFrame("time 2:05", hasText(render.RoleTime, "2:05"))
	if d, _ := f.TextByRole(render.RoleDate); d.Text != "Sat, Jun 01 2024" {
		t.Errorf("date = %q, want %q", d.Text, "Sat, Jun 01 2024")
	}
	if len(f.Icons()) != 0 {
		t.Errorf("weather panel drawn before any forecast")
	}
	if st := h.status(); st.Scheduler != "stopped" || st.Display != (display.State{}) {
		t.Errorf("initial status = %+v, want hidden and stopped", st)
	}
}

func TestForecastRedraws(t *testing.T) {
	h := newHarness(t)
	h.transport.push(forecast(companion.WeatherPath, 801, "75", "60"))

	f := h.waitFrame("high temp", hasText(render.RoleHighTemp, "75°"))
	if lo, _ := f.TextByRole(render.RoleLowTemp); lo.Text != "60°" {
		t.Errorf("low = %q, want 60°", lo.Text)
	}
	if ic := f.Icons(); len(ic) != 1 || ic[0].Category != icons.LightClouds {
		t.Errorf("icons = %+v, want light-clouds", ic)
	}

	h.transport.push(forecast("/other-data", 200, "1", "2"))
	st := h.status()
	if *st.Weather.HighTemp != "75" || st.Icon != icons.LightClouds.String() {
		t.Errorf("status after /other-data = %+v, want unchanged forecast", st)
	}
}

func TestSchedulerFollowsHostEvents(t *testing.T) {
	h := newHarness(t)

	h.engine.OnVisibilityChanged(true)
	if st := h.status(); st.Scheduler != "running" {
		t.Fatalf("scheduler = %s after visible, want running", st.Scheduler)
	}

	h.engine.OnAmbientModeChanged(true)
	h.engine.OnLowBitAmbientDetected(true)
	st := h.status()
	if st.Scheduler != "stopped" {
		t.Errorf("scheduler = %s in ambient, want stopped", st.Scheduler)
	}
	f := h.waitFrame("low-bit ambient frame", func(f render.Frame) bool {
		tm, ok := f.TextByRole(render.RoleTime)
		return ok && !tm.AntiAlias
	})
	if c, ok := f.Commands[0].(render.Clear); !ok || c.Color != render.Black {
		t.Errorf("ambient frame starts with %#v, want a black Clear", f.Commands[0])
	}

	h.engine.OnAmbientModeChanged(false)
	if st := h.status(); st.Scheduler != "running" {
		t.Errorf("scheduler = %s after leaving ambient, want running", st.Scheduler)
	}
}

func TestMinuteTick(t *testing.T) {
	h := newHarness(t)
	h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))

	h.engine.OnVisibilityChanged(true)
	h.status()

	h.clock.Advance(30 * time.Second)
	h.waitFrame("time 2:06", hasText(render.RoleTime, "2:06"))

	h.clock.Advance(time.Minute)
	h.waitFrame("time 2:07", hasText(render.RoleTime, "2:07"))
}

func TestAmbientClockKeepsTime(t *testing.T) {
	h := newHarness(t)
	h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))

	h.engine.OnVisibilityChanged(true)
	h.engine.OnAmbientModeChanged(true)
	st := h.status()
	if st.Scheduler != "stopped" || st.TimeTicks != "running" {
		t.Fatalf("ambient status = %s/%s, want stopped scheduler and running time ticks", st.Scheduler, st.TimeTicks)
	}

	h.clock.Advance(30 * time.Second)
	h.waitFrame("ambient time 2:06", hasText(render.RoleTime, "2:06"))

	h.clock.Advance(10 * time.Minute)
	h.waitFrame("ambient time 2:16", hasText(render.RoleTime, "2:16"))

	h.engine.OnAmbientModeChanged(false)
	if st := h.status(); st.Scheduler != "running" || st.TimeTicks != "stopped" {
		t.Errorf("interactive status = %s/%s, want running scheduler and stopped time ticks", st.Scheduler, st.TimeTicks)
	}
}

func TestTimeTickRedraws(t *testing.T) {
	h := newHarness(t)
	h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))
	before := h.status().Frames

	if !h.engine.OnTimeTick() {
		t.Fatal("OnTimeTick() = false on a live engine")
	}
	st := h.status()
	if st.Frames != before+1 {
		t.Errorf("frames = %d after time tick, want %d", st.Frames, before+1)
	}
	if st.Scheduler != "stopped" {
		t.Errorf("time tick started the scheduler")
	}
}

func TestHiddenFaceDoesNotTick(t *testing.T) {
	h := newHarness(t)
	h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))
	before := h.status().Frames

	h.clock.Advance(2 * time.Minute)
	if got := h.status().Frames; got != before {
		t.Errorf("frames = %d after hidden minutes, want %d", got, before)
	}
}

func TestTapNoticeExpires(t *testing.T) {
	h := newHarness(t)
	h.engine.OnTap(display.TapComplete)

	h.waitFrame("tap notice", hasText(render.RoleNotice, display.TapMessage))
	if st := h.status(); st.Notice == nil || st.Notice.Text != display.TapMessage {
		t.Errorf("status notice = %+v, want %q", st.Notice, display.TapMessage)
	}

	h.clock.Advance(DefaultNoticeDuration)
	h.waitFrame("notice cleared", lacks(render.RoleNotice))
	if st := h.status(); st.Notice != nil {
		t.Errorf("status notice = %+v after expiry, want none", st.Notice)
	}
}

func TestConnectionFailedNotice(t *testing.T) {
	h := newHarness(t)
	h.transport.cb.OnConnectionFailed(companion.ReasonAPIUnavailable)
	h.waitFrame("connection notice", hasText(render.RoleNotice, companion.ConnectionFailedMessage))
}

func TestInsetsChangeLayout(t *testing.T) {
	h := newHarness(t)
	square := h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))

	h.engine.OnApplyWindowInsets(display.Insets{Round: true})
	h.waitFrame("round layout", func(f render.Frame) bool {
		tm, _ := f.TextByRole(render.RoleTime)
		sq, _ := square.TextByRole(render.RoleTime)
		return tm.Size > sq.Size
	})
	if st := h.status(); !st.Insets.Round {
		t.Errorf("status insets = %+v, want round", st.Insets)
	}
}

func TestInvalidateCoalesces(t *testing.T) {
	h := newHarness(t)
	h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))
	before := h.status().Frames

	release := make(chan struct{})
	h.engine.Post(func() { <-release })
	for i := 0; i < 10; i++ {
		h.engine.Invalidate()
	}
	close(release)

	if got := h.status().Frames; got != before+1 {
		t.Errorf("frames = %d after 10 invalidations, want %d", got, before+1)
	}
}

func TestPanelFailureIsRetried(t *testing.T) {
	h := newHarness(t)
	h.waitFrame("first frame", hasText(render.RoleTime, "2:05"))
	h.status()
	shown := h.panel.Frames()

	h.panel.FailWith(errors.New("bus error"))
	h.engine.Invalidate()
	if st := h.status(); st.LastError == "" {
		t.Errorf("status LastError empty after a failed write")
	}

	h.panel.FailWith(nil)
	h.engine.Invalidate()
	if st := h.status(); st.LastError != "" {
		t.Errorf("LastError = %q after a good write, want empty", st.LastError)
	}
	if h.panel.Frames() != shown+1 {
		t.Errorf("panel frames = %d, want %d", h.panel.Frames(), shown+1)
	}
}

func TestDestroy(t *testing.T) {
	h := newHarness(t)
	h.engine.OnVisibilityChanged(true)
	h.status()

	h.engine.Destroy()
	h.engine.Destroy()

	if h.engine.Alive() {
		t.Errorf("Alive() = true after Destroy")
	}
	if h.engine.Post(func() {}) {
		t.Errorf("Post() = true after Destroy")
	}
	if h.engine.OnTap(display.TapComplete) {
		t.Errorf("host event accepted after Destroy")
	}
	if _, err := h.engine.Status(context.Background()); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Status() error = %v, want %v", err, ErrDestroyed)
	}
	if h.transport.disconnects != 1 {
		t.Errorf("transport disconnects = %d, want 1", h.transport.disconnects)
	}
	select {
	case <-h.engine.Done():
	default:
		t.Errorf("Done() not closed after Destroy")
	}

	// Late data and ticks are dropped without drawing.
	h.transport.push(forecast(companion.WeatherPath, 800, "1", "2"))
	h.clock.Advance(time.Minute)
	select {
	case f := <-h.frames.frames:
		if _, ok := f.TextByRole(render.RoleHighTemp); ok {
			t.Errorf("frame drawn for data pushed after Destroy")
		}
	default:
	}
}

func TestDestroyBeforeStart(t *testing.T) {
	e := New(Config{}, Deps{}, nil)
	done := make(chan struct{})
	go func() {
		e.Destroy()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Destroy blocked on an engine that never started")
	}
	if e.Post(func() {}) {
		t.Errorf("Post() = true after Destroy")
	}
}

func TestCancelContextDestroys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := New(Config{}, Deps{}, nil)
	e.Start(ctx)
	cancel()
	select {
	case <-e.Done():
	case <-time.After(waitFor):
		t.Fatal("engine still running after context cancel")
	}
}

func TestCallerRendererIsKept(t *testing.T) {
	// An unscaled layout is a valid choice and must not be swapped for the
	// default one.
	renderer := render.New(nil)
	renderer.Square.Reference = 0
	renderer.Square.TimeSize = 12

	rec := &frameRecorder{frames: make(chan render.Frame, 64)}
	e := New(Config{}, Deps{
		Clock:    clock.NewSource(clockwork.NewFakeClockAt(start), clock.FixedZone(time.UTC)),
		Renderer: &renderer,
		Drawer:   rec,
		Panel:    panel.NewMemory(320, 320),
	}, nil)
	e.Start(context.Background())
	t.Cleanup(e.Destroy)

	h := &harness{t: t, engine: e, frames: rec}
	f := h.waitFrame("time 2:05", hasText(render.RoleTime, "2:05"))
	if tm, _ := f.TextByRole(render.RoleTime); tm.Size != 12 {
		t.Errorf("time size = %v, want the caller's unscaled 12", tm.Size)
	}
}

func TestDefaultRenderer(t *testing.T) {
	rec := &frameRecorder{frames: make(chan render.Frame, 64)}
	e := New(Config{}, Deps{
		Clock:  clock.NewSource(clockwork.NewFakeClockAt(start), clock.FixedZone(time.UTC)),
		Drawer: rec,
		Panel:  panel.NewMemory(320, 320),
	}, nil)
	e.Start(context.Background())
	t.Cleanup(e.Destroy)

	h := &harness{t: t, engine: e, frames: rec}
	f := h.waitFrame("time 2:05", hasText(render.RoleTime, "2:05"))
	if tm, _ := f.TextByRole(render.RoleTime); tm.Size != render.SquareLayout().TimeSize {
		t.Errorf("time size = %v, want the default %v", tm.Size, render.SquareLayout().TimeSize)
	}
}

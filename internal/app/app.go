package app

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/weatherface/internal/clock"
	"github.com/chrissnell/weatherface/internal/companion"
	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/engine"
	"github.com/chrissnell/weatherface/internal/host"
	"github.com/chrissnell/weatherface/internal/log"
	"github.com/chrissnell/weatherface/internal/panel"
	"github.com/chrissnell/weatherface/internal/raster"
	"github.com/chrissnell/weatherface/internal/render"
	"github.com/chrissnell/weatherface/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance. Defaults are applied to cfg and it
// is validated before anything is opened.
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) (*App, error) {
	logger = log.OrNop(logger)
	cfg.ApplyDefaults(logger)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &App{cfg: cfg, logger: logger}, nil
}

// face is everything Run starts and tears down.
type face struct {
	engine *engine.Engine
	panel  panel.Panel
	source *clock.Source
}

// build opens the panel and wires the engine without starting it.
func (a *App) build() (*face, error) {
	source := clock.NewSource(nil, clock.SystemZone(a.cfg.Clock.Timezone))

	p, err := panel.Open(panel.Config{
		Backend: a.cfg.Display.Backend,
		I2CBus:  a.cfg.Display.I2CBus,
		SPIPort: a.cfg.Display.SPIPort,
		Width:   a.cfg.Display.Width,
		Height:  a.cfg.Display.Height,
		Path:    a.cfg.Display.Path,
	}, a.logger.Named("panel"))
	if err != nil {
		return nil, fmt.Errorf("error opening %s panel: %w", a.cfg.Display.Backend, err)
	}

	rast, err := raster.New()
	if err != nil {
		p.Close()
		return nil, err
	}

	renderer := render.New(rast)
	renderer.DateLayout = a.cfg.Display.DateLayout
	if renderer.Theme, err = theme(a.cfg.Theme); err != nil {
		p.Close()
		return nil, err
	}

	transport, err := a.transport(source)
	if err != nil {
		p.Close()
		return nil, err
	}

	tick, _ := a.cfg.Display.TickPeriodDuration()
	e := engine.New(engine.Config{TickPeriod: tick}, engine.Deps{
		Clock:     source,
		Renderer:  &renderer,
		Drawer:    rast,
		Panel:     p,
		Transport: transport,
	}, a.logger.Named("engine"))

	return &face{engine: e, panel: p, source: source}, nil
}

func (a *App) transport(source *clock.Source) (companion.Transport, error) {
	cc := a.cfg.Companion
	logger := a.logger.Named("companion")

	switch cc.Transport {
	case "tcp":
		retry, _ := cc.RetryDuration()
		readTimeout, _ := cc.ReadTimeoutDuration()
		t := companion.NewTCPTransport(cc.Address, retry, source.Clock(), logger)
		t.SetReadTimeout(readTimeout)
		logger.Infof("companion node %s will connect to %s", t.Node(), cc.Address)
		return t, nil
	case "http":
		logger.Infof("companion pushes accepted on %s", cc.ListenAddr)
		return companion.NewHTTPTransport(cc.ListenAddr, logger), nil
	case "none":
		logger.Info("no companion configured; the weather panel stays empty")
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported companion transport %q", cc.Transport)
}

// theme overlays the configured colors on the built-in theme.
func theme(td config.ThemeData) (render.Theme, error) {
	t := render.DefaultTheme()
	fields := []struct {
		name  string
		value string
		dst   *color.RGBA
	}{
		{"background", td.Background, &t.Background},
		{"text", td.Text, &t.Text},
		{"secondary", td.Secondary, &t.Secondary},
		{"divider", td.Divider, &t.Divider},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		c, err := render.ParseColor(f.value)
		if err != nil {
			return render.Theme{}, fmt.Errorf("theme.%s: %w", f.name, err)
		}
		*f.dst = c
	}
	return t, nil
}

// start applies the configured panel shape and shows the face. A daemon's
// panel is always on screen, so the face starts visible.
func (a *App) start(ctx context.Context, f *face) {
	f.engine.Start(ctx)
	f.engine.OnApplyWindowInsets(display.Insets{
		Round:      a.cfg.Display.Round,
		ChinHeight: a.cfg.Display.ChinHeight,
	})
	f.engine.OnLowBitAmbientDetected(a.cfg.Display.LowBitAmbient)
	f.engine.OnVisibilityChanged(true)
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f, err := a.build()
	if err != nil {
		return err
	}
	a.start(ctx, f)

	if !a.cfg.Host.Disabled {
		hc := host.NewController(ctx, &wg, f.engine, host.Config{
			ListenAddr: a.cfg.Host.ListenAddr,
			Port:       a.cfg.Host.Port,
		}, a.logger.Named("host"))
		if err := hc.StartController(); err != nil {
			cancel()
			f.engine.Destroy()
			f.panel.Close()
			return err
		}
	}
	if a.cfg.Host.TapPin != "" {
		b, err := host.OpenButton(a.cfg.Host.TapPin, f.engine, a.logger.Named("button"))
		if err != nil {
			a.logger.Errorf("tap button disabled: %v", err)
		} else {
			b.Start(ctx, &wg)
		}
	}

	log.Info("weatherface started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

wait:
	for {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				log.Info("SIGHUP received; re-reading the time zone")
				f.engine.OnTimeZoneChanged()
				continue
			}
			log.Info("shutdown signal received, initiating graceful shutdown...")
			break wait
		case <-f.engine.Done():
			log.Info("face engine stopped, shutting down...")
			break wait
		case <-ctx.Done():
			log.Info("context cancelled, shutting down...")
			break wait
		}
	}

	// Cancel context to signal all goroutines to stop
	cancel()
	f.engine.Destroy()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	if err := f.panel.Close(); err != nil {
		a.logger.Warnf("error closing panel: %v", err)
	}
	log.Info("shutdown complete")

	return nil
}

// Package host feeds lifecycle events from the device running the face into
// the engine: an HTTP control API and a GPIO tap button.
package host

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/engine"
	"github.com/chrissnell/weatherface/internal/log"
	"github.com/chrissnell/weatherface/pkg/responseformat"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Face is the part of the engine the host adapters drive. Every event method
// returns false once the face is destroyed.
type Face interface {
	OnVisibilityChanged(visible bool) bool
	OnAmbientModeChanged(ambient bool) bool
	OnLowBitAmbientDetected(lowBit bool) bool
	OnTimeZoneChanged() bool
	OnTimeTick() bool
	OnApplyWindowInsets(insets display.Insets) bool
	OnTap(tap display.TapType) bool
	Status(ctx context.Context) (engine.Status, error)
}

// Config is where the control API listens.
type Config struct {
	ListenAddr string
	Port       int
}

// Controller serves the host control API.
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	face      Face
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger
	Server    http.Server
}

// NewController builds the control API. It does not listen until
// StartController is called.
func NewController(ctx context.Context, wg *sync.WaitGroup, face Face, cfg Config, logger *zap.SugaredLogger) *Controller {
	logger = log.OrNop(logger)
	if cfg.Port == 0 {
		logger.Info("host control API port not specified; defaulting to 8090")
		cfg.Port = 8090
	}
	if cfg.ListenAddr == "" {
		logger.Info("host control API listen-addr not provided; defaulting to 127.0.0.1 (localhost only)")
		cfg.ListenAddr = "127.0.0.1"
	}

	c := &Controller{
		ctx:       ctx,
		wg:        wg,
		face:      face,
		formatter: responseformat.NewFormatter(),
		logger:    logger,
	}
	c.Server.Addr = fmt.Sprintf("%v:%v", cfg.ListenAddr, cfg.Port)
	c.Server.Handler = c.setupRouter()
	return c
}

// StartController serves until the controller's context is cancelled.
func (c *Controller) StartController() error {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Infof("host control API starting on %s", c.Server.Addr)
		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			c.logger.Errorf("host control API server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		c.logger.Info("shutting down the host control API...")
		c.Server.Shutdown(context.Background())
	}()
	return nil
}

func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(c.logger))

	router.HandleFunc("/host/visibility", c.postVisibility).Methods("POST")
	router.HandleFunc("/host/ambient", c.postAmbient).Methods("POST")
	router.HandleFunc("/host/low-bit-ambient", c.postLowBitAmbient).Methods("POST")
	router.HandleFunc("/host/timezone", c.postTimeZone).Methods("POST")
	router.HandleFunc("/host/time-tick", c.postTimeTick).Methods("POST")
	router.HandleFunc("/host/insets", c.postInsets).Methods("POST")
	router.HandleFunc("/host/tap", c.postTap).Methods("POST")
	router.HandleFunc("/host/state", c.getState).Methods("GET")
	return router
}

package config

import (
	"fmt"

	"go.uber.org/zap"
)

// Accepted values for the enumerated settings.
var (
	DisplayBackends     = []string{"ssd1306", "epaper", "png", "memory"}
	CompanionTransports = []string{"tcp", "http", "none"}
)

const (
	DefaultBackend       = "png"
	DefaultPNGPath       = "weatherface.png"
	DefaultSize          = 320
	DefaultTickPeriod    = "1m"
	DefaultDateLayout    = "Mon, Jan 02 2006"
	DefaultTransport     = "tcp"
	DefaultAddress       = "127.0.0.1:7070"
	DefaultPushAddr      = "127.0.0.1:7071"
	DefaultRetryInterval = "5s"
)

// ApplyDefaults fills in every setting left empty, logging each default it
// picks.
func (c *ConfigData) ApplyDefaults(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	d := &c.Display
	if d.Backend == "" {
		logger.Infof("display.backend not provided; defaulting to %s", DefaultBackend)
		d.Backend = DefaultBackend
	}
	if d.Backend == "png" && d.Path == "" {
		logger.Infof("display.path not provided; defaulting to %s", DefaultPNGPath)
		d.Path = DefaultPNGPath
	}
	if d.Backend == "png" || d.Backend == "memory" {
		if d.Width == 0 {
			logger.Infof("display.width not provided; defaulting to %d", DefaultSize)
			d.Width = DefaultSize
		}
		if d.Height == 0 {
			logger.Infof("display.height not provided; defaulting to %d", DefaultSize)
			d.Height = DefaultSize
		}
	}
	if d.TickPeriod == "" {
		logger.Infof("display.tick-period not provided; defaulting to %s", DefaultTickPeriod)
		d.TickPeriod = DefaultTickPeriod
	}
	if d.DateLayout == "" {
		d.DateLayout = DefaultDateLayout
	}

	cp := &c.Companion
	if cp.Transport == "" {
		logger.Infof("companion.transport not provided; defaulting to %s", DefaultTransport)
		cp.Transport = DefaultTransport
	}
	switch cp.Transport {
	case "tcp":
		if cp.Address == "" {
			logger.Infof("companion.address not provided; defaulting to %s", DefaultAddress)
			cp.Address = DefaultAddress
		}
		if cp.RetryInterval == "" {
			logger.Infof("companion.retry-interval not provided; defaulting to %s", DefaultRetryInterval)
			cp.RetryInterval = DefaultRetryInterval
		}
	case "http":
		if cp.ListenAddr == "" {
			logger.Infof("companion.listen-addr not provided; defaulting to %s (localhost only)", DefaultPushAddr)
			cp.ListenAddr = DefaultPushAddr
		}
	}

	if c.Clock.Timezone == "" {
		logger.Info("clock.timezone not provided; following the system time zone")
	}
}

// Validate reports the first setting that cannot be used.
func (c *ConfigData) Validate() error {
	if !oneOf(c.Display.Backend, DisplayBackends) {
		return fmt.Errorf("display.backend %q is not one of %v", c.Display.Backend, DisplayBackends)
	}
	if c.Display.Backend == "png" && c.Display.Path == "" {
		return fmt.Errorf("display.path is required for the png backend")
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("display size %dx%d must not be negative", c.Display.Width, c.Display.Height)
	}
	if c.Display.ChinHeight < 0 {
		return fmt.Errorf("display.chin-height %d must not be negative", c.Display.ChinHeight)
	}
	if _, err := c.Display.TickPeriodDuration(); err != nil {
		return err
	}

	if !oneOf(c.Companion.Transport, CompanionTransports) {
		return fmt.Errorf("companion.transport %q is not one of %v", c.Companion.Transport, CompanionTransports)
	}
	if c.Companion.Transport == "tcp" && c.Companion.Address == "" {
		return fmt.Errorf("companion.address is required for the tcp transport")
	}
	if c.Companion.Transport == "http" && c.Companion.ListenAddr == "" {
		return fmt.Errorf("companion.listen-addr is required for the http transport")
	}
	if _, err := c.Companion.RetryDuration(); err != nil {
		return err
	}
	if _, err := c.Companion.ReadTimeoutDuration(); err != nil {
		return err
	}

	if c.Host.Port < 0 || c.Host.Port > 65535 {
		return fmt.Errorf("host.port %d is out of range", c.Host.Port)
	}
	return nil
}

func oneOf(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"time"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetDisplay() (*DisplayData, error)
	GetCompanion() (*CompanionData, error)
	GetHost() (*HostData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration of a face
type ConfigData struct {
	Display   DisplayData   `json:"display" yaml:"display"`
	Theme     ThemeData     `json:"theme,omitempty" yaml:"theme,omitempty"`
	Companion CompanionData `json:"companion" yaml:"companion"`
	Host      HostData      `json:"host" yaml:"host"`
	Clock     ClockData     `json:"clock,omitempty" yaml:"clock,omitempty"`
}

// DisplayData selects the panel and how the face is laid out on it
type DisplayData struct {
	Backend       string `json:"backend,omitempty" yaml:"backend,omitempty"`
	I2CBus        string `json:"i2c_bus,omitempty" yaml:"i2c-bus,omitempty"`
	SPIPort       string `json:"spi_port,omitempty" yaml:"spi-port,omitempty"`
	Width         int    `json:"width,omitempty" yaml:"width,omitempty"`
	Height        int    `json:"height,omitempty" yaml:"height,omitempty"`
	Path          string `json:"path,omitempty" yaml:"path,omitempty"`
	Round         bool   `json:"round,omitempty" yaml:"round,omitempty"`
	ChinHeight    int    `json:"chin_height,omitempty" yaml:"chin-height,omitempty"`
	LowBitAmbient bool   `json:"low_bit_ambient,omitempty" yaml:"low-bit-ambient,omitempty"`
	TickPeriod    string `json:"tick_period,omitempty" yaml:"tick-period,omitempty"`
	DateLayout    string `json:"date_layout,omitempty" yaml:"date-layout,omitempty"`
}

// ThemeData holds colors as "#rrggbb" strings. Empty fields keep the
// built-in theme.
type ThemeData struct {
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	Secondary  string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Divider    string `json:"divider,omitempty" yaml:"divider,omitempty"`
}

// CompanionData configures the link to the companion that pushes forecasts
type CompanionData struct {
	Transport     string `json:"transport,omitempty" yaml:"transport,omitempty"`
	Address       string `json:"address,omitempty" yaml:"address,omitempty"`
	ListenAddr    string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty"`
	RetryInterval string `json:"retry_interval,omitempty" yaml:"retry-interval,omitempty"`
	ReadTimeout   string `json:"read_timeout,omitempty" yaml:"read-timeout,omitempty"`
}

// HostData configures the host control API and tap button
type HostData struct {
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen-addr,omitempty"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty"`
	Disabled   bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	TapPin     string `json:"tap_pin,omitempty" yaml:"tap-pin,omitempty"`
}

// ClockData names the face's time zone. Empty means the system zone.
type ClockData struct {
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// TickPeriodDuration returns the display tick period.
func (d DisplayData) TickPeriodDuration() (time.Duration, error) {
	return parseDuration("display tick-period", d.TickPeriod)
}

// RetryDuration returns the companion reconnect interval.
func (c CompanionData) RetryDuration() (time.Duration, error) {
	return parseDuration("companion retry-interval", c.RetryInterval)
}

// ReadTimeoutDuration returns the companion read timeout; zero disables it.
func (c CompanionData) ReadTimeoutDuration() (time.Duration, error) {
	return parseDuration("companion read-timeout", c.ReadTimeout)
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, s)
	}
	return d, nil
}

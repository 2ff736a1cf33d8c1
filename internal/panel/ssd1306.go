package panel

import (
	"fmt"
	"image"
	"io"

	"github.com/chrissnell/weatherface/internal/log"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
)

// oledDevice is the part of *ssd1306.Dev the panel drives.
type oledDevice interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// SSD1306 is a monochrome OLED on an I²C bus.
type SSD1306 struct {
	dev    oledDevice
	bus    io.Closer
	logger *zap.SugaredLogger
}

// OpenSSD1306 opens the named I²C bus ("" for the first one) and initializes
// a 128x64 display on it.
func OpenSSD1306(busName string, logger *zap.SugaredLogger) (*SSD1306, error) {
	logger = log.OrNop(logger)
	if err := initHost(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", busName, err)
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize ssd1306: %w", err)
	}
	logger.Infof("ssd1306 panel ready on i2c bus %q (%v)", busName, dev.Bounds())
	return &SSD1306{dev: dev, bus: bus, logger: logger}, nil
}

func (p *SSD1306) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

func (p *SSD1306) Show(img image.Image) error {
	b := p.dev.Bounds()
	if err := p.dev.Draw(b, monochrome(img, b), b.Min); err != nil {
		return fmt.Errorf("ssd1306 draw: %w", err)
	}
	return nil
}

// Close turns the display off and releases the bus.
func (p *SSD1306) Close() error {
	err := p.dev.Halt()
	if p.bus != nil {
		if cerr := p.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

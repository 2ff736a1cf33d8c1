// Package panel provides the outputs a rendered face can be shown on.
package panel

import (
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/chrissnell/weatherface/internal/log"
	"go.uber.org/zap"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// Panel shows frames. Show is only called from the engine goroutine.
type Panel interface {
	Bounds() image.Rectangle
	Show(img image.Image) error
	Close() error
}

// Backend names accepted in configuration.
const (
	BackendSSD1306 = "ssd1306"
	BackendEPaper  = "epaper"
	BackendPNG     = "png"
	BackendMemory  = "memory"
)

// Config selects and sizes a panel. Width and Height are ignored by device
// backends, which report their own bounds.
type Config struct {
	Backend string
	I2CBus  string
	SPIPort string
	Width   int
	Height  int
	Path    string
}

// Open returns the panel named by cfg.Backend.
func Open(cfg Config, logger *zap.SugaredLogger) (Panel, error) {
	logger = log.OrNop(logger)

	switch cfg.Backend {
	case BackendSSD1306:
		return OpenSSD1306(cfg.I2CBus, logger)
	case BackendEPaper:
		return OpenEPaper(cfg.SPIPort, logger)
	case BackendPNG:
		if cfg.Path == "" {
			return nil, fmt.Errorf("png panel requires an output path")
		}
		return NewPNG(cfg.Path, cfg.Width, cfg.Height, logger)
	case BackendMemory, "":
		return NewMemory(cfg.Width, cfg.Height), nil
	}
	return nil, fmt.Errorf("unknown panel backend %q", cfg.Backend)
}

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph.io host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("failed to initialize periph host: %w", err)
		}
	})
	return hostErr
}

// monochrome copies img into a 1-bit buffer sized for bounds.
func monochrome(img image.Image, bounds image.Rectangle) *image1bit.VerticalLSB {
	buf := image1bit.NewVerticalLSB(bounds)
	draw.Draw(buf, bounds, img, img.Bounds().Min, draw.Src)
	return buf
}

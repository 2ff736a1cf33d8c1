package panel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/chrissnell/weatherface/internal/log"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"
)

// epdDevice is the part of *waveshare2in13v2.Dev the panel drives.
type epdDevice interface {
	Bounds() image.Rectangle
	Init() error
	Clear(color.Color) error
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Sleep() error
	Halt() error
}

// EPaper is a Waveshare 2.13" v2 e-paper HAT. The controller is woken for
// each refresh and put back to sleep afterwards; frames identical to the one
// on the glass are skipped.
type EPaper struct {
	dev    epdDevice
	port   io.Closer
	last   *image1bit.VerticalLSB
	logger *zap.SugaredLogger
}

// OpenEPaper opens the SPI port and clears the panel.
func OpenEPaper(portName string, logger *zap.SugaredLogger) (*EPaper, error) {
	logger = log.OrNop(logger)
	if err := initHost(); err != nil {
		return nil, err
	}
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open spi port %q: %w", portName, err)
	}
	dev, err := waveshare2in13v2.NewHat(port, &waveshare2in13v2.EPD2in13v2)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to initialize e-paper: %w", err)
	}
	p, err := newEPaper(dev, port, logger)
	if err != nil {
		port.Close()
		return nil, err
	}
	logger.Infof("e-paper panel ready on spi port %q (%v)", portName, dev.Bounds())
	return p, nil
}

func newEPaper(dev epdDevice, port io.Closer, logger *zap.SugaredLogger) (*EPaper, error) {
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("e-paper init: %w", err)
	}
	if err := dev.Clear(color.White); err != nil {
		return nil, fmt.Errorf("e-paper clear: %w", err)
	}
	if err := dev.Sleep(); err != nil {
		return nil, fmt.Errorf("e-paper sleep: %w", err)
	}
	return &EPaper{dev: dev, port: port, logger: log.OrNop(logger)}, nil
}

func (p *EPaper) Bounds() image.Rectangle {
	return p.dev.Bounds()
}

func (p *EPaper) Show(img image.Image) error {
	b := p.dev.Bounds()
	buf := monochrome(img, b)
	if p.last != nil && bytes.Equal(p.last.Pix, buf.Pix) {
		p.logger.Debug("e-paper frame unchanged; skipping refresh")
		return nil
	}

	if err := p.dev.Init(); err != nil {
		return fmt.Errorf("e-paper wake: %w", err)
	}
	if err := p.dev.Draw(b, buf, b.Min); err != nil {
		return fmt.Errorf("e-paper draw: %w", err)
	}
	if err := p.dev.Sleep(); err != nil {
		p.logger.Warnf("e-paper did not go to sleep: %v", err)
	}
	p.last = buf
	return nil
}

// Close halts the controller and releases the SPI port.
func (p *EPaper) Close() error {
	err := p.dev.Halt()
	if p.port != nil {
		if cerr := p.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

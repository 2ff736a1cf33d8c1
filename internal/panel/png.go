package panel

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/chrissnell/weatherface/internal/log"
	"go.uber.org/zap"
)

// PNG writes every frame to a file, replacing it atomically so readers never
// see a partial image.
type PNG struct {
	path   string
	bounds image.Rectangle
	logger *zap.SugaredLogger
}

// NewPNG returns a file panel of the given size.
func NewPNG(path string, width, height int, logger *zap.SugaredLogger) (*PNG, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid png panel size %dx%d", width, height)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create directory for %s: %w", path, err)
	}
	return &PNG{
		path:   path,
		bounds: image.Rect(0, 0, width, height),
		logger: log.OrNop(logger),
	}, nil
}

func (p *PNG) Bounds() image.Rectangle {
	return p.bounds
}

func (p *PNG) Show(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("could not create temp frame: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("could not encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write frame: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("could not replace %s: %w", p.path, err)
	}
	p.logger.Debugf("wrote frame to %s", p.path)
	return nil
}

func (p *PNG) Close() error { return nil }

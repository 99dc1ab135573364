// Package screen captures the desktop for analysis.
package screen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// Source captures one display as PNG bytes.
type Source interface {
	Capture(display int) ([]byte, error)
}

// Grabber implements Source using the platform screenshot API.
type Grabber struct {
	numDisplays func() int
	capture     func(display int) (*image.RGBA, error)
}

func NewGrabber() *Grabber {
	return &Grabber{
		numDisplays: screenshot.NumActiveDisplays,
		capture:     screenshot.CaptureDisplay,
	}
}

// Capture grabs the requested display. Out-of-range indexes fall back
// to the primary display.
func (g *Grabber) Capture(display int) ([]byte, error) {
	n := g.numDisplays()
	if n == 0 {
		return nil, errors.New("no active displays")
	}
	if display < 0 || display >= n {
		display = 0
	}

	img, err := g.capture(display)
	if err != nil {
		return nil, fmt.Errorf("failed to capture display %d: %w", display, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

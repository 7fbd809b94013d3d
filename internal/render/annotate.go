package render

import (
	"fmt"
	"image"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

const (
	dpi      float64      = 72
	hinting  font.Hinting = font.HintingFull
	fontSize float64      = 12
)

// annotator draws legend labels straight onto the raster surface.
type annotator struct {
	context *freetype.Context
	face    font.Face
}

func newAnnotator(scale float64) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	context := freetype.NewContext()
	context.SetDPI(dpi)
	context.SetFont(parsedFont)
	context.SetFontSize(fontSize * scale)
	context.SetSrc(image.White)
	context.SetHinting(hinting)

	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    fontSize * scale,
		DPI:     dpi,
		Hinting: hinting,
	})

	return &annotator{context: context, face: face}, nil
}

// drawCentered draws s with its baseline at y, centered on x. Coordinates
// are in pixels.
func (a *annotator) drawCentered(img *image.RGBA, s string, x, y float64) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	width := font.MeasureString(a.face, s)
	pt := fixed.Point26_6{
		X: fixed.Int26_6(x*64) - width/2,
		Y: fixed.Int26_6(y * 64),
	}
	if _, err := a.context.DrawString(s, pt); err != nil {
		return fmt.Errorf("drawing %q: %w", s, err)
	}
	return nil
}

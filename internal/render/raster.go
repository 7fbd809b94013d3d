package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"git.sr.ht/~sbinet/gg"

	"github.com/roman-kulish/detector-view/internal/detector"
)

const (
	sensorLineWidth  = 0.125 // relative to the sensor radius
	hexagonLineWidth = 1
)

var (
	strokeLight = color.RGBA{A: 0xff}
	strokeDark  = color.RGBA{R: 0xa5, G: 0x2a, B: 0x2a, A: 0xff} // brown
)

// ErrInvalidScale is returned by NewRaster for a non-positive scale.
var ErrInvalidScale = errors.New("raster scale must be positive")

type RasterOption func(*Raster)

// WithScale sets the number of pixels per viewbox unit.
func WithScale(scale float64) RasterOption {
	return func(r *Raster) {
		r.scale = scale
	}
}

// Raster draws the display model onto an image. Everything is painted on
// an offscreen surface first and copied to the destination in one step.
// A Raster reuses its surface and is not safe for concurrent use.
type Raster struct {
	scale     float64
	offscreen *image.RGBA
	labels    *annotator
}

func NewRaster(opts ...RasterOption) (*Raster, error) {
	r := &Raster{scale: 1}
	for _, opt := range opts {
		opt(r)
	}
	if !(r.scale > 0) || math.IsInf(r.scale, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, r.scale)
	}

	labels, err := newAnnotator(r.scale)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	r.labels = labels
	r.offscreen = image.NewRGBA(r.Bounds())
	return r, nil
}

// Bounds returns the pixel bounds of the rendered viewbox.
func (r *Raster) Bounds() image.Rectangle {
	vb := Viewbox()
	return image.Rect(0, 0, int(math.Ceil(vb.Width*r.scale)), int(math.Ceil(vb.Height*r.scale)))
}

// Render draws onto a new image of Bounds size.
func (r *Raster) Render(cd *detector.ComponentData, legend Legend) (*image.RGBA, error) {
	img := image.NewRGBA(r.Bounds())
	if err := r.Draw(img, cd, legend); err != nil {
		return nil, err
	}
	return img, nil
}

// Draw paints hexagons, the legend and then the sensors, and copies the
// result to dst.
func (r *Raster) Draw(dst draw.Image, cd *detector.ComponentData, legend Legend) error {
	draw.Draw(r.offscreen, r.offscreen.Bounds(), image.Transparent, image.Point{}, draw.Src)

	dc := gg.NewContextForRGBA(r.offscreen)
	vb := Viewbox()
	dc.Scale(r.scale, r.scale)
	dc.Translate(-vb.X, -vb.Y)

	r.drawHexagons(dc, cd.Hexagons)
	if err := r.drawLegend(dc, legend); err != nil {
		return fmt.Errorf("drawing legend: %w", err)
	}
	r.drawSensors(dc, cd.Sensors)

	draw.Draw(dst, dst.Bounds(), r.offscreen, image.Point{}, draw.Src)
	return nil
}

func (r *Raster) drawHexagons(dc *gg.Context, hexagons []detector.HexagonRender) {
	dc.SetLineWidth(hexagonLineWidth * r.scale)
	for _, h := range hexagons {
		dc.NewSubPath()
		dc.MoveTo(h.Points[0].X, h.Points[0].Y)
		for _, p := range h.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()

		dc.SetFillStyle(gg.NewSolidPattern(h.Color))
		dc.SetStrokeStyle(gg.NewSolidPattern(h.Color))
		dc.FillPreserve()
		dc.Stroke()
	}
}

func (r *Raster) drawLegend(dc *gg.Context, legend Legend) error {
	scheme := legend.scheme()
	bar := NewColorBar(ColorBarBox(), legend, true)

	fillBox(dc, bar.High, scheme.High)
	fillBox(dc, bar.Low, scheme.Low)

	// The ramp is painted as one strip per color, lowest at the bottom.
	g := bar.Gradient
	step := g.Height / float64(len(scheme.Colors))
	overlap := 0.5 / r.scale
	for i, c := range scheme.Colors {
		y := g.Y + g.Height - float64(i+1)*step
		height := step
		if i < len(scheme.Colors)-1 {
			height += overlap
		}
		fillBox(dc, Box{X: g.X, Y: y, Width: g.Width, Height: height}, c)
	}

	vb := Viewbox()
	for _, l := range []Label{bar.MaxLabel, bar.MinLabel} {
		x := (l.X - vb.X) * r.scale
		y := (l.Y - vb.Y) * r.scale
		if err := r.labels.drawCentered(r.offscreen, l.Text, x, y); err != nil {
			return err
		}
	}
	return nil
}

func fillBox(dc *gg.Context, b Box, c color.Color) {
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	dc.SetFillStyle(gg.NewSolidPattern(c))
	dc.Fill()
}

type sensorStyle struct {
	fill color.RGBA
	dark bool
}

type sensorGroup struct {
	style   sensorStyle
	sensors []int
}

// groupByStyle buckets sensor indices by fill and stroke, in the order each
// style is first seen.
func groupByStyle(sensors []detector.SensorRender) []sensorGroup {
	var groups []sensorGroup
	index := make(map[sensorStyle]int)
	for i := range sensors {
		k := sensorStyle{fill: sensors[i].FillColor, dark: sensors[i].IsDark}
		g, ok := index[k]
		if !ok {
			g = len(groups)
			index[k] = g
			groups = append(groups, sensorGroup{style: k})
		}
		groups[g].sensors = append(groups[g].sensors, i)
	}
	return groups
}

func (r *Raster) drawSensors(dc *gg.Context, sensors []detector.SensorRender) {
	for _, g := range groupByStyle(sensors) {
		dc.SetFillStyle(gg.NewSolidPattern(g.style.fill))
		if g.style.dark {
			dc.SetStrokeStyle(gg.NewSolidPattern(strokeDark))
		} else {
			dc.SetStrokeStyle(gg.NewSolidPattern(strokeLight))
		}

		for _, i := range g.sensors {
			s := &sensors[i]
			dc.SetLineWidth(sensorLineWidth * s.Radius * r.scale)

			dc.Push()
			dc.Translate(s.ScaledPosition.X, s.ScaledPosition.Y)
			dc.Rotate(s.Rotation * math.Pi / 180)
			dc.Scale(s.Radius, s.Radius)
			halfDisc(dc, s.SweepFlag)
			dc.FillPreserve()
			dc.Stroke()
			dc.Pop()
		}
	}
}

// halfDisc traces a unit half disc with the arc above the diameter when
// sweep is 1 and below it otherwise, matching the SVG output.
func halfDisc(dc *gg.Context, sweep int) {
	dc.NewSubPath()
	if sweep == 1 {
		dc.DrawArc(0, 0, 1, math.Pi, 2*math.Pi)
	} else {
		dc.DrawArc(0, 0, 1, 0, math.Pi)
	}
	dc.ClosePath()
}

package render

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo/float"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/detector"
)

const (
	hoverLineHeight = 14.4
	hoverOffsetY    = 12.5
	gradientStops   = 101
)

// Sensor hover text is hidden until the pointer enters the sensor group.
const stylesheet = `
.outline { stroke-linecap: round; stroke-linejoin: round; }
.legend { stroke: #fff; stroke-width: 0.5px; }
.label { fill: #ccc; stroke: none; font-family: monospace; font-size: 12px; text-anchor: middle; }
.hover { display: none; fill: #ccc; stroke: none; font-family: monospace; font-size: 12px; text-anchor: middle; }
.sensor:hover .hover { display: inline; }
`

// SVG renders the display model as standalone SVG markup.
type SVG struct {
	mode detector.DisplayMode
}

// NewSVG returns an SVG renderer. In the Display mode sensors carry a
// title, hover text and links; in other modes the output is static.
func NewSVG(mode detector.DisplayMode) *SVG {
	return &SVG{mode: mode}
}

// Render writes the document to w.
func (s *SVG) Render(w io.Writer, cd *detector.ComponentData, legend Legend) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	vb := Viewbox()
	canvas.Startraw(
		fmt.Sprintf(`viewBox="%g %g %g %g"`, vb.X, vb.Y, vb.Width, vb.Height),
		`preserveAspectRatio="xMidYMid meet"`,
		`fill="none"`,
	)
	canvas.Desc("Visual representation of the detector layout with color-coded sensors")
	canvas.Style("text/css", stylesheet)

	canvas.Group(`class="outline"`)
	s.legend(canvas, legend)
	s.hexagons(canvas, cd.Hexagons)
	for i := range cd.Sensors {
		s.sensor(canvas, &cd.Sensors[i])
	}
	canvas.Gend()
	canvas.End()

	if ew.err != nil {
		return fmt.Errorf("writing svg: %w", ew.err)
	}
	return nil
}

func (s *SVG) legend(canvas *svg.SVG, legend Legend) {
	scheme := legend.scheme()
	bar := NewColorBar(ColorBarBox(), legend, false)
	id := "gradient-" + scheme.Key

	stops := make([]svg.Offcolor, gradientStops)
	for i := range stops {
		idx := int(math.Round(float64(i) / float64(gradientStops-1) * float64(len(scheme.Colors)-1)))
		stops[i] = svg.Offcolor{
			Offset:  uint8(i),
			Color:   colorscale.Hex(scheme.Colors[idx]),
			Opacity: 1,
		}
	}

	canvas.Def()
	canvas.LinearGradient(id, 0, 100, 0, 0, stops)
	canvas.DefEnd()

	canvas.Group(`class="legend"`)
	rect(canvas, bar.High, fill(colorscale.Hex(scheme.High)))
	rect(canvas, bar.Gradient, fill("url(#"+id+")"))
	rect(canvas, bar.Low, fill(colorscale.Hex(scheme.Low)))
	canvas.Text(bar.MaxLabel.X, bar.MaxLabel.Y, bar.MaxLabel.Text, `class="label"`, `dominant-baseline="alphabetic"`)
	canvas.Text(bar.MinLabel.X, bar.MinLabel.Y, bar.MinLabel.Text, `class="label"`, `dominant-baseline="hanging"`)
	canvas.Gend()
}

func (s *SVG) hexagons(canvas *svg.SVG, hexagons []detector.HexagonRender) {
	canvas.Group(`class="hexagons"`)
	for _, h := range hexagons {
		xs := make([]float64, len(h.Points))
		ys := make([]float64, len(h.Points))
		for i, p := range h.Points {
			xs[i], ys[i] = p.X, p.Y
		}
		c := colorscale.Hex(h.Color)
		canvas.Polygon(xs, ys, fill(c), stroke(c))
	}
	canvas.Gend()
}

func (s *SVG) sensor(canvas *svg.SVG, sensor *detector.SensorRender) {
	interactive := s.mode.Interactive()
	linked := interactive && sensor.IsActive && sensor.Link != ""

	if linked {
		canvas.Link(html.EscapeString(sensor.Link), html.EscapeString(sensor.ID))
	}
	canvas.Group(`class="sensor"`)
	if interactive {
		canvas.Title(fmt.Sprintf("Channel: %d | %s", sensor.Channel, sensor.ID))
	}

	x, y, r := sensor.ScaledPosition.X, sensor.ScaledPosition.Y, sensor.Radius
	canvas.Path(
		sensorPath(x, y, r, sensor.SweepFlag),
		fill(colorscale.Hex(sensor.FillColor)),
		stroke(strokeName(sensor.IsDark)),
		fmt.Sprintf(`stroke-width="%.4f"`, r/32),
		fmt.Sprintf(`transform="rotate(%g, %.2f, %.2f)"`, sensor.Rotation, x, y),
	)

	if interactive {
		s.hover(canvas, sensor)
	}
	canvas.Gend()
	if linked {
		canvas.LinkEnd()
	}
}

func (s *SVG) hover(canvas *svg.SVG, sensor *detector.SensorRender) {
	x := DetectorWidth / 2.0
	y := DetectorHeight + hoverOffsetY

	canvas.Group(`class="hover"`)
	canvas.Text(x, y, fmt.Sprintf("Channel: %d | %s", sensor.Channel, sensor.ID))
	canvas.Text(x, y+hoverLineHeight, fmt.Sprintf("(%g, %g) → (%.2f, %.2f)",
		sensor.UnscaledPosition.X, sensor.UnscaledPosition.Y,
		sensor.ScaledPosition.X, sensor.ScaledPosition.Y))
	canvas.Text(x, y+2*hoverLineHeight, "("+sensor.Text+")", fill(colorscale.Hex(sensor.TextColor)))
	canvas.Gend()
}

// sensorPath is a half disc: the diameter from (x-r, y) to (x+r, y) and an
// arc above it when sweep is 1, below it when sweep is 0.
func sensorPath(x, y, r float64, sweep int) string {
	return fmt.Sprintf("M %.2f %.2f A %.2f %.2f 0 0 %d %.2f %.2f L %.2f %.2f Z",
		x-r, y, r, r, sweep, x+r, y, x, y)
}

func strokeName(dark bool) string {
	if dark {
		return "brown"
	}
	return "black"
}

func rect(canvas *svg.SVG, b Box, style ...string) {
	canvas.Rect(b.X, b.Y, b.Width, b.Height, style...)
}

func fill(c string) string {
	return fmt.Sprintf(`fill="%s"`, c)
}

func stroke(c string) string {
	return fmt.Sprintf(`stroke="%s"`, c)
}

// errWriter keeps the first write error so the markup can be emitted
// without checking every element.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

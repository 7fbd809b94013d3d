// Package render draws a detector display model either as SVG markup or
// onto a raster image. Both renderers share the viewbox layout and the
// color bar legend defined here.
package render

import (
	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/geometry"
)

// Viewbox layout, in viewbox units. The detector occupies a square at the
// origin, the color bar sits to its right and hover text below it.
const (
	DetectorWidth  = 400
	DetectorHeight = 400

	colorBarXOffset = 10
	colorBarY       = 26.8
	colorBarWidth   = 40

	viewboxX           = -10
	viewboxY           = -10
	viewboxWidthExtra  = 120
	viewboxHeightExtra = 60
)

// Box is an axis-aligned rectangle.
type Box struct {
	X, Y, Width, Height float64
}

// DetectorExtent is the viewport the detector factory scales layouts into.
func DetectorExtent() geometry.Extent {
	return geometry.Extent{Width: DetectorWidth, Height: DetectorHeight}
}

// Viewbox is the full drawing area.
func Viewbox() Box {
	return Box{
		X:      viewboxX,
		Y:      viewboxY,
		Width:  DetectorWidth + viewboxWidthExtra,
		Height: DetectorHeight + viewboxHeightExtra,
	}
}

// ColorBarBox is the area reserved for the legend. Its height leaves room
// for a label above and below.
func ColorBarBox() Box {
	return Box{
		X:      DetectorWidth + colorBarXOffset,
		Y:      colorBarY,
		Width:  colorBarWidth,
		Height: DetectorHeight - 2*colorBarY,
	}
}

// Legend is the color scale shown next to the detector.
type Legend struct {
	Scheme   *colorscale.Scheme
	Min, Max float64
}

func (l Legend) scheme() *colorscale.Scheme {
	if l.Scheme == nil {
		return colorscale.Default()
	}
	return l.Scheme
}

// Label is a piece of text centered horizontally on X.
type Label struct {
	X, Y float64
	Text string
}

// ColorBar is the computed geometry of the legend: the high indicator on
// top, the gradient ramp, the low indicator at the bottom and the two
// boundary labels.
type ColorBar struct {
	High     Box
	Gradient Box
	Low      Box
	MaxLabel Label
	MinLabel Label
}

// Proportions of the color bar relative to its box.
const (
	gradientHeightRatio  = 0.875
	indicatorHeightRatio = 0.05
	barWidthRatio        = 0.75

	maxLabelFactor       = 1.75
	minLabelFactorSVG    = 2.2
	minLabelFactorRaster = 2.75
)

// NewColorBar lays out the legend inside box. The raster renderer draws
// text from its baseline, so its lower label sits further down.
func NewColorBar(box Box, legend Legend, raster bool) ColorBar {
	gradientHeight := box.Height * gradientHeightRatio
	indicator := box.Height * indicatorHeightRatio
	width := box.Width * barWidthRatio

	minFactor := minLabelFactorSVG
	if raster {
		minFactor = minLabelFactorRaster
	}

	lo, hi := colorscale.FormatRange(legend.Min, legend.Max)
	cx := box.X + width/2

	return ColorBar{
		High:     Box{X: box.X, Y: box.Y, Width: width, Height: indicator},
		Gradient: Box{X: box.X, Y: box.Y + 2*indicator, Width: width, Height: gradientHeight},
		Low:      Box{X: box.X, Y: box.Y + 3*indicator + gradientHeight, Width: width, Height: indicator},
		MaxLabel: Label{X: cx, Y: box.Y + indicator*maxLabelFactor, Text: hi},
		MinLabel: Label{X: cx, Y: box.Y + indicator*minFactor + gradientHeight, Text: lo},
	}
}

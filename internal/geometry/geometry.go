// Package geometry maps detector layout coordinates onto a viewport.
//
// Three coordinate spaces are involved: the viewport (the rendering target,
// origin at its center, y pointing down as in SVG and raster images), the
// layout (the physical description of a whole detector, y pointing up) and
// the hexagon-local space each sensor position is described in.
//
// Every function here is pure.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Extent is the width and height of a coordinate space.
type Extent struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Valid reports whether both dimensions are finite and strictly positive.
// Scaling against an invalid extent divides by zero.
func (e Extent) Valid() bool {
	return e.Width > 0 && e.Height > 0 && !math.IsInf(e.Width, 0) && !math.IsInf(e.Height, 0)
}

// ScaleFit returns the uniform factor that fits from inside to while
// preserving aspect ratio.
func ScaleFit(from, to Extent) float64 {
	return math.Min(to.Width/from.Width, to.Height/from.Height)
}

// ScaleNonUniform returns independent per-axis ratios. The result may distort.
func ScaleNonUniform(from, to Extent) Extent {
	return Extent{
		Width:  to.Width / from.Width,
		Height: to.Height / from.Height,
	}
}

// Offset returns the center of the extent, used as the viewport origin.
func Offset(e Extent) r2.Vec {
	return r2.Vec{X: e.Width / 2, Y: e.Height / 2}
}

// ScalePoint scales p per axis and moves it to offset, flipping the y axis
// from the layout's upward orientation to the viewport's downward one.
func ScalePoint(p, offset r2.Vec, scale Extent) r2.Vec {
	return r2.Vec{
		X: p.X*scale.Width + offset.X,
		Y: offset.Y - p.Y*scale.Height,
	}
}

// HexagonVertices returns the six corners of a hexagon placed at center in
// layout space, in viewport coordinates. The center is scaled per axis while
// the circumradius uses the uniform fit so the hexagon stays regular.
// Vertices start at angle 0 (flat-topped) or at -90 degrees when rotate is
// set (pointy-topped) and advance by 60 degrees.
func HexagonVertices(viewport, layout Extent, center r2.Vec, hexagon Extent, rotate bool) [6]r2.Vec {
	scaledCenter := ScalePoint(center, Offset(viewport), ScaleNonUniform(layout, viewport))
	radius := math.Max(hexagon.Width, hexagon.Height) * ScaleFit(layout, viewport) / 2

	start := 0.0
	if rotate {
		start = -math.Pi / 2
	}

	var points [6]r2.Vec
	for i := range points {
		angle := math.Pi/3*float64(i) + start
		points[i] = r2.Vec{
			X: scaledCenter.X + radius*math.Cos(angle),
			Y: scaledCenter.Y + radius*math.Sin(angle),
		}
	}
	return points
}

// ScaleSensorCoordinates transforms hexagon-local sensor positions into
// viewport coordinates.
//
// Each position is scaled by the hexagon-to-layout ratio composed with the
// hexagon-to-viewport ratio, rotated by rotationDeg about the local origin,
// and then placed relative to the hexagon's scaled center. The y axis is
// inverted exactly once, at placement.
func ScaleSensorCoordinates(viewport, layout Extent, positions []r2.Vec, hexagon Extent, center r2.Vec, rotationDeg float64) []r2.Vec {
	layoutScale := ScaleNonUniform(layout, viewport)
	hexagonScale := ScaleNonUniform(hexagon, viewport)
	hexagonToLayout := Extent{
		Width:  hexagon.Width / layout.Width,
		Height: hexagon.Height / layout.Height,
	}
	scale := Extent{
		Width:  hexagonScale.Width * hexagonToLayout.Width,
		Height: hexagonScale.Height * hexagonToLayout.Height,
	}

	scaledCenter := ScalePoint(center, Offset(viewport), layoutScale)
	alpha := rotationDeg * math.Pi / 180

	out := make([]r2.Vec, len(positions))
	for i, p := range positions {
		local := r2.Vec{X: p.X * scale.Width, Y: p.Y * scale.Height}
		if alpha != 0 {
			local = r2.Rotate(local, alpha, r2.Vec{})
		}
		out[i] = r2.Vec{
			X: scaledCenter.X + local.X,
			Y: scaledCenter.Y - local.Y,
		}
	}
	return out
}

// ScaleRadius scales a physical radius with the uniform fit, matching how
// hexagons are sized so sensors keep their relative proportion.
func ScaleRadius(radius float64, from, to Extent) float64 {
	return radius * ScaleFit(from, to)
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

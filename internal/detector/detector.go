// Package detector turns a static detector layout and a batch of
// measurements into a renderer-agnostic display model.
//
// Building hexagon outlines and scaled sensor positions is the expensive
// part. It is cached in a caller-owned Cache and reused until the selection
// or mapping changes, while the measurement-dependent fields of every
// sensor are recomputed on each call.
package detector

import (
	"fmt"
	"image/color"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/geometry"
)

// Out-of-range factors: fill colors saturate late, label colors flag any
// value outside the configured range.
const (
	FillOutOfRangeFactor = 8
	TextOutOfRangeFactor = 1
)

// InactiveText is shown for sensors whose channel has no measurement.
const InactiveText = "Inactive"

// InactiveTextColor is the label color of inactive sensors.
var InactiveTextColor = color.RGBA{R: 0xff, A: 0xff}

// DisplayMode selects how the model is rendered.
type DisplayMode int

const (
	// Display is the interactive vector mode with hover text and links.
	Display DisplayMode = iota
	// Render is the static vector mode.
	Render
	// Fast draws onto a raster surface.
	Fast
)

var displayModeNames = [...]string{
	Display: "display",
	Render:  "render",
	Fast:    "fast",
}

func (m DisplayMode) String() string {
	if m < 0 || int(m) >= len(displayModeNames) {
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
	return displayModeNames[m]
}

// Interactive reports whether sensors carry hover text.
func (m DisplayMode) Interactive() bool {
	return m == Display
}

// Raster reports whether the mode draws onto a raster surface.
func (m DisplayMode) Raster() bool {
	return m == Fast
}

// ParseDisplayMode parses a mode name, case-insensitively.
func ParseDisplayMode(s string) (DisplayMode, error) {
	for m, name := range displayModeNames {
		if strings.EqualFold(s, name) {
			return DisplayMode(m), nil
		}
	}
	return 0, fmt.Errorf("unknown display mode %q", s)
}

func (m DisplayMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *DisplayMode) UnmarshalText(text []byte) error {
	v, err := ParseDisplayMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ColorConfig is the color scale a model is built against.
type ColorConfig struct {
	Scheme   *colorscale.Scheme
	Min, Max float64
}

// ComponentData is the display model handed to a renderer.
type ComponentData struct {
	Hexagons []HexagonRender
	Sensors  []SensorRender
}

// HexagonRender is the outline of one array in viewport coordinates.
type HexagonRender struct {
	Name   string
	Center r2.Vec
	Extent geometry.Extent
	Color  color.RGBA
	Points [6]r2.Vec
}

// SensorRender is one sensor ready to draw.
type SensorRender struct {
	ID               string
	ScaledPosition   r2.Vec
	UnscaledPosition r2.Vec
	Rotation         float64
	SweepFlag        int
	IsDark           bool
	Radius           float64

	// SensorIndex is the global index in the layout, before mapping.
	SensorIndex int
	// Channel is the 1-based measurement channel after mapping.
	Channel int
	// Link is empty when links are disabled.
	Link string

	// Recomputed from measurements on every build.
	IsActive  bool
	FillColor color.RGBA
	Text      string
	TextColor color.RGBA
}

// MeasurementIndex is the 0-based index of the sensor's channel.
func (s *SensorRender) MeasurementIndex() int {
	return s.Channel - 1
}

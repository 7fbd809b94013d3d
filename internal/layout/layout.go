// Package layout holds the static physical description of each supported
// detector: hexagonal arrays, their sensor networks and sensor positions.
//
// Layouts are declared in YAML fixtures embedded in the binary and parsed
// once when a Registry is built. Adding a detector type means adding a
// fixture, not code.
package layout

import (
	"image/color"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/roman-kulish/detector-view/internal/geometry"
)

// Sensor is a single measurement point in hexagon-local coordinates.
type Sensor struct {
	Position r2.Vec
	Rotation float64 // degrees
	// SweepFlag selects which half of the D-shape carries the arc.
	SweepFlag int
	IsDark    bool
}

// Network is an ordered group of sensors sharing a contiguous index range.
type Network struct {
	Name    string
	Sensors []Sensor
}

// Hexagon is one physical array of the detector.
type Hexagon struct {
	Name            string
	Center          r2.Vec
	Extent          geometry.Extent
	SensorRadius    float64
	Color           color.RGBA
	RotateHexagon   bool
	NetworkRotation float64 // degrees
	Networks        []Network
	// NetworkStartIndices holds the global sensor index at which each
	// network begins.
	NetworkStartIndices []int
}

// SensorCount returns the number of sensors across all networks.
func (h *Hexagon) SensorCount() int {
	var n int
	for _, nw := range h.Networks {
		n += len(nw.Sensors)
	}
	return n
}

// Layout is a set of hexagons placed in a common physical coordinate space.
type Layout struct {
	Extent   geometry.Extent
	Hexagons []Hexagon
}

// Detector is the capability record of a detector type: its full layout
// plus the per-array layouts used when a single array is shown on its own.
type Detector struct {
	Type   string
	Label  string
	Layout *Layout

	// Solo maps an array name to the layout used when it is the only
	// selected array. Detectors with a single array have none.
	Solo map[string]*Layout
}

// LayoutFor returns the layout to draw for the selected arrays.
func (d *Detector) LayoutFor(selectedArrays []string) *Layout {
	if len(selectedArrays) == 1 {
		if l, ok := d.Solo[selectedArrays[0]]; ok {
			return l
		}
	}
	return d.Layout
}

// Arrays returns the array names in layout order.
func (d *Detector) Arrays() []string {
	names := make([]string, 0, len(d.Layout.Hexagons))
	for _, h := range d.Layout.Hexagons {
		names = append(names, h.Name)
	}
	return names
}

// NetworksFor returns the network names of the given arrays in layout order.
// Unknown array names are ignored.
func (d *Detector) NetworksFor(arrays []string) []string {
	var names []string
	for _, h := range d.Layout.Hexagons {
		if !slices.Contains(arrays, h.Name) {
			continue
		}
		for _, nw := range h.Networks {
			names = append(names, nw.Name)
		}
	}
	return names
}

// AllNetworks returns every network name of the detector.
func (d *Detector) AllNetworks() []string {
	return d.NetworksFor(d.Arrays())
}

// SensorCount returns the number of sensors in the full layout.
func (d *Detector) SensorCount() int {
	var n int
	for i := range d.Layout.Hexagons {
		n += d.Layout.Hexagons[i].SensorCount()
	}
	return n
}

// AllOption is the selection value that stands for every available option.
const AllOption = "all"

// ExpandSelection replaces a selection containing AllOption with every
// option. Otherwise it keeps the selected values that are valid options,
// in the order of options.
func ExpandSelection(values, options []string) []string {
	if slices.Contains(values, AllOption) {
		return slices.Clone(options)
	}
	out := make([]string, 0, len(values))
	for _, o := range options {
		if slices.Contains(values, o) {
			out = append(out, o)
		}
	}
	return out
}

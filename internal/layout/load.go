package layout

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/geometry"
)

// ErrInvalidLayout is returned when a layout fixture breaks an invariant.
var ErrInvalidLayout = errors.New("invalid layout")

type detectorFile struct {
	Type     string          `yaml:"type"`
	Label    string          `yaml:"label"`
	Extent   geometry.Extent `yaml:"extent"`
	Solo     *soloFile       `yaml:"solo"`
	Hexagons []hexagonFile   `yaml:"hexagons"`
}

type soloFile struct {
	Extent       geometry.Extent `yaml:"extent"`
	SensorRadius float64         `yaml:"sensorRadius"`
}

type hexagonFile struct {
	Name                string          `yaml:"name"`
	Center              point           `yaml:"center"`
	Extent              geometry.Extent `yaml:"extent"`
	SensorRadius        float64         `yaml:"sensorRadius"`
	Color               string          `yaml:"color"`
	RotateHexagon       bool            `yaml:"rotateHexagon"`
	NetworkRotation     float64         `yaml:"networkRotation"`
	NetworkStartIndices []int           `yaml:"networkStartIndices"`
	Networks            []networkFile   `yaml:"networks"`
}

type point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type networkFile struct {
	Name    string       `yaml:"name"`
	Sensors []sensorFile `yaml:"sensors"`
}

type sensorFile struct {
	Position  [2]float64 `yaml:"position"`
	Rotation  float64    `yaml:"rotation"`
	SweepFlag int        `yaml:"sweepFlag"`
	IsDark    bool       `yaml:"isDark"`
}

// Load parses and validates a detector fixture.
//
// Hexagon names are namespaced as "<type>_<name>" and network names are
// prefixed with their hexagon name, so both are unique across detectors.
func Load(r io.Reader) (*Detector, error) {
	var f detectorFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding layout: %w", err)
	}

	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing detector type", ErrInvalidLayout)
	}
	if !f.Extent.Valid() {
		return nil, fmt.Errorf("%w: %s: degenerate layout extent %vx%v", ErrInvalidLayout, f.Type, f.Extent.Width, f.Extent.Height)
	}
	if len(f.Hexagons) == 0 {
		return nil, fmt.Errorf("%w: %s: no hexagons", ErrInvalidLayout, f.Type)
	}

	l := &Layout{Extent: f.Extent, Hexagons: make([]Hexagon, 0, len(f.Hexagons))}
	for i := range f.Hexagons {
		h, err := f.Hexagons[i].build(f.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: hexagon %d: %w", ErrInvalidLayout, f.Type, i, err)
		}
		l.Hexagons = append(l.Hexagons, h)
	}
	if err := validate(l); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLayout, f.Type, err)
	}

	d := &Detector{
		Type:   f.Type,
		Label:  f.Label,
		Layout: l,
	}
	if d.Label == "" {
		d.Label = d.Type
	}

	if f.Solo != nil && len(l.Hexagons) > 1 {
		if !f.Solo.Extent.Valid() {
			return nil, fmt.Errorf("%w: %s: degenerate solo extent", ErrInvalidLayout, f.Type)
		}
		if f.Solo.SensorRadius <= 0 {
			return nil, fmt.Errorf("%w: %s: solo sensor radius must be positive", ErrInvalidLayout, f.Type)
		}

		d.Solo = make(map[string]*Layout, len(l.Hexagons))
		for _, h := range l.Hexagons {
			h.Center = r2.Vec{}
			h.SensorRadius = f.Solo.SensorRadius
			d.Solo[h.Name] = &Layout{Extent: f.Solo.Extent, Hexagons: []Hexagon{h}}
		}
	}
	return d, nil
}

func (f *hexagonFile) build(detectorType string) (Hexagon, error) {
	if f.Name == "" {
		return Hexagon{}, errors.New("missing name")
	}
	if !f.Extent.Valid() {
		return Hexagon{}, fmt.Errorf("%s: degenerate extent %vx%v", f.Name, f.Extent.Width, f.Extent.Height)
	}
	if f.SensorRadius <= 0 {
		return Hexagon{}, fmt.Errorf("%s: sensor radius must be positive", f.Name)
	}
	c, err := colorscale.ParseHex(f.Color)
	if err != nil {
		return Hexagon{}, fmt.Errorf("%s: %w", f.Name, err)
	}

	h := Hexagon{
		Name:                detectorType + "_" + f.Name,
		Center:              r2.Vec{X: f.Center.X, Y: f.Center.Y},
		Extent:              f.Extent,
		SensorRadius:        f.SensorRadius,
		Color:               c,
		RotateHexagon:       f.RotateHexagon,
		NetworkRotation:     f.NetworkRotation,
		NetworkStartIndices: f.NetworkStartIndices,
		Networks:            make([]Network, 0, len(f.Networks)),
	}

	for _, nf := range f.Networks {
		nw := Network{
			Name:    h.Name + " " + nf.Name,
			Sensors: make([]Sensor, 0, len(nf.Sensors)),
		}
		for j, sf := range nf.Sensors {
			if sf.SweepFlag != 0 && sf.SweepFlag != 1 {
				return Hexagon{}, fmt.Errorf("%s: sensor %d: sweep flag must be 0 or 1, got %d", nw.Name, j, sf.SweepFlag)
			}
			nw.Sensors = append(nw.Sensors, Sensor{
				Position:  r2.Vec{X: sf.Position[0], Y: sf.Position[1]},
				Rotation:  sf.Rotation,
				SweepFlag: sf.SweepFlag,
				IsDark:    sf.IsDark,
			})
		}
		h.Networks = append(h.Networks, nw)
	}
	return h, nil
}

// validate checks the cross-hexagon invariants: unique names, start indices
// matching network sizes, and disjoint global index ranges.
func validate(l *Layout) error {
	hexagons := make(map[string]struct{}, len(l.Hexagons))
	networks := make(map[string]struct{})

	type span struct {
		name       string
		start, end int
	}
	var spans []span

	for _, h := range l.Hexagons {
		if _, ok := hexagons[h.Name]; ok {
			return fmt.Errorf("duplicate hexagon name %q", h.Name)
		}
		hexagons[h.Name] = struct{}{}

		if len(h.NetworkStartIndices) != len(h.Networks) {
			return fmt.Errorf("%s: %d start indices for %d networks", h.Name, len(h.NetworkStartIndices), len(h.Networks))
		}

		for i, nw := range h.Networks {
			if _, ok := networks[nw.Name]; ok {
				return fmt.Errorf("duplicate network name %q", nw.Name)
			}
			networks[nw.Name] = struct{}{}

			if h.NetworkStartIndices[i] < 0 {
				return fmt.Errorf("%s: negative start index", nw.Name)
			}
			if i+1 < len(h.Networks) {
				if got := h.NetworkStartIndices[i+1] - h.NetworkStartIndices[i]; got != len(nw.Sensors) {
					return fmt.Errorf("%s: start indices span %d sensors, network has %d", nw.Name, got, len(nw.Sensors))
				}
			}
		}

		if len(h.Networks) > 0 {
			start := h.NetworkStartIndices[0]
			spans = append(spans, span{name: h.Name, start: start, end: start + h.SensorCount()})
		}
	}

	for i, a := range spans {
		for _, b := range spans[i+1:] {
			if a.start < b.end && b.start < a.end {
				return fmt.Errorf("sensor indices of %s and %s overlap", a.name, b.name)
			}
		}
	}
	return nil
}

package detector

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/geometry"
	"github.com/roman-kulish/detector-view/internal/layout"
	"github.com/roman-kulish/detector-view/internal/mapping"
)

// ErrInvalidViewport is returned by NewFactory for a degenerate viewport.
var ErrInvalidViewport = errors.New("invalid viewport")

// Registry resolves detector types to their layouts.
type Registry interface {
	Lookup(typ string) (*layout.Detector, error)
}

// Request describes one build.
type Request struct {
	Type        string
	DisplayMode DisplayMode

	// Arrays and Networks are the selected names. Names that do not exist
	// in the layout are ignored.
	Arrays   []string
	Networks []string

	Measurements []float64
	Color        ColorConfig

	Mapping mapping.Mapping
	// MappingVersion changes whenever Mapping does.
	MappingVersion uint64

	// BaseURL enables sensor links when set.
	BaseURL   string
	Variables *Variables

	// Rebuild ignores cached geometry, e.g. while the panel is edited.
	Rebuild bool
}

type Option func(*Factory)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// Factory builds display models for a fixed viewport.
type Factory struct {
	registry Registry
	viewport geometry.Extent
	logger   *slog.Logger
}

func NewFactory(registry Registry, viewport geometry.Extent, opts ...Option) (*Factory, error) {
	if !viewport.Valid() {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidViewport, viewport.Width, viewport.Height)
	}

	f := &Factory{
		registry: registry,
		viewport: viewport,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Viewport returns the extent the factory scales layouts into.
func (f *Factory) Viewport() geometry.Extent {
	return f.viewport
}

// Build returns the display model for req.
//
// Hexagon and static sensor geometry come from cache when its key matches
// and req.Rebuild is unset; cache may be nil. The returned hexagon slice is
// shared with the cache and must not be modified. The sensor slice is new
// on every call and carries measurement fields computed from
// req.Measurements.
func (f *Factory) Build(req Request, cache *Cache) (*ComponentData, error) {
	d, err := f.registry.Lookup(req.Type)
	if err != nil {
		return nil, err
	}

	key := newKey(&req, f.viewport)
	hexagons, static, ok := cache.lookup(key)
	if !ok || req.Rebuild {
		if hexagons, static, err = f.buildGeometry(d, &req); err != nil {
			return nil, fmt.Errorf("building %s geometry: %w", d.Type, err)
		}
		cache.store(key, hexagons, static)

		f.logger.Debug("detector geometry built",
			slog.String("type", d.Type),
			slog.Int("hexagons", len(hexagons)),
			slog.Int("sensors", len(static)),
			slog.Bool("forced", req.Rebuild))
	}

	sensors := f.measure(static, &req)
	if req.BaseURL != "" {
		links := f.links(static, &req, cache)
		for i := range sensors {
			sensors[i].Link = links[i]
		}
	}

	return &ComponentData{
		Hexagons: hexagons,
		Sensors:  sensors,
	}, nil
}

// links returns the link of every static sensor for the current
// measurement count, reusing the cached ones when the count is unchanged.
func (f *Factory) links(static []SensorRender, req *Request, cache *Cache) []string {
	count := len(req.Measurements)
	if links, ok := cache.lookupLinks(count); ok && !req.Rebuild {
		return links
	}

	links := make([]string, len(static))
	for i := range static {
		links[i] = Link(req.BaseURL, static[i].Channel, count, req.Variables)
	}
	cache.storeLinks(count, links)
	return links
}

// sensorRef ties a sensor in the transformed batch back to the layout.
type sensorRef struct {
	batchIndex  int
	sensorIndex int
	network     int
	local       int
}

func (f *Factory) buildGeometry(d *layout.Detector, req *Request) ([]HexagonRender, []SensorRender, error) {
	l := d.LayoutFor(req.Arrays)

	networks := make(map[string]struct{}, len(req.Networks))
	for _, name := range req.Networks {
		networks[name] = struct{}{}
	}

	var (
		hexagons []HexagonRender
		sensors  []SensorRender
	)
	for i := range l.Hexagons {
		h := &l.Hexagons[i]
		if !slices.Contains(req.Arrays, h.Name) {
			continue
		}

		hexagons = append(hexagons, HexagonRender{
			Name:   h.Name,
			Center: h.Center,
			Extent: h.Extent,
			Color:  h.Color,
			Points: geometry.HexagonVertices(f.viewport, l.Extent, h.Center, h.Extent, h.RotateHexagon),
		})

		var (
			positions []r2.Vec
			refs      []sensorRef
		)
		for n, nw := range h.Networks {
			if _, ok := networks[nw.Name]; !ok {
				continue
			}
			for local, s := range nw.Sensors {
				refs = append(refs, sensorRef{
					batchIndex:  len(positions),
					sensorIndex: h.NetworkStartIndices[n] + local,
					network:     n,
					local:       local,
				})
				positions = append(positions, s.Position)
			}
		}
		if len(positions) == 0 {
			continue
		}

		scaled := geometry.ScaleSensorCoordinates(f.viewport, l.Extent, positions, h.Extent, h.Center, h.NetworkRotation)
		if len(scaled) != len(positions) {
			return nil, nil, fmt.Errorf("%s: transformed %d of %d sensor positions", h.Name, len(scaled), len(positions))
		}
		radius := geometry.ScaleRadius(h.SensorRadius, h.Extent, f.viewport)

		for _, ref := range refs {
			nw := &h.Networks[ref.network]
			s := &nw.Sensors[ref.local]
			channel, _ := req.Mapping.Channel(ref.sensorIndex)

			sr := SensorRender{
				ID:               fmt.Sprintf("(%s): %d", nw.Name, ref.local+1),
				ScaledPosition:   scaled[ref.batchIndex],
				UnscaledPosition: s.Position,
				Rotation:         s.Rotation,
				SweepFlag:        s.SweepFlag,
				IsDark:           s.IsDark,
				Radius:           radius,
				SensorIndex:      ref.sensorIndex,
				Channel:          channel,
			}
			sensors = append(sensors, sr)
		}
	}
	return hexagons, sensors, nil
}

// measure copies the static sensors and fills in the measurement fields.
func (f *Factory) measure(static []SensorRender, req *Request) []SensorRender {
	scheme := req.Color.Scheme
	if scheme == nil {
		scheme = colorscale.Default()
	}
	values := req.Measurements
	min, max := req.Color.Min, req.Color.Max

	out := make([]SensorRender, len(static))
	copy(out, static)

	for i := range out {
		s := &out[i]
		idx := s.MeasurementIndex()

		s.IsActive = idx >= 0 && idx < len(values)
		s.FillColor = colorscale.GetColor(values, idx, scheme, min, max, FillOutOfRangeFactor)
		s.Text = ""
		s.TextColor = color.RGBA{}

		if !req.DisplayMode.Interactive() {
			continue
		}
		if s.IsActive {
			s.Text = strconv.FormatFloat(values[idx], 'f', 2, 64)
			s.TextColor = colorscale.GetColor(values, idx, scheme, min, max, TextOutOfRangeFactor)
		} else {
			s.Text = InactiveText
			s.TextColor = InactiveTextColor
		}
	}
	return out
}

// Package panel ties the detector pieces together the way a dashboard
// panel uses them: options and the latest frame are turned into a build
// request, the request into a display model, and the model into SVG or PNG.
package panel

import (
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"math"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/detector"
	"github.com/roman-kulish/detector-view/internal/layout"
	"github.com/roman-kulish/detector-view/internal/mapping"
	"github.com/roman-kulish/detector-view/internal/render"
	"github.com/roman-kulish/detector-view/internal/source"
)

const (
	defaultMin = -1
	defaultMax = 1
)

// Data is everything one build needs, resolved from options and a frame.
type Data struct {
	Type        string
	DisplayMode detector.DisplayMode

	// Arrays and Networks are expanded selections.
	Arrays   []string
	Networks []string

	Measurements   []float64
	Mapping        mapping.Mapping
	MappingVersion uint64
	Color          detector.ColorConfig

	BaseURL   string
	Variables *detector.Variables
}

// Extension is the file extension of the rendered output.
func (d *Data) Extension() string {
	if d.DisplayMode.Raster() {
		return ".png"
	}
	return ".svg"
}

func (d *Data) legend() render.Legend {
	return render.Legend{Scheme: d.Color.Scheme, Min: d.Color.Min, Max: d.Color.Max}
}

type Option func(*Panel)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = logger
	}
}

// WithScale sets the raster scale used in the fast mode.
func WithScale(scale float64) Option {
	return func(p *Panel) {
		p.scale = scale
	}
}

// Panel owns the per-instance caches. It is not safe for concurrent use.
type Panel struct {
	registry detector.Registry
	factory  *detector.Factory
	resolver *mapping.Resolver
	cache    *detector.Cache
	raster   *render.Raster
	scale    float64
	logger   *slog.Logger
}

func New(registry detector.Registry, opts ...Option) (*Panel, error) {
	p := &Panel{
		registry: registry,
		cache:    detector.NewCache(),
		scale:    1,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	factory, err := detector.NewFactory(registry, render.DetectorExtent(), detector.WithLogger(p.logger))
	if err != nil {
		return nil, fmt.Errorf("creating factory: %w", err)
	}
	p.factory = factory
	p.resolver = mapping.NewResolver(p.logger)
	return p, nil
}

// Prepare resolves opts against the latest frame. Nil options yield the
// defaults with no measurements.
func (p *Panel) Prepare(opts *Options, frame *source.Frame) Data {
	if opts == nil {
		opts = DefaultOptions()
		frame = nil
	}

	var measurements []float64
	if frame != nil {
		measurements = frame.Values
	}

	data := Data{
		Type:         opts.Type,
		DisplayMode:  opts.DisplayMode,
		Arrays:       opts.Arrays,
		Networks:     opts.Networks,
		Measurements: measurements,
		Mapping:      p.resolver.Resolve(opts.ChannelMapping, len(measurements)),
		BaseURL:      opts.BaseURL,
		Variables:    opts.Variables,
	}
	data.MappingVersion = p.resolver.Version()

	// An unknown type keeps the raw selection; Build reports the error.
	if d, err := p.registry.Lookup(opts.Type); err == nil {
		data.Arrays = layout.ExpandSelection(opts.Arrays, d.Arrays())
		data.Networks = layout.ExpandSelection(opts.Networks, d.NetworksFor(data.Arrays))
	}

	scheme, err := colorscale.Lookup(opts.ColorScheme)
	if err != nil {
		if opts.ColorScheme != "" {
			p.logger.Warn("falling back to the default color scheme", slog.String("scheme", opts.ColorScheme))
		}
		scheme = colorscale.Default()
	}

	lo, hi := boundValue(opts.Range.Min, frame), boundValue(opts.Range.Max, frame)
	if !(lo < hi) {
		p.logger.Debug("color range is empty, using defaults",
			slog.Float64("min", lo),
			slog.Float64("max", hi))
		lo, hi = defaultMin, defaultMax
	}
	data.Color = detector.ColorConfig{Scheme: scheme, Min: lo, Max: hi}

	return data
}

// boundValue is the fixed value, or the frame field when the bound is tied
// to one. A missing field reads as zero.
func boundValue(b Bound, frame *source.Frame) float64 {
	if b.Field == "" {
		return b.Value
	}
	v, ok := frame.Field(b.Field)
	if !ok || math.IsNaN(v) {
		return 0
	}
	return v
}

// Build turns data into a display model. While editing the cached
// geometry is ignored.
func (p *Panel) Build(data Data, editing bool) (*detector.ComponentData, error) {
	return p.factory.Build(detector.Request{
		Type:           data.Type,
		DisplayMode:    data.DisplayMode,
		Arrays:         data.Arrays,
		Networks:       data.Networks,
		Measurements:   data.Measurements,
		Color:          data.Color,
		Mapping:        data.Mapping,
		MappingVersion: data.MappingVersion,
		BaseURL:        data.BaseURL,
		Variables:      data.Variables,
		Rebuild:        editing,
	}, p.cache)
}

// Render writes cd as PNG in the fast mode and as SVG otherwise.
func (p *Panel) Render(w io.Writer, data Data, cd *detector.ComponentData) error {
	if !data.DisplayMode.Raster() {
		return render.NewSVG(data.DisplayMode).Render(w, cd, data.legend())
	}

	if p.raster == nil {
		r, err := render.NewRaster(render.WithScale(p.scale))
		if err != nil {
			return fmt.Errorf("creating raster renderer: %w", err)
		}
		p.raster = r
	}

	img, err := p.raster.Render(cd, data.legend())
	if err != nil {
		return fmt.Errorf("rendering raster: %w", err)
	}
	if err = png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

// Invalidate drops the cached geometry.
func (p *Panel) Invalidate() {
	p.cache.Invalidate()
}

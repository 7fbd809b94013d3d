package colorscale

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Resolution is the number of discrete colors in every scheme.
const Resolution = 256

// DefaultScheme is used when no scheme is configured.
const DefaultScheme = "coolwarm"

// ErrUnknownScheme is returned by Lookup for keys that are not registered.
var ErrUnknownScheme = errors.New("unknown color scheme")

// Scheme is an ordered color ramp plus three sentinel colors: Low and High
// for measurements far outside the configured range, and Invalid for
// sensors whose channel has no measurement.
type Scheme struct {
	Key     string
	Label   string
	Colors  []color.RGBA
	Low     color.RGBA
	High    color.RGBA
	Invalid color.RGBA
}

// stop is an anchor of a ramp at a normalized position in [0,1].
type stop struct {
	pos float64
	hex string
}

type schemeDef struct {
	key, label         string
	stops              []stop
	low, high, invalid string
}

// Anchors are sampled from the reference colormaps; the ramp between them
// is blended in CIE-Lab to stay perceptually even.
var schemeDefs = []schemeDef{
	{
		key:   "cividis",
		label: "Cividis",
		stops: []stop{
			{0, "#00224e"}, {0.2, "#35456c"}, {0.4, "#666970"},
			{0.6, "#948e77"}, {0.8, "#c8b866"}, {1, "#fee838"},
		},
		low: "#000814", high: "#fffbd0", invalid: "#ff00ff",
	},
	{
		key:   "viridis",
		label: "Viridis",
		stops: []stop{
			{0, "#440154"}, {0.25, "#3b528b"}, {0.5, "#21918c"},
			{0.75, "#5ec962"}, {1, "#fde725"},
		},
		low: "#1a0020", high: "#fff8b0", invalid: "#ff0000",
	},
	{
		key:   "hot",
		label: "Hot",
		stops: []stop{
			{0, "#0b0000"}, {0.375, "#ff0000"}, {0.75, "#ffff00"}, {1, "#ffffff"},
		},
		low: "#000033", high: "#9ad0ff", invalid: "#00ff00",
	},
	{
		key:   "coolwarm",
		label: "Coolwarm",
		stops: []stop{
			{0, "#3b4cc0"}, {0.25, "#7b9ff9"}, {0.5, "#dddddd"},
			{0.75, "#f49a7b"}, {1, "#b40426"},
		},
		low: "#0b0f4f", high: "#4a0010", invalid: "#00ff00",
	},
	{
		key:   "plasma",
		label: "Plasma",
		stops: []stop{
			{0, "#0d0887"}, {0.25, "#7e03a8"}, {0.5, "#cc4778"},
			{0.75, "#f89540"}, {1, "#f0f921"},
		},
		low: "#02013a", high: "#fdffc0", invalid: "#00ffff",
	},
}

var registry = mustBuildRegistry()

func mustBuildRegistry() map[string]*Scheme {
	schemes := make(map[string]*Scheme, len(schemeDefs))
	for _, def := range schemeDefs {
		s, err := def.build(Resolution)
		if err != nil {
			panic(fmt.Sprintf("building color scheme %q: %v", def.key, err))
		}
		schemes[def.key] = s
	}
	return schemes
}

func (d schemeDef) build(size int) (*Scheme, error) {
	anchors := make([]colorful.Color, len(d.stops))
	for i, s := range d.stops {
		c, err := colorful.Hex(s.hex)
		if err != nil {
			return nil, fmt.Errorf("parsing stop %d: %w", i, err)
		}
		anchors[i] = c
	}

	colors := make([]color.RGBA, size)
	for i := range colors {
		t := float64(i) / float64(size-1)
		colors[i] = toRGBA(d.sample(anchors, t))
	}

	s := &Scheme{Key: d.key, Label: d.label, Colors: colors}
	for _, sentinel := range []struct {
		hex string
		dst *color.RGBA
	}{
		{d.low, &s.Low},
		{d.high, &s.High},
		{d.invalid, &s.Invalid},
	} {
		c, err := ParseHex(sentinel.hex)
		if err != nil {
			return nil, err
		}
		*sentinel.dst = c
	}
	return s, nil
}

func (d schemeDef) sample(anchors []colorful.Color, t float64) colorful.Color {
	for i := 1; i < len(d.stops); i++ {
		if t <= d.stops[i].pos {
			lo, hi := d.stops[i-1].pos, d.stops[i].pos
			return anchors[i-1].BlendLab(anchors[i], (t-lo)/(hi-lo)).Clamped()
		}
	}
	return anchors[len(anchors)-1]
}

// Lookup returns the scheme registered under key.
func Lookup(key string) (*Scheme, error) {
	s, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, key)
	}
	return s, nil
}

// Default returns the default scheme.
func Default() *Scheme {
	return registry[DefaultScheme]
}

// Keys returns the registered scheme keys in display order.
func Keys() []string {
	keys := make([]string, 0, len(schemeDefs))
	for _, def := range schemeDefs {
		keys = append(keys, def.key)
	}
	return keys
}

// Has reports whether key names a registered scheme.
func Has(key string) bool {
	_, ok := registry[key]
	return ok
}

// ParseHex parses a "#rrggbb" or "#rgb" color.
func ParseHex(s string) (color.RGBA, error) {
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parsing color %q: %w", s, err)
	}
	return toRGBA(c), nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

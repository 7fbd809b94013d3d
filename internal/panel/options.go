package panel

import (
	"errors"
	"fmt"
	"math"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/detector"
	"github.com/roman-kulish/detector-view/internal/layout"
)

// ErrInvalidOptions is returned by Options.Validate.
var ErrInvalidOptions = errors.New("invalid panel options")

// Bound is one end of the color range: a fixed value, or the latest value
// of a frame field when Field is set.
type Bound struct {
	Value float64 `yaml:"value"`
	Field string  `yaml:"field,omitempty"`
}

type Range struct {
	Min Bound `yaml:"min"`
	Max Bound `yaml:"max"`
}

// Options is the persisted panel configuration.
type Options struct {
	Type           string               `yaml:"type"`
	DisplayMode    detector.DisplayMode `yaml:"displayMode"`
	Arrays         []string             `yaml:"arrays"`
	Networks       []string             `yaml:"networks"`
	ChannelMapping string               `yaml:"channelMapping"`
	ColorScheme    string               `yaml:"colorScheme"`
	Range          Range                `yaml:"range"`
	BaseURL        string               `yaml:"baseURL"`
	Variables      *detector.Variables  `yaml:"variables,omitempty"`
}

// DefaultOptions shows every array of the default detector in the display
// mode over the -1..1 range.
func DefaultOptions() *Options {
	return &Options{
		Type:        layout.DefaultType,
		DisplayMode: detector.Display,
		Arrays:      []string{layout.AllOption},
		Networks:    []string{layout.AllOption},
		ColorScheme: colorscale.DefaultScheme,
		Range: Range{
			Min: Bound{Value: defaultMin},
			Max: Bound{Value: defaultMax},
		},
	}
}

// Validate checks the fields that cannot be recovered from at build time.
// Unknown array and network names are not errors.
func (o *Options) Validate() error {
	if o.Type == "" {
		return fmt.Errorf("%w: detector type is required", ErrInvalidOptions)
	}
	if o.ColorScheme != "" && !colorscale.Has(o.ColorScheme) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidOptions, colorscale.ErrUnknownScheme, o.ColorScheme)
	}
	for name, b := range map[string]Bound{"min": o.Range.Min, "max": o.Range.Max} {
		if b.Field == "" && (math.IsNaN(b.Value) || math.IsInf(b.Value, 0)) {
			return fmt.Errorf("%w: %s bound %v is not finite", ErrInvalidOptions, name, b.Value)
		}
	}
	return nil
}

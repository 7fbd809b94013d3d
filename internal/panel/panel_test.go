package panel

import (
	"bytes"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/detector-view/internal/colorscale"
	"github.com/roman-kulish/detector-view/internal/detector"
	"github.com/roman-kulish/detector-view/internal/layout"
	"github.com/roman-kulish/detector-view/internal/source"
)

const blastSensors = 271

func newPanel(t *testing.T, opts ...Option) *Panel {
	t.Helper()

	registry, err := layout.NewRegistry()
	require.NoError(t, err)

	p, err := New(registry, opts...)
	require.NoError(t, err)
	return p
}

func blastFrame(fields map[string]float64) *source.Frame {
	values := make([]float64, blastSensors)
	for i := range values {
		values[i] = float64(i%5)/2 - 1
	}
	return &source.Frame{Values: values, Fields: fields}
}

func TestPrepareDefaults(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	data := p.Prepare(nil, blastFrame(nil))

	assert.Equal(t, layout.DefaultType, data.Type)
	assert.Equal(t, detector.Display, data.DisplayMode)
	assert.Equal(t, []string{"BLAST_array"}, data.Arrays)
	assert.Equal(t, []string{
		"BLAST_array network-1",
		"BLAST_array network-2",
		"BLAST_array network-3",
	}, data.Networks)
	assert.Nil(t, data.Measurements)
	assert.Equal(t, colorscale.DefaultScheme, data.Color.Scheme.Key)
	assert.Equal(t, -1.0, data.Color.Min)
	assert.Equal(t, 1.0, data.Color.Max)
	assert.Equal(t, ".svg", data.Extension())
}

func TestPrepareRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rng      Range
		fields   map[string]float64
		min, max float64
	}{
		{
			name: "fixed",
			rng:  Range{Min: Bound{Value: -5}, Max: Bound{Value: 5}},
			min:  -5, max: 5,
		},
		{
			name:   "field bound",
			rng:    Range{Min: Bound{Value: -5}, Max: Bound{Field: "peak"}},
			fields: map[string]float64{"peak": 7.5},
			min:    -5, max: 7.5,
		},
		{
			name:   "missing field reads as zero",
			rng:    Range{Min: Bound{Field: "floor"}, Max: Bound{Field: "peak"}},
			fields: map[string]float64{"peak": 2},
			min:    0, max: 2,
		},
		{
			name: "empty range falls back",
			rng:  Range{Min: Bound{Value: 3}, Max: Bound{Value: 3}},
			min:  -1, max: 1,
		},
		{
			name:   "inverted range falls back",
			rng:    Range{Min: Bound{Value: 4}, Max: Bound{Field: "peak"}},
			fields: map[string]float64{"peak": 1},
			min:    -1, max: 1,
		},
		{
			name:   "NaN field reads as zero",
			rng:    Range{Min: Bound{Value: -1}, Max: Bound{Field: "peak"}},
			fields: map[string]float64{"peak": math.NaN()},
			min:    -1, max: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPanel(t)
			opts := DefaultOptions()
			opts.Range = tt.rng

			data := p.Prepare(opts, blastFrame(tt.fields))
			assert.Equal(t, tt.min, data.Color.Min)
			assert.Equal(t, tt.max, data.Color.Max)
		})
	}
}

func TestPrepareSelections(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	opts := DefaultOptions()
	opts.Type = "PRIMECAM-280"
	opts.Arrays = []string{"PRIMECAM-280_TiN", "bogus"}

	data := p.Prepare(opts, nil)
	assert.Equal(t, []string{"PRIMECAM-280_TiN"}, data.Arrays)
	require.Len(t, data.Networks, 6)
	for _, n := range data.Networks {
		assert.True(t, strings.HasPrefix(n, "PRIMECAM-280_TiN "), n)
	}

	opts.Type = "MISSING"
	data = p.Prepare(opts, nil)
	assert.Equal(t, opts.Arrays, data.Arrays)
}

func TestPrepareUnknownSchemeFallsBack(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	opts := DefaultOptions()
	opts.ColorScheme = "sepia"

	data := p.Prepare(opts, nil)
	assert.Same(t, colorscale.Default(), data.Color.Scheme)
}

func TestPrepareTracksMappingVersion(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	opts := DefaultOptions()
	frame := blastFrame(nil)

	first := p.Prepare(opts, frame)
	again := p.Prepare(opts, frame)
	assert.Equal(t, first.MappingVersion, again.MappingVersion)
	assert.Len(t, first.Mapping, blastSensors)

	opts.ChannelMapping = "1:2, 2:1"
	changed := p.Prepare(opts, frame)
	assert.NotEqual(t, first.MappingVersion, changed.MappingVersion)

	cd, err := p.Build(changed, false)
	require.NoError(t, err)
	assert.Equal(t, 2, cd.Sensors[0].Channel)
	assert.Equal(t, 1, cd.Sensors[1].Channel)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	data := p.Prepare(DefaultOptions(), blastFrame(nil))

	cd, err := p.Build(data, false)
	require.NoError(t, err)
	require.Len(t, cd.Hexagons, 1)
	assert.Len(t, cd.Sensors, blastSensors)
	for _, s := range cd.Sensors {
		assert.True(t, s.IsActive, s.ID)
	}

	again, err := p.Build(data, false)
	require.NoError(t, err)
	assert.Same(t, &cd.Hexagons[0], &again.Hexagons[0])

	edited, err := p.Build(data, true)
	require.NoError(t, err)
	assert.NotSame(t, &cd.Hexagons[0], &edited.Hexagons[0])
}

func TestBuildUnknownDetector(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	opts := DefaultOptions()
	opts.Type = "MISSING"

	_, err := p.Build(p.Prepare(opts, nil), false)
	assert.ErrorIs(t, err, layout.ErrUnknownDetector)
}

func TestRenderSVG(t *testing.T) {
	t.Parallel()

	p := newPanel(t)
	data := p.Prepare(DefaultOptions(), blastFrame(nil))
	cd, err := p.Build(data, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, data, cd))
	assert.Contains(t, buf.String(), "<svg")
	assert.Equal(t, blastSensors, strings.Count(buf.String(), "<path"))
}

func TestRenderPNG(t *testing.T) {
	t.Parallel()

	p := newPanel(t, WithScale(0.5))
	opts := DefaultOptions()
	opts.DisplayMode = detector.Fast

	data := p.Prepare(opts, blastFrame(nil))
	assert.Equal(t, ".png", data.Extension())

	cd, err := p.Build(data, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, data, cd))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 260, img.Bounds().Dx())
	assert.Equal(t, 230, img.Bounds().Dy())
}

func TestRenderRejectsBadScale(t *testing.T) {
	t.Parallel()

	p := newPanel(t, WithScale(-1))
	opts := DefaultOptions()
	opts.DisplayMode = detector.Fast

	data := p.Prepare(opts, nil)
	cd, err := p.Build(data, false)
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, p.Render(&buf, data, cd))
}

func TestOptionsYAML(t *testing.T) {
	t.Parallel()

	const doc = `
type: PRIMECAM-280
displayMode: fast
arrays: [all]
networks: [all]
channelMapping: "1:3, 2:4"
colorScheme: viridis
range:
  min: {value: -2}
  max: {field: peak}
baseURL: https://dash.example.org/d/abc
variables:
  datastream: ds
  attribute: power
  normalized: true
`
	var opts Options
	require.NoError(t, yaml.Unmarshal([]byte(doc), &opts))
	require.NoError(t, opts.Validate())

	assert.Equal(t, "PRIMECAM-280", opts.Type)
	assert.Equal(t, detector.Fast, opts.DisplayMode)
	assert.Equal(t, Bound{Value: -2}, opts.Range.Min)
	assert.Equal(t, Bound{Field: "peak"}, opts.Range.Max)
	require.NotNil(t, opts.Variables)
	assert.True(t, opts.Variables.Normalized)
}

func TestOptionsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{name: "missing type", modify: func(o *Options) { o.Type = "" }},
		{name: "unknown scheme", modify: func(o *Options) { o.ColorScheme = "sepia" }},
		{name: "infinite bound", modify: func(o *Options) { o.Range.Max.Value = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(opts)
			assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions)
		})
	}

	assert.NoError(t, DefaultOptions().Validate())
}

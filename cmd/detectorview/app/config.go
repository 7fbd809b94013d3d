package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/detector-view/internal/panel"
	"github.com/roman-kulish/detector-view/internal/source"
)

const (
	defaultOutputDir    = "out"
	defaultOutputPrefix = "frame"
)

// Config represents the render configuration file.
type Config struct {
	Settings Settings       `yaml:"settings"`
	Panel    *panel.Options `yaml:"panel"`
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// SourceConfig selects where frames are read from.
type SourceConfig struct {
	Kind  string     `yaml:"kind"`
	Path  string     `yaml:"path"`
	Start *time.Time `yaml:"start,omitempty"`
	End   *time.Time `yaml:"end,omitempty"`
	Limit int        `yaml:"limit"`
}

// OutputConfig controls where rendered frames are written. Scale only
// applies to the fast display mode.
type OutputConfig struct {
	Dir    string  `yaml:"dir"`
	Prefix string  `yaml:"prefix"`
	Scale  float64 `yaml:"scale"`
}

func NewConfig() *Config {
	return &Config{
		Panel:  panel.DefaultOptions(),
		Source: SourceConfig{Kind: source.KindFile},
		Output: OutputConfig{
			Dir:    defaultOutputDir,
			Prefix: defaultOutputPrefix,
			Scale:  1,
		},
	}
}

// LoadConfig reads the file at path over the defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	c := NewConfig()
	if err = yaml.Unmarshal(p, c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err = c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Panel == nil {
		return errors.New("panel options are required")
	}
	if err := c.Panel.Validate(); err != nil {
		return err
	}

	var err error
	switch {
	case c.Source.Kind != source.KindFile && c.Source.Kind != source.KindSqlite:
		err = fmt.Errorf("%w: %q", source.ErrUnknownKind, c.Source.Kind)
	case c.Source.Path == "":
		err = errors.New("source path is required")
	case c.Source.Start != nil && c.Source.End != nil && c.Source.Start.After(*c.Source.End):
		err = errors.New("source start is after end")
	case c.Source.Limit < 0:
		err = fmt.Errorf("invalid source limit %d", c.Source.Limit)
	case c.Output.Dir == "":
		err = errors.New("output directory is required")
	case !(c.Output.Scale > 0):
		err = fmt.Errorf("invalid output scale %v", c.Output.Scale)
	}
	return err
}

// readerOptions translates the source filters.
func (c *Config) readerOptions() []source.ReaderOption {
	var opts []source.ReaderOption
	if c.Source.Start != nil {
		opts = append(opts, source.WithStartTime(c.Source.Start.UTC()))
	}
	if c.Source.End != nil {
		opts = append(opts, source.WithEndTime(c.Source.End.UTC()))
	}
	if c.Source.Limit > 0 {
		opts = append(opts, source.WithLimit(c.Source.Limit))
	}
	return opts
}

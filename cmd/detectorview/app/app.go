package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/detector-view/internal/layout"
	"github.com/roman-kulish/detector-view/internal/panel"
	"github.com/roman-kulish/detector-view/internal/source"
)

// Run renders every frame of the configured source into the output
// directory, one file per frame.
func Run(ctx context.Context, config *Config, rebuild bool, logger *slog.Logger) error {
	registry, err := layout.NewRegistry()
	if err != nil {
		return fmt.Errorf("loading detector layouts: %w", err)
	}

	d, err := registry.Lookup(config.Panel.Type)
	if err != nil {
		return err
	}

	p, err := panel.New(registry, panel.WithLogger(logger), panel.WithScale(config.Output.Scale))
	if err != nil {
		return fmt.Errorf("creating panel: %w", err)
	}

	if _, err := os.Stat(config.Source.Path); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("source file '%s' does not exist: %w", config.Source.Path, err)
	}

	reader, err := source.Open(config.Source.Kind, config.Source.Path, config.readerOptions()...)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer reader.Close()

	if err = os.MkdirAll(config.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	logger.Info("rendering detector",
		slog.Group("detector",
			slog.String("type", d.Type),
			slog.String("label", d.Label),
			slog.String("sensors", humanize.Comma(int64(d.SensorCount()))),
		),
		slog.Group("source",
			slog.String("kind", config.Source.Kind),
			slog.String("path", config.Source.Path),
		),
		slog.String("mode", config.Panel.DisplayMode.String()),
		slog.String("destination", config.Output.Dir))

	started := time.Now()
	var frames int
	var written uint64
	for reader.Next(ctx) {
		frame := reader.Current()

		data := p.Prepare(config.Panel, frame)
		cd, err := p.Build(data, rebuild)
		if err != nil {
			return fmt.Errorf("building frame %d: %w", frames, err)
		}

		path := filepath.Join(config.Output.Dir, fmt.Sprintf("%s-%05d%s", config.Output.Prefix, frames, data.Extension()))
		n, err := writeFile(path, func(w io.Writer) error {
			return p.Render(w, data, cd)
		})
		if err != nil {
			return fmt.Errorf("writing frame %d: %w", frames, err)
		}

		logger.Debug("frame rendered",
			slog.String("path", path),
			slog.String("timestamp", frame.Timestamp.UTC().Format(time.DateTime)),
			slog.Int("measurements", len(frame.Values)),
			slog.String("size", humanize.Bytes(n)))

		frames++
		written += n
	}
	if err = reader.Error(); err != nil {
		return fmt.Errorf("reading frames: %w", err)
	}

	if frames == 0 {
		logger.Warn("no frames matched the source filters")
		return nil
	}

	logger.Info("finished rendering",
		slog.Group("stats",
			slog.String("frames", humanize.Comma(int64(frames))),
			slog.String("written", humanize.Bytes(written)),
			slog.Duration("elapsed", time.Since(started)),
		))
	return nil
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

func writeFile(path string, fn func(io.Writer) error) (n uint64, err error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cErr)
		}
	}()

	buf := bufio.NewWriter(out)
	cw := &countingWriter{w: buf}
	if err = fn(cw); err != nil {
		return 0, err
	}
	if err = buf.Flush(); err != nil {
		return 0, err
	}
	return cw.n, nil
}

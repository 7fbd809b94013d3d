package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

type framesFile struct {
	Frames []frameEntry `yaml:"frames"`
}

type frameEntry struct {
	Timestamp time.Time          `yaml:"timestamp"`
	Values    []float64          `yaml:"values"`
	Fields    map[string]float64 `yaml:"fields"`
}

// FileReader iterates over frames loaded from a YAML document:
//
//	frames:
//	  - timestamp: 2024-05-01T10:00:00Z
//	    values: [0.1, -0.4, .nan]
//	    fields: {max: 1.5}
//
// Frames are returned in timestamp order.
type FileReader struct {
	frames  []*Frame
	pos     int
	current *Frame
	err     error
}

// OpenFile reads every frame of the file at path.
func OpenFile(path string, opts ...ReaderOption) (r *FileReader, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening frames file: %w", err)
	}
	defer closeWithError(f, &err)

	return NewFileReader(f, opts...)
}

// NewFileReader decodes frames from r.
func NewFileReader(r io.Reader, opts ...ReaderOption) (*FileReader, error) {
	flt, err := newFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("initializing filters: %w", err)
	}

	var doc framesFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding frames: %w", err)
	}

	frames := make([]*Frame, 0, len(doc.Frames))
	for _, e := range doc.Frames {
		if !flt.includes(e.Timestamp) {
			continue
		}
		frames = append(frames, &Frame{Timestamp: e.Timestamp, Values: e.Values, Fields: e.Fields})
	}
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Timestamp.Before(frames[j].Timestamp)
	})
	if flt.limit > 0 && len(frames) > flt.limit {
		frames = frames[:flt.limit]
	}

	return &FileReader{frames: frames}, nil
}

func (fr *FileReader) Next(ctx context.Context) bool {
	if fr.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		fr.err = err
		return false
	}
	if fr.pos >= len(fr.frames) {
		fr.current = nil
		return false
	}
	fr.current = fr.frames[fr.pos]
	fr.pos++
	return true
}

func (fr *FileReader) Current() *Frame {
	return fr.current
}

func (fr *FileReader) Error() error {
	return fr.err
}

func (fr *FileReader) Close() error {
	fr.frames = nil
	fr.current = nil
	return nil
}

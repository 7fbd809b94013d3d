// Package source reads measurement frames for the detector panel. A frame is
// one snapshot of per-channel values plus named scalar fields, which may
// bind the color range.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownKind is returned by Open for a source kind it cannot read.
var ErrUnknownKind = errors.New("unknown source kind")

// Supported source kinds.
const (
	KindFile   = "file"
	KindSqlite = "sqlite"
)

// Frame is a single measurement snapshot. Values[i] is the measurement of
// channel i+1; NaN marks a missing value.
type Frame struct {
	Timestamp time.Time
	Values    []float64
	Fields    map[string]float64
}

// Field returns the named scalar field.
func (f *Frame) Field(name string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	v, ok := f.Fields[name]
	return v, ok
}

// Reader provides an iterator over frames in timestamp order.
type Reader interface {
	// Next advances the iterator and returns true if there is another frame
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current frame. If called after Next() returns
	// false, the behavior is undefined.
	Current() *Frame

	// Error returns any error that occurred during iteration.
	Error() error

	// Close releases any resources associated with the reader.
	Close() error
}

// ReaderOption narrows the frames a reader returns.
type ReaderOption func(*filter)

// WithStartTime excludes frames before t.
func WithStartTime(t time.Time) ReaderOption {
	return func(f *filter) {
		f.startTime = &t
	}
}

// WithEndTime excludes frames after t.
func WithEndTime(t time.Time) ReaderOption {
	return func(f *filter) {
		f.endTime = &t
	}
}

// WithLimit caps the number of frames returned. Zero means no limit.
func WithLimit(n int) ReaderOption {
	return func(f *filter) {
		f.limit = n
	}
}

type filter struct {
	startTime *time.Time
	endTime   *time.Time
	limit     int
}

func newFilter(opts []ReaderOption) (filter, error) {
	var f filter
	for _, opt := range opts {
		opt(&f)
	}
	if f.startTime != nil && f.endTime != nil && f.startTime.After(*f.endTime) {
		return f, fmt.Errorf("start time %s is after end time %s", f.startTime, f.endTime)
	}
	if f.limit < 0 {
		return f, fmt.Errorf("negative limit %d", f.limit)
	}
	return f, nil
}

func (f *filter) includes(t time.Time) bool {
	if f.startTime != nil && t.Before(*f.startTime) {
		return false
	}
	if f.endTime != nil && t.After(*f.endTime) {
		return false
	}
	return true
}

// Open returns a reader for the given kind of source at path.
func Open(kind, path string, opts ...ReaderOption) (Reader, error) {
	var (
		r   Reader
		err error
	)
	switch kind {
	case KindFile:
		r, err = OpenFile(path, opts...)
	case KindSqlite:
		r, err = OpenSqlite(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

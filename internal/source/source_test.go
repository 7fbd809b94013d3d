package source

import (
	"context"
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const framesYAML = `
frames:
  - timestamp: 2024-05-01T10:00:02Z
    values: [3, 3.5]
  - timestamp: 2024-05-01T10:00:00Z
    values: [1, .nan, -1]
    fields:
      max: 2.5
  - timestamp: 2024-05-01T10:00:01Z
    values: [2]
`

func ts(sec int) time.Time {
	return time.Date(2024, 5, 1, 10, 0, sec, 0, time.UTC)
}

func collect(t *testing.T, r Reader) []*Frame {
	t.Helper()

	var frames []*Frame
	for r.Next(context.Background()) {
		frames = append(frames, r.Current())
	}
	require.NoError(t, r.Error())
	return frames
}

var frameOpts = []cmp.Option{
	cmpopts.EquateNaNs(),
	cmpopts.EquateEmpty(),
}

func TestFileReader(t *testing.T) {
	t.Parallel()

	r, err := NewFileReader(strings.NewReader(framesYAML))
	require.NoError(t, err)
	defer r.Close()

	want := []*Frame{
		{Timestamp: ts(0), Values: []float64{1, math.NaN(), -1}, Fields: map[string]float64{"max": 2.5}},
		{Timestamp: ts(1), Values: []float64{2}},
		{Timestamp: ts(2), Values: []float64{3, 3.5}},
	}
	if diff := cmp.Diff(want, collect(t, r), frameOpts...); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, r.Current())
}

func TestFileReaderFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []ReaderOption
		want []time.Time
	}{
		{name: "all", want: []time.Time{ts(0), ts(1), ts(2)}},
		{name: "start", opts: []ReaderOption{WithStartTime(ts(1))}, want: []time.Time{ts(1), ts(2)}},
		{name: "end", opts: []ReaderOption{WithEndTime(ts(1))}, want: []time.Time{ts(0), ts(1)}},
		{name: "limit", opts: []ReaderOption{WithLimit(1)}, want: []time.Time{ts(0)}},
		{name: "window", opts: []ReaderOption{WithStartTime(ts(1)), WithEndTime(ts(1))}, want: []time.Time{ts(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFileReader(strings.NewReader(framesYAML), tt.opts...)
			require.NoError(t, err)

			var got []time.Time
			for _, f := range collect(t, r) {
				got = append(got, f.Timestamp)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterValidation(t *testing.T) {
	t.Parallel()

	_, err := NewFileReader(strings.NewReader(framesYAML), WithStartTime(ts(2)), WithEndTime(ts(1)))
	assert.Error(t, err)

	_, err = NewFileReader(strings.NewReader(framesYAML), WithLimit(-1))
	assert.Error(t, err)
}

func TestFileReaderEmptyAndMalformed(t *testing.T) {
	t.Parallel()

	r, err := NewFileReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, collect(t, r))

	_, err = NewFileReader(strings.NewReader("frames: {"))
	assert.Error(t, err)
}

func TestFileReaderCancelled(t *testing.T) {
	t.Parallel()

	r, err := NewFileReader(strings.NewReader(framesYAML))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, r.Next(ctx))
	assert.ErrorIs(t, r.Error(), context.Canceled)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "frames.yaml")
	require.NoError(t, os.WriteFile(path, []byte(framesYAML), 0o644))

	r, err := Open(KindFile, path)
	require.NoError(t, err)
	assert.Len(t, collect(t, r), 3)
	require.NoError(t, r.Close())

	_, err = Open("kafka", path)
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Open(KindFile, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func createDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frames.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)

	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO frames (id, timestamp) VALUES (?, ?)`, []any{1, ts(0).UnixMilli()}},
		{`INSERT INTO frames (id, timestamp) VALUES (?, ?)`, []any{2, ts(1).UnixMilli()}},
		{`INSERT INTO frames (id, timestamp) VALUES (?, ?)`, []any{3, ts(2).UnixMilli()}},
		{`INSERT INTO frame_values (frame_id, channel, value) VALUES (?, ?, ?)`, []any{1, 1, 0.5}},
		{`INSERT INTO frame_values (frame_id, channel, value) VALUES (?, ?, ?)`, []any{1, 2, nil}},
		{`INSERT INTO frame_values (frame_id, channel, value) VALUES (?, ?, ?)`, []any{1, 4, -0.5}},
		{`INSERT INTO frame_values (frame_id, channel, value) VALUES (?, ?, ?)`, []any{2, 1, 1.5}},
		{`INSERT INTO frame_fields (frame_id, name, value) VALUES (?, ?, ?)`, []any{1, "max", 3}},
		{`INSERT INTO frame_fields (frame_id, name, value) VALUES (?, ?, ?)`, []any{1, "min", -3}},
	}
	for _, s := range stmts {
		_, err := db.Exec(s.query, s.args...)
		require.NoError(t, err)
	}
	return path
}

func TestSqliteReader(t *testing.T) {
	t.Parallel()

	path := createDatabase(t)
	r, err := OpenSqlite(path)
	require.NoError(t, err)
	defer r.Close()

	want := []*Frame{
		{
			Timestamp: ts(0),
			Values:    []float64{0.5, math.NaN(), math.NaN(), -0.5},
			Fields:    map[string]float64{"max": 3, "min": -3},
		},
		{Timestamp: ts(1), Values: []float64{1.5}},
		{Timestamp: ts(2)},
	}
	if diff := cmp.Diff(want, collect(t, r), frameOpts...); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteReaderFilters(t *testing.T) {
	t.Parallel()

	path := createDatabase(t)
	r, err := OpenSqlite(path, WithStartTime(ts(1)), WithLimit(1))
	require.NoError(t, err)
	defer r.Close()

	frames := collect(t, r)
	require.Len(t, frames, 1)
	assert.Equal(t, ts(1), frames[0].Timestamp)
}

func TestSqliteReaderMissingDatabase(t *testing.T) {
	t.Parallel()

	_, err := OpenSqlite(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestSqliteReaderClose(t *testing.T) {
	t.Parallel()

	r, err := OpenSqlite(createDatabase(t))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.False(t, r.Next(context.Background()))
}

// Databases written by other tools may lack the channel constraint.
const uncheckedSchemaSQL = `
CREATE TABLE frames (id INTEGER PRIMARY KEY, timestamp INTEGER NOT NULL);
CREATE TABLE frame_values (frame_id INTEGER NOT NULL, channel INTEGER NOT NULL, value REAL);
CREATE TABLE frame_fields (frame_id INTEGER NOT NULL, name TEXT NOT NULL, value REAL NOT NULL);
`

func TestSqliteReaderInvalidChannel(t *testing.T) {
	t.Parallel()

	for _, channel := range []int64{0, -3, MaxChannel + 1, 2_000_000_000} {
		t.Run(strconv.FormatInt(channel, 10), func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "frames.db")
			db, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			_, err = db.Exec(uncheckedSchemaSQL)
			require.NoError(t, err)
			_, err = db.Exec(`INSERT INTO frames (id, timestamp) VALUES (1, ?)`, ts(0).UnixMilli())
			require.NoError(t, err)
			_, err = db.Exec(`INSERT INTO frame_values (frame_id, channel, value) VALUES (1, ?, 0.5)`, channel)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			r, err := OpenSqlite(path)
			require.NoError(t, err)
			defer r.Close()

			assert.False(t, r.Next(context.Background()))
			assert.ErrorIs(t, r.Error(), ErrInvalidChannel)
		})
	}
}

func TestFrameField(t *testing.T) {
	t.Parallel()

	f := &Frame{Fields: map[string]float64{"max": 2}}
	v, ok := f.Field("max")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = f.Field("min")
	assert.False(t, ok)

	var nilFrame *Frame
	_, ok = nilFrame.Field("max")
	assert.False(t, ok)
}

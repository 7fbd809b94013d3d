package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Timestamps are stored as Unix milliseconds. Channels in frame_values are
// 1-based; a NULL value is a missing measurement.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS frames (
    id        INTEGER PRIMARY KEY,
    timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_frames_timestamp ON frames (timestamp);

CREATE TABLE IF NOT EXISTS frame_values (
    frame_id INTEGER NOT NULL REFERENCES frames (id),
    channel  INTEGER NOT NULL CHECK (channel > 0),
    value    REAL,
    PRIMARY KEY (frame_id, channel)
);

CREATE TABLE IF NOT EXISTS frame_fields (
    frame_id INTEGER NOT NULL REFERENCES frames (id),
    name     TEXT    NOT NULL,
    value    REAL    NOT NULL,
    PRIMARY KEY (frame_id, name)
);
`

const (
	selectFramesSQL = `
SELECT 
    id, 
    timestamp
FROM frames
WHERE 
    timestamp BETWEEN ? AND ?
ORDER BY timestamp, id
LIMIT ?`

	selectFrameValuesSQL = `
SELECT 
    channel, 
    value
FROM frame_values
WHERE 
    frame_id = ?
ORDER BY channel`

	selectFrameFieldsSQL = `
SELECT 
    name, 
    value
FROM frame_fields
WHERE 
    frame_id = ?`
)

// MaxChannel bounds the channel numbers accepted from a database.
const MaxChannel = 1 << 20

// ErrInvalidChannel is returned when a stored channel is outside
// [1, MaxChannel].
var ErrInvalidChannel = errors.New("invalid channel")

// SqliteReader iterates over frames stored in a SQLite database. The
// database is opened read-only.
type SqliteReader struct {
	db     *sql.DB
	filter filter

	rows       *sql.Rows
	valuesStmt *sql.Stmt
	fieldsStmt *sql.Stmt

	current *Frame
	err     error
}

// OpenSqlite opens the database at path and starts the frames query.
func OpenSqlite(path string, opts ...ReaderOption) (*SqliteReader, error) {
	flt, err := newFilter(opts)
	if err != nil {
		return nil, fmt.Errorf("initializing filters: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", path, "mode=ro"))
	if err != nil {
		return nil, fmt.Errorf("opening read connection: %w", err)
	}

	sr := &SqliteReader{db: db, filter: flt}
	if err := sr.init(context.Background()); err != nil {
		_ = sr.Close()
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

func (sr *SqliteReader) init(ctx context.Context) error {
	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "connecting", fn: sr.db.PingContext},
		{msg: "preparing statements", fn: sr.prepare},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteReader) prepare(ctx context.Context) (err error) {
	if sr.valuesStmt, err = sr.db.PrepareContext(ctx, selectFrameValuesSQL); err != nil {
		return err
	}
	sr.fieldsStmt, err = sr.db.PrepareContext(ctx, selectFrameFieldsSQL)
	return err
}

func (sr *SqliteReader) initQuery(ctx context.Context) (err error) {
	start := int64(math.MinInt64)
	end := int64(math.MaxInt64)
	if sr.filter.startTime != nil {
		start = sr.filter.startTime.UnixMilli()
	}
	if sr.filter.endTime != nil {
		end = sr.filter.endTime.UnixMilli()
	}
	limit := -1 // no limit
	if sr.filter.limit > 0 {
		limit = sr.filter.limit
	}

	stmt, err := sr.db.PrepareContext(ctx, selectFramesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	sr.rows, err = stmt.QueryContext(ctx, start, end, limit)
	return err
}

func (sr *SqliteReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		sr.err = ctx.Err()
		return false
	default:
	}

	if !sr.rows.Next() {
		sr.current = nil
		return false
	}

	var id, millis int64
	if err := sr.rows.Scan(&id, &millis); err != nil {
		sr.err = fmt.Errorf("scanning frame: %w", err)
		return false
	}

	frame := &Frame{Timestamp: time.UnixMilli(millis).UTC()}
	if frame.Values, sr.err = sr.loadValues(ctx, id); sr.err != nil {
		return false
	}
	if frame.Fields, sr.err = sr.loadFields(ctx, id); sr.err != nil {
		return false
	}

	sr.current = frame
	return true
}

func (sr *SqliteReader) loadValues(ctx context.Context, frameID int64) (values []float64, err error) {
	rows, err := sr.valuesStmt.QueryContext(ctx, frameID)
	if err != nil {
		return nil, fmt.Errorf("querying values of frame %d: %w", frameID, err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var channel int
		var value sql.NullFloat64
		if err = rows.Scan(&channel, &value); err != nil {
			return nil, fmt.Errorf("scanning value of frame %d: %w", frameID, err)
		}

		if channel < 1 || channel > MaxChannel {
			return nil, fmt.Errorf("frame %d: %w: %d", frameID, ErrInvalidChannel, channel)
		}

		// Gaps between stored channels are missing measurements.
		for len(values) < channel {
			values = append(values, math.NaN())
		}
		if value.Valid {
			values[channel-1] = value.Float64
		}
	}
	return values, rows.Err()
}

func (sr *SqliteReader) loadFields(ctx context.Context, frameID int64) (fields map[string]float64, err error) {
	rows, err := sr.fieldsStmt.QueryContext(ctx, frameID)
	if err != nil {
		return nil, fmt.Errorf("querying fields of frame %d: %w", frameID, err)
	}
	defer closeWithError(rows, &err)

	fields = make(map[string]float64)
	for rows.Next() {
		var name string
		var value float64
		if err = rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning field of frame %d: %w", frameID, err)
		}
		fields[name] = value
	}
	return fields, rows.Err()
}

func (sr *SqliteReader) Current() *Frame {
	return sr.current
}

func (sr *SqliteReader) Error() error {
	if sr.err != nil {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

// Close releases the query, the statements and the connection. It is safe
// to call more than once.
func (sr *SqliteReader) Close() error {
	var errs []error
	if sr.rows != nil {
		errs = append(errs, sr.rows.Close())
		sr.rows = nil
	}
	for _, stmt := range []**sql.Stmt{&sr.valuesStmt, &sr.fieldsStmt} {
		if *stmt != nil {
			errs = append(errs, (*stmt).Close())
			*stmt = nil
		}
	}
	if sr.db != nil {
		errs = append(errs, sr.db.Close())
		sr.db = nil
	}
	sr.current = nil
	return errors.Join(errs...)
}

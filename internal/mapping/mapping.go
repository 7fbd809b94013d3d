// Package mapping resolves sensors to measurement channels.
//
// A mapping is written as "sensor:channel" pairs separated by commas,
// semicolons or whitespace. Sensors and channels are both 1-based, so
// "3:10" routes the third sensor of the layout to the tenth measurement.
package mapping

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// Unset marks a sensor that has no explicit channel.
	Unset = -1

	// MaxSensor bounds sensor numbers so a typo cannot allocate a huge
	// mapping.
	MaxSensor = 1 << 20
)

// Mapping holds the channel of every sensor, indexed by 0-based global
// sensor index. Slots that were never assigned hold Unset.
type Mapping []int

// Identity maps sensor i to channel i for n sensors.
func Identity(n int) Mapping {
	m := make(Mapping, n)
	for i := range m {
		m[i] = i + 1
	}
	return m
}

// Channel returns the channel of the sensor at the 0-based global index.
// When the mapping has no entry for it, the sensor falls back to its own
// 1-based position and ok is false.
func (m Mapping) Channel(sensorIndex int) (channel int, ok bool) {
	if sensorIndex >= 0 && sensorIndex < len(m) && m[sensorIndex] != Unset {
		return m[sensorIndex], true
	}
	return sensorIndex + 1, false
}

// Parse reads a mapping. Malformed pairs are logged and skipped. A later
// pair for the same sensor overrides an earlier one.
func Parse(input string, logger *slog.Logger) Mapping {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var m Mapping
	for _, pair := range entries(input) {
		sensor, channel, err := parsePair(pair)
		if err != nil {
			logger.Warn("skipping malformed channel mapping entry",
				slog.String("entry", pair),
				slog.String("error", err.Error()))
			continue
		}

		for len(m) < sensor {
			m = append(m, Unset)
		}
		m[sensor-1] = channel
	}
	return m
}

// entries splits input into pairs. Lines, commas and semicolons always
// separate entries; within one of those, spaces do too unless they sit next
// to a colon, so "2 : 7" is a single pair.
func entries(input string) []string {
	var out []string
	records := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})
	for _, record := range records {
		parts := strings.Split(record, ":")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		out = append(out, strings.Fields(strings.Join(parts, ":"))...)
	}
	return out
}

var (
	errNoSeparator = errors.New(`expected "sensor:channel"`)
	errNotPositive = errors.New("sensor and channel must be positive integers")
	errTooLarge    = errors.New("sensor number out of range")
)

func parsePair(pair string) (sensor, channel int, err error) {
	s, c, found := strings.Cut(pair, ":")
	if !found {
		return 0, 0, errNoSeparator
	}
	if sensor, err = strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return 0, 0, err
	}
	if channel, err = strconv.Atoi(strings.TrimSpace(c)); err != nil {
		return 0, 0, err
	}
	if sensor < 1 || channel < 1 {
		return 0, 0, errNotPositive
	}
	if sensor > MaxSensor {
		return 0, 0, errTooLarge
	}
	return sensor, channel, nil
}

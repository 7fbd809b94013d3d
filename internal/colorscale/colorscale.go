// Package colorscale maps measurements onto discrete color ramps.
//
// A measurement inside [min, max] is normalized and quantized into one of
// Resolution colors. Values outside the range clamp to the first or last
// color until they pass the range bound multiplied by an out-of-range factor,
// after which the scheme's Low or High sentinel is used. The factor is chosen
// by the caller; the engine has no policy of its own.
package colorscale

import (
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Number formatting thresholds for legend labels. Integers switch to
// scientific notation at a larger magnitude than fractional values.
const (
	intSwitch     = 10_000_000
	floatSwitch   = 10_000
	decimalPlaces = 3
)

// GetColor returns the color for measurements[index].
//
// An index outside the slice, or a NaN measurement, yields the scheme's
// Invalid color. min is assumed negative and max positive when a factor
// other than 1 is used; with other signs the out-of-range band is
// asymmetric.
func GetColor(measurements []float64, index int, s *Scheme, min, max, outOfRangeFactor float64) color.RGBA {
	if index < 0 || index >= len(measurements) {
		return s.Invalid
	}

	v := measurements[index]
	switch {
	case math.IsNaN(v):
		return s.Invalid
	case v < min:
		if v < min*outOfRangeFactor {
			return s.Low
		}
		return s.Colors[0]
	case v > max:
		if v > max*outOfRangeFactor {
			return s.High
		}
		return s.Colors[len(s.Colors)-1]
	}
	return s.Colors[IndexFor(v, min, max, len(s.Colors))]
}

// IndexFor quantizes v within [min, max] into [0, n-1].
func IndexFor(v, min, max float64, n int) int {
	t := (v - min) / (max - min)
	idx := int(math.Floor(t * float64(n)))
	return clamp(idx, 0, n-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatRange formats the legend's boundary values.
func FormatRange(min, max float64) (string, string) {
	return FormatNumber(min), FormatNumber(max)
}

// FormatNumber prints integers below 1e7 as-is, other values below 1e4 with
// three decimals, and everything else in scientific notation with three
// decimals ("1.235e+7").
func FormatNumber(v float64) string {
	abs := math.Abs(v)
	isInteger := v == math.Trunc(v) && !math.IsInf(v, 0)

	if (!isInteger && abs >= floatSwitch) || (isInteger && abs >= intSwitch) {
		return exponential(v, decimalPlaces)
	}
	if isInteger {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', decimalPlaces, 64)
}

// exponential drops the zero padding Go puts in the exponent.
func exponential(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'e', prec, 64)
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mantissa, exp := s[:i], s[i+1:]
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}

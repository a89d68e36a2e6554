// Package utils contains small helpers shared across the module.
package utils

import (
	"math"
	"strconv"
	"strings"
)

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual reports whether a and b differ by at most epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Clamp limits v to [lo, hi]. Infinite bounds never clip.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SpaceDelimitedStringToFloatSlice splits space-delimited fields, such as URDF xyz or rpy attributes.
// Unparsable fields become NaN.
func SpaceDelimitedStringToFloatSlice(s string) []float64 {
	var converted []float64
	for _, value := range strings.Fields(s) {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			f = math.NaN()
		}
		converted = append(converted, f)
	}
	return converted
}

package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// Coerce converts a raw cell to a float. It accepts plain decimal and
// exponent notation with surrounding whitespace. Empty cells, text, hex
// literals, NaN and infinities do not convert.
func Coerce(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CoerceAll converts cells in order and silently drops the ones that fail.
func CoerceAll(cells []string) []float64 {
	values := make([]float64, 0, len(cells))
	for _, c := range cells {
		if v, ok := Coerce(c); ok {
			values = append(values, v)
		}
	}
	return values
}

// isUniformlyNumeric reports whether every non-empty cell converts and at
// least one cell is present.
func isUniformlyNumeric(cells []string) bool {
	seen := 0
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, ok := Coerce(c); !ok {
			return false
		}
		seen++
	}
	return seen > 0
}

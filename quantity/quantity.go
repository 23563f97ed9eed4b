// Package quantity guards the floating-point quantities that flow between
// model output, user input, storage and display.
package quantity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IsSafe reports whether v is finite and not negative.
func IsSafe(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Sanitize returns 0 for NaN or infinite values and clamps negatives to 0.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, v)
}

// Format renders a sanitized quantity: whole numbers without a decimal point,
// everything else with exactly one decimal place.
func Format(v float64) string {
	v = Sanitize(v)
	if v == math.Trunc(v) && v < math.MaxInt64 {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%.1f", v)
}

// Parse coerces a decoded JSON value into a finite float64. Numbers and
// numeric strings are accepted. The result is not clamped; callers decide
// whether negatives are acceptable.
func Parse(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

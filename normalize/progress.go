package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Progress converts a loosely typed progress value into a percentage.
// Values <= 1 are fractions and get scaled by 100, anything larger is an
// absolute percentage. The result is rounded and clamped to [0,100].
// ok is false when raw is absent or not numeric; the value is then 0.
func Progress(raw any) (int, bool) {
	value, ok := asFloat(raw)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	if value <= 1 {
		value *= 100
	}
	return Clamp(int(math.Round(value))), true
}

// Clamp bounds p to [0,100].
func Clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		return parseFloat(v.String())
	case string:
		return parseFloat(v)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

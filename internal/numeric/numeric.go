// Package numeric holds the display arithmetic shared by every page: coercion of
// loosely typed backend numbers and the few derived percentages the client computes.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Coerce converts a backend value to a finite float64. Anything that is not a number
// or a numeric string (nil, NaN, Inf, "", "abc", bools, objects) becomes 0.
func Coerce(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		return parse(string(x))
	case string:
		return parse(x)
	case decimal.Decimal:
		f = x.InexactFloat64()
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parse(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Sum adds money amounts in decimal so totals of many small values don't drift.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(Coerce(v)))
	}
	return total.InexactFloat64()
}

// Sub returns a - b computed in decimal.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(Coerce(a)).Sub(decimal.NewFromFloat(Coerce(b))).InexactFloat64()
}

// SumBy totals f over items.
func SumBy[T any](items []T, f func(T) float64) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(Coerce(f(item))))
	}
	return total.InexactFloat64()
}

// Progress is min(100, round(current/target*100)). A target of 0 or less reads as 0%.
func Progress(current, target float64) int {
	current, target = Coerce(current), Coerce(target)
	if target <= 0 {
		return 0
	}
	p := math.Round(current / target * 100)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return int(p)
}

// UsagePercent is spent/allocated*100 capped at 100, unrounded. Allocated 0 reads as 0%.
func UsagePercent(spent, allocated float64) float64 {
	spent, allocated = Coerce(spent), Coerce(allocated)
	if allocated <= 0 {
		return 0
	}
	return math.Max(0, math.Min(spent/allocated*100, 100))
}

// RunwayMonthsForFullHealth is the emergency fund size treated as 100% health.
const RunwayMonthsForFullHealth = 6

// HealthScore maps months of runway onto 0..100.
func HealthScore(months float64) int {
	months = Coerce(months)
	if months <= 0 {
		return 0
	}
	return Progress(months, RunwayMonthsForFullHealth)
}

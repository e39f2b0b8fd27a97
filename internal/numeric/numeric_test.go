package numeric

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
	}{
		{name: "nil", input: nil, want: 0},
		{name: "NaN", input: math.NaN(), want: 0},
		{name: "positive infinity", input: math.Inf(1), want: 0},
		{name: "empty string", input: "", want: 0},
		{name: "non numeric string", input: "abc", want: 0},
		{name: "NaN string", input: "NaN", want: 0},
		{name: "Infinity string", input: "Infinity", want: 0},
		{name: "bool", input: true, want: 0},
		{name: "object", input: map[string]any{"amount": 5}, want: 0},
		{name: "float", input: 12.5, want: 12.5},
		{name: "negative int", input: -40, want: -40},
		{name: "int64", input: int64(7), want: 7},
		{name: "numeric string", input: "1000", want: 1000},
		{name: "padded numeric string", input: "  42.25 ", want: 42.25},
		{name: "json number", input: json.Number("600"), want: 600},
		{name: "bad json number", input: json.Number("x"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Coerce(tt.input))
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		want    int
	}{
		{name: "half way", current: 500, target: 1000, want: 50},
		{name: "rounds half up", current: 1, target: 8, want: 13},
		{name: "capped at 100", current: 1500, target: 1000, want: 100},
		{name: "nothing saved", current: 0, target: 1000, want: 0},
		{name: "zero target", current: 250, target: 0, want: 0},
		{name: "zero target zero current", current: 0, target: 0, want: 0},
		{name: "NaN current", current: math.NaN(), target: 100, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Progress(tt.current, tt.target))
		})
	}
}

func TestProgressProperty(t *testing.T) {
	for target := 1.0; target <= 200; target += 7 {
		for current := 0.0; current <= 400; current += 13 {
			want := int(math.Min(100, math.Round(current/target*100)))
			require.Equal(t, want, Progress(current, target), "current=%v target=%v", current, target)
		}
	}
}

func TestUsagePercent(t *testing.T) {
	require.Equal(t, 40.0, UsagePercent(400, 1000))
	require.Equal(t, 100.0, UsagePercent(1200, 1000))
	require.Equal(t, 0.0, UsagePercent(400, 0))
}

func TestHealthScore(t *testing.T) {
	require.Equal(t, 0, HealthScore(0))
	require.Equal(t, 50, HealthScore(3))
	require.Equal(t, 100, HealthScore(6))
	require.Equal(t, 100, HealthScore(14))
	require.Equal(t, 0, HealthScore(-2))
}

func TestSums(t *testing.T) {
	require.Equal(t, 0.3, Sum(0.1, 0.2))
	require.Equal(t, 3000.0, Sub(5000, 2000))
	require.Equal(t, 0.0, Sum())

	type item struct{ amount float64 }
	items := []item{{amount: 1.1}, {amount: 2.2}, {amount: math.NaN()}}
	require.Equal(t, 3.3, SumBy(items, func(i item) float64 { return i.amount }))
}
